package main

import (
	"github.com/G-Node/reform/reform"
	"github.com/G-Node/reform/reform/form"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	servePort uint16
	serveDB   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the form and its validation endpoint",
	Long: `Serves the form page, the submission and validation endpoints of the form
and the list of accepted submissions.  Without a form in the configuration
file an example form is served.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Uint16VarP(&servePort, "port", "p", 0, "port to listen on (default 3000)")
	serveCmd.Flags().StringVar(&serveDB, "db", "", "path of the submission database (default ./reform.db)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := readConfig(configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = servePort
	}
	if cmd.Flags().Changed("db") {
		cfg.Server.DBPath = serveDB
	}

	var f form.Form
	if cfg.Form != nil {
		if f, err = cfg.Form.build(); err != nil {
			return err
		}
	} else {
		logger.Info("No form configured, serving the example form")
		f = exampleForm()
	}

	srv, err := reform.NewService(f, cfg.Server, logger)
	if err != nil {
		return err
	}
	errc, err := srv.Start()
	if err != nil {
		srv.Stop()
		return err
	}

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		// closed once the server is shut down
		if err, failed := <-errc; failed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		srv.WaitForInterrupt(ctx)
		srv.Stop()
		return nil
	})
	if err := g.Wait(); err != nil {
		logger.Error("Service failed", zap.Error(err))
		return err
	}
	return nil
}
