package reform

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/G-Node/reform/reform/db"
	"github.com/G-Node/reform/reform/form"
	"github.com/G-Node/reform/reform/web"
	"go.uber.org/zap"
)

// Config containing all the configuration values for a form service.
type Config struct {
	Port       uint16 `yaml:"port"`
	CookieName string `yaml:"cookieName"`
	DBPath     string `yaml:"dbPath"`
	// Sessions older than this are replaced by a new one.
	SessionMaxAge time.Duration `yaml:"sessionMaxAge"`
	// Request parameter carrying the used field names; must match the
	// controllers' UsedFieldsParamName.
	UsedFieldsParamName string `yaml:"usedFieldsParamName"`
	// Directory served under /assets/.
	AssetsDir string `yaml:"assetsDir"`
}

// DefaultConfig returns the configuration used for unset values.
func DefaultConfig() Config {
	return Config{
		Port:                3000,
		CookieName:          "reform-session",
		DBPath:              "./reform.db",
		SessionMaxAge:       7 * 24 * time.Hour,
		UsedFieldsParamName: DefaultOptions().UsedFieldsParamName,
		AssetsDir:           "./assets",
	}
}

func (cfg Config) withDefaults() Config {
	def := DefaultConfig()
	if cfg.Port == 0 {
		cfg.Port = def.Port
	}
	if cfg.CookieName == "" {
		cfg.CookieName = def.CookieName
	}
	if cfg.DBPath == "" {
		cfg.DBPath = def.DBPath
	}
	if cfg.SessionMaxAge == 0 {
		cfg.SessionMaxAge = def.SessionMaxAge
	}
	if cfg.UsedFieldsParamName == "" {
		cfg.UsedFieldsParamName = def.UsedFieldsParamName
	}
	if cfg.AssetsDir == "" {
		cfg.AssetsDir = def.AssetsDir
	}
	return cfg
}

// Service is the server side of a form: it renders the form page and answers
// the submission and validation exchanges of the form's controller.  Accepted
// submissions are stored in the database.
type Service struct {
	web    *web.Server
	db     *db.Connection
	log    *zap.Logger
	form   form.Form
	Config Config
}

// NewService creates a new Service for the given form.
func NewService(f form.Form, cfg Config, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	srv := new(Service)
	srv.Config = cfg.withDefaults()
	srv.log = logger

	srv.log.Info("Initialising database", zap.String("path", srv.Config.DBPath))
	conn, err := db.New(srv.Config.DBPath)
	if err != nil {
		return nil, fmt.Errorf("initialising database: %w", err)
	}
	srv.db = conn

	srv.web = web.New(srv.Config.Port, logger)
	srv.setupWebRoutes()

	srv.SetForm(f)
	return srv, nil
}

// Handler returns the HTTP handler of the service.
func (srv *Service) Handler() http.Handler {
	return srv.web.Handler
}

// Start the web server.  The returned channel reports a failing server.
func (srv *Service) Start() (<-chan error, error) {
	if len(srv.form.Elements()) == 0 {
		return nil, fmt.Errorf("nil or empty form is invalid")
	}
	if srv.form.ID == "" {
		return nil, fmt.Errorf("form without ID is invalid")
	}

	srv.log.Info("Starting web service", zap.Uint16("port", srv.Config.Port))
	errc := srv.web.Start()
	srv.log.Info("Web server started")
	return errc, nil
}

// WaitForInterrupt blocks until the service receives an interrupt signal
// (SIGINT or SIGTERM) or ctx is done.
func (srv *Service) WaitForInterrupt(ctx context.Context) {
	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigchan)
	select {
	case sig := <-sigchan:
		srv.log.Info("Received signal", zap.String("signal", sig.String()))
	case <-ctx.Done():
	}
}

// Stop the service by gracefully shutting down the web service and closing
// the database connection, in that order.
func (srv *Service) Stop() {
	srv.log.Info("Stopping web service")
	if err := srv.web.Stop(); err != nil {
		srv.log.Error("Error stopping web service", zap.Error(err))
	}

	srv.log.Info("Closing database connection")
	if err := srv.db.Close(); err != nil {
		srv.log.Error("Error closing database", zap.Error(err))
	}
	srv.log.Info("Service stopped")
}

// SetForm can be used to set or override the form for the service.
func (srv *Service) SetForm(f form.Form) {
	pages := make([]form.Page, len(f.Pages))
	copy(pages, f.Pages)
	f.Pages = pages
	srv.form = f
}
