// Package web provides the HTTP server of the form service.
package web

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/G-Node/reform/templates"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Server implements the web server for the form service.
type Server struct {
	*http.Server
	Router *mux.Router
	log    *zap.Logger
}

// New returns a web Server listening on the given port with an initialised
// mux.Router and http.Server.
func New(port uint16, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	srv := new(Server)
	srv.log = logger
	srv.Router = new(mux.Router)
	httpsrv := new(http.Server)
	httpsrv.Handler = srv.Router
	httpsrv.Addr = fmt.Sprintf(":%d", port)
	// Good practice to set timeouts to avoid Slowloris attacks.
	httpsrv.WriteTimeout = time.Second * 15
	httpsrv.ReadTimeout = time.Second * 15
	httpsrv.IdleTimeout = time.Second * 60
	srv.Server = httpsrv
	return srv
}

// ErrorResponse logs an error and renders an error page with the given message,
// returning the given status code to the user.
func (ws *Server) ErrorResponse(w http.ResponseWriter, status int, message string) {
	ws.log.Warn("Error response", zap.Int("status", status), zap.String("message", message))
	w.WriteHeader(status)

	tmpl := template.New("layout")
	tmpl, err := tmpl.Parse(templates.Layout)
	if err != nil {
		tmpl = template.New("content")
	}
	tmpl, err = tmpl.Parse(templates.Fail)
	if err != nil {
		w.Write([]byte(message))
		return
	}
	errinfo := map[string]interface{}{
		"title":      http.StatusText(status),
		"StatusCode": status,
		"StatusText": http.StatusText(status),
		"Message":    message,
	}
	if err := tmpl.Execute(w, errinfo); err != nil {
		ws.log.Error("Error rendering fail page", zap.Error(err))
	}
}

// Start starts the embedded web server's ListenAndServe method in a goroutine
// and returns.  This method does not block.  Errors other than the server
// being closed are sent on the returned channel.
func (ws *Server) Start() <-chan error {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		if err := ws.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			ws.log.Error("Web server failed", zap.Error(err))
			errc <- err
		}
	}()
	return errc
}

// Stop gracefully stops the web service.
func (ws *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	// Gracefully shut down, waiting for the timeout deadline for connections to close.
	return ws.Shutdown(ctx)
}
