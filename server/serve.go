// serve.go - Server-Start und Lifecycle-Management
// Enthaelt: Serve() - startet den HTTP-Server fuer einen kompilierten Plan

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/ollama/embedforge/envconfig"
	"github.com/ollama/embedforge/trainer"
	"github.com/ollama/embedforge/version"
)

// Serve liefert plan ueber ln aus bis SIGINT/SIGTERM eintrifft
func Serve(ln net.Listener, plan trainer.Plan) error {
	if envconfig.LogLevel() > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	s := New(ln.Addr(), plan)

	srvr := &http.Server{Handler: s.GenerateRoutes()}

	ctx, done := context.WithCancel(context.Background())
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		srvr.Close()
		done()
	}()

	slog.Info(fmt.Sprintf("Listening on %s (version %s)", ln.Addr(), version.Version), "plan", plan.ID, "tables", len(plan.Tables))

	err := srvr.Serve(ln)
	// If server is closed from the signal handler, wait for the ctx to be done
	// otherwise error out quickly
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-ctx.Done()
	return nil
}
