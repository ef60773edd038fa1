// cmd_serve.go - Serve Command
// Hauptfunktionen: RunServer, newServeCmd
package cmd

import (
	"errors"
	"net"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/ollama/embedforge/envconfig"
	"github.com/ollama/embedforge/server"
)

// RunServer - Baut das Modell und liefert den Plan ueber HTTP aus
func RunServer(cmd *cobra.Command, _ []string) error {
	plan, err := buildPlan(cmd)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", envconfig.Host().Host)
	if err != nil {
		return err
	}

	err = server.Serve(ln, plan)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return err
}

// newServeCmd - Erstellt den serve Command
func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"start"},
		Short:   "Build a model and serve its plan",
		Args:    cobra.NoArgs,
		RunE:    RunServer,
	}

	serveCmd.Flags().StringP("file", "f", "model.json", "Model description")

	return serveCmd
}
