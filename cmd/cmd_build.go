// cmd_build.go - Build Command
// Hauptfunktionen: BuildHandler, buildPlan, writePlan, newBuildCmd
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ollama/embedforge/config"
	"github.com/ollama/embedforge/discover"
	"github.com/ollama/embedforge/exchange"
	"github.com/ollama/embedforge/trainer"
)

// buildPlan - Laedt die Modell-Beschreibung und baut die Embedding-Stufe
func buildPlan(cmd *cobra.Command) (trainer.Plan, error) {
	path, err := cmd.Flags().GetString("file")
	if err != nil {
		return trainer.Plan{}, err
	}

	cfg, err := config.LoadFile(path)
	if err != nil {
		return trainer.Plan{}, err
	}

	_, value, err := trainer.DataTypes(cfg)
	if err != nil {
		return trainer.Plan{}, fmt.Errorf("%s: %w", path, err)
	}

	res := discover.FromEnvironment()
	x, err := exchange.NewManager(res, value, trainer.ExchangeSize(cfg))
	if err != nil {
		return trainer.Plan{}, err
	}

	h, err := trainer.Build(cfg, res, x)
	if err != nil {
		return trainer.Plan{}, fmt.Errorf("%s: %w", path, err)
	}

	return h.Plan(cmd.Context())
}

// BuildHandler - Baut ein Modell und gibt den Plan aus
func BuildHandler(cmd *cobra.Command, _ []string) error {
	plan, err := buildPlan(cmd)
	if err != nil {
		return err
	}

	return writePlan(cmd, plan)
}

// writePlan - Gibt den Plan im Format aus --format aus
func writePlan(cmd *cobra.Command, plan trainer.Plan) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	switch format {
	case "json":
		return writeJSON(w, plan)
	case "":
		// JSON fuer Pipes, Tabellen fuer Terminals
		if f, ok := w.(*os.File); ok && !term.IsTerminal(int(f.Fd())) {
			return writeJSON(w, plan)
		}
		renderPlan(w, plan)
		return nil
	case "table":
		renderPlan(w, plan)
		return nil
	default:
		return fmt.Errorf("unknown format %q (json, table)", format)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newBuildCmd - Erstellt den build Command
func newBuildCmd() *cobra.Command {
	buildCmd := &cobra.Command{
		Use:   "build",
		Short: "Build the embedding stage of a model and print its plan",
		Args:  cobra.NoArgs,
		RunE:  BuildHandler,
	}

	buildCmd.Flags().StringP("file", "f", "model.json", "Model description")
	buildCmd.Flags().String("format", "", "Output format (json, table)")

	return buildCmd
}
