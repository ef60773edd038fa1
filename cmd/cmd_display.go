// cmd_display.go - Tabellen-Ausgabe fuer Plaene und Umgebung
// Hauptfunktionen: renderPlan, newTable, EnvHandler
package cmd

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/ollama/embedforge/envconfig"
	"github.com/ollama/embedforge/format"
	"github.com/ollama/embedforge/trainer"
)

// newTable - Tabelle im Stil von list/ps
func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	return table
}

func shape(s []int) string {
	dims := make([]string, len(s))
	for i, d := range s {
		dims[i] = strconv.Itoa(d)
	}
	return "[" + strings.Join(dims, " ") + "]"
}

// renderPlan - Gibt Tabellen, Registries und Speicher aus
func renderPlan(w io.Writer, p trainer.Plan) {
	fmt.Fprintf(w, "plan %s (keys %s, values %s, batch %d/%d)\n\n", p.ID, p.KeyType, p.ValueType, p.BatchSize, p.BatchSizeEval)

	var data [][]string
	for _, t := range p.Tables {
		data = append(data, []string{t.Name, t.Kind.String(), t.Bottom, strconv.Itoa(t.VectorSize), t.Combiner, t.Sizing, t.Optimizer.String() + "/" + t.Update.String()})
	}

	table := newTable(w, []string{"NAME", "TYPE", "BOTTOM", "VEC", "COMBINER", "SIZING", "OPTIMIZER"})
	table.AppendBulk(data)
	table.Render()
	fmt.Fprintln(w)

	data = nil
	for i, d := range p.Devices {
		for j, e := range p.Train[i] {
			data = append(data, []string{d.String(), e.Name, shape(e.Shape), shape(p.Eval[i][j].Shape), e.DType})
		}
	}

	table = newTable(w, []string{"DEVICE", "ENTRY", "TRAIN", "EVAL", "DTYPE"})
	table.AppendBulk(data)
	table.Render()
	fmt.Fprintln(w)

	data = nil
	for _, d := range p.Memory.Devices {
		var weights, state, outputs uint64
		for i := range d.Weights {
			weights += d.Weights[i]
			state += d.OptimizerState[i]
			outputs += d.Outputs[i]
		}
		data = append(data, []string{d.Name, format.HumanBytes2(weights), format.HumanBytes2(state), format.HumanBytes2(outputs), format.HumanBytes2(d.Size())})
	}

	table = newTable(w, []string{"DEVICE", "WEIGHTS", "OPTIMIZER", "OUTPUTS", "TOTAL"})
	table.AppendBulk(data)
	table.Render()
	fmt.Fprintf(w, "\ntotal %s\n", format.HumanBytes(int64(p.Memory.Total())))

	for _, t := range p.Tables {
		for _, a := range t.Advisories {
			fmt.Fprintf(w, "\nwarning: %s: %s\n", t.Name, a)
		}
	}
}

// EnvHandler - Listet die Umgebungsvariablen mit aktuellen Werten
func EnvHandler(cmd *cobra.Command, _ []string) error {
	vars := envconfig.AsMap()
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	slices.Sort(names)

	var data [][]string
	for _, name := range names {
		data = append(data, []string{name, fmt.Sprintf("%v", vars[name].Value), vars[name].Description})
	}

	table := newTable(cmd.OutOrStdout(), []string{"NAME", "VALUE", "DESCRIPTION"})
	table.AppendBulk(data)
	table.Render()

	return nil
}

// newEnvCmd - Erstellt den env Command
func newEnvCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "List environment variables and their current values",
		Args:  cobra.NoArgs,
		RunE:  EnvHandler,
	}
}
