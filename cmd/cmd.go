// cmd.go - Haupt-CLI Setup und Root Command
// Hauptfunktionen: NewCLI, appendEnvDocs
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ollama/embedforge/envconfig"
	"github.com/ollama/embedforge/logutil"
	"github.com/ollama/embedforge/version"
)

// appendEnvDocs - Fuegt Umgebungsvariablen-Dokumentation zum Command hinzu
func appendEnvDocs(cmd *cobra.Command, envs []envconfig.EnvVar) {
	if len(envs) == 0 {
		return
	}

	envUsage := `
Environment Variables:
`
	for _, e := range envs {
		envUsage += fmt.Sprintf("      %-32s   %s\n", e.Name, e.Description)
	}

	cmd.SetUsageTemplate(cmd.UsageTemplate() + envUsage)
}

// NewCLI - Erstellt das Haupt-CLI mit allen Commands
func NewCLI() *cobra.Command {
	cobra.EnableCommandSorting = false

	rootCmd := &cobra.Command{
		Use:           "embedforge",
		Short:         "Sparse embedding stage builder",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(logutil.NewLogger(os.Stderr, envconfig.LogLevel()))
		},
		Run: func(cmd *cobra.Command, args []string) {
			if version, _ := cmd.Flags().GetBool("version"); version {
				versionHandler(cmd, args)
				return
			}

			cmd.Print(cmd.UsageString())
		},
	}

	rootCmd.Flags().BoolP("version", "v", false, "Show version information")

	buildCmd := newBuildCmd()
	serveCmd := newServeCmd()
	showCmd := newShowCmd()
	envCmd := newEnvCmd()

	// Environment-Dokumentation hinzufuegen
	envVars := envconfig.AsMap()
	buildEnvs := []envconfig.EnvVar{
		envVars["EMBEDFORGE_DEBUG"],
		envVars["EMBEDFORGE_NUM_DEVICES"],
		envVars["EMBEDFORGE_VISIBLE_DEVICES"],
		envVars["EMBEDFORGE_ALLOC_MEMORY"],
		envVars["EMBEDFORGE_HOST_MEMORY_LIMIT"],
		envVars["EMBEDFORGE_GROUPED_ALL_REDUCE"],
		envVars["EMBEDFORGE_CUDA_GRAPH"],
		envVars["EMBEDFORGE_ITERATIONS_STATISTICS"],
		envVars["EMBEDFORGE_KEY_TYPE"],
		envVars["EMBEDFORGE_VALUE_TYPE"],
	}

	appendEnvDocs(buildCmd, buildEnvs)
	appendEnvDocs(serveCmd, append([]envconfig.EnvVar{envVars["EMBEDFORGE_HOST"]}, buildEnvs...))
	appendEnvDocs(showCmd, []envconfig.EnvVar{envVars["EMBEDFORGE_HOST"]})

	rootCmd.AddCommand(
		buildCmd,
		serveCmd,
		showCmd,
		envCmd,
	)

	return rootCmd
}

// versionHandler - Gibt die Version aus
func versionHandler(cmd *cobra.Command, _ []string) {
	fmt.Fprintf(cmd.OutOrStdout(), "embedforge version is %s\n", version.Version)
}
