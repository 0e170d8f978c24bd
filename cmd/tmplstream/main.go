package main

import (
	"fmt"
	"os"

	"github.com/pthm/tmplstream"
	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "tmplstream",
		Short: "Streaming template engine demo",
		Long: `tmplstream renders a demo report as a stream of text chunks.

The report's rows arrive slowly, so the output shows how chunks are
delivered as soon as they are resolved instead of after the whole
document is ready.

Examples:
  tmplstream render --rows 5 --delay 200ms
  tmplstream serve --addr :8080 --config tmplstream.yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")

	rootCmd.AddCommand(
		renderCmd(&configPath),
		serveCmd(&configPath),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file at path, or returns the zero config when
// path is empty.
func loadConfig(path string) (tmplstream.Config, error) {
	if path == "" {
		return tmplstream.Config{}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return tmplstream.Config{}, err
	}
	defer f.Close()
	return tmplstream.LoadConfig(f)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("tmplstream version %s (%s)\n", version, commit)
		},
	}
}
