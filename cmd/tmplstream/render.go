package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/pthm/tmplstream"
	"github.com/spf13/cobra"
)

func renderCmd(configPath *string) *cobra.Command {
	var (
		props  reportProps
		chunks bool
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the demo report to stdout",
		Long: `Render the demo report to stdout, writing each chunk as soon as it
is produced.

Examples:
  tmplstream render
  tmplstream render --rows 20 --delay 50ms --chunks`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runRender(ctx, tmplstream.NewEngine(cfg.Options(nil)...), props, chunks)
		},
	}

	cmd.Flags().StringVar(&props.Title, "title", "Report", "Report title")
	cmd.Flags().IntVarP(&props.Rows, "rows", "n", 10, "Number of rows")
	cmd.Flags().DurationVarP(&props.Delay, "delay", "d", 100*time.Millisecond, "Delay before each row")
	cmd.Flags().BoolVar(&chunks, "chunks", false, "Print one chunk per line")

	return cmd
}

func runRender(ctx context.Context, e *tmplstream.Engine, props reportProps, perLine bool) error {
	s := tmplstream.RenderComponentWith[reportProps](ctx, e, reportComponent{}, props)
	defer s.Close()

	for chunk, err := range s.All() {
		if err != nil {
			return err
		}
		if perLine {
			fmt.Printf("%q\n", chunk)
			continue
		}
		if _, err := os.Stdout.WriteString(chunk); err != nil {
			return err
		}
	}
	stats := s.Stats()
	fmt.Fprintf(os.Stderr, "\n%d chunks, %d bytes in %s\n", stats.Chunks, stats.Bytes, stats.Duration.Round(time.Millisecond))
	return nil
}
