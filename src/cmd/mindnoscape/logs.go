package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"mindnoscape/web-app/src/pkg/logview"
)

func newLogsCmd(opts *rootOptions) *cobra.Command {
	var (
		filter string
		gap    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "logs [log directory]",
		Short: "Follow the JSON log files",
		Long: "Follow every *.log file in the log directory, printing entries in a\n" +
			"compact colored form. Defaults to log_folder from the configuration.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			} else {
				cfg, err := loadConfig(opts)
				if err != nil {
					return err
				}
				dir = cfg.LogFolder
			}

			v, err := logview.NewViewer(dir, os.Stdout,
				logview.WithFilter(filter),
				logview.WithGap(gap),
				logview.WithColor(!color.NoColor),
			)
			if err != nil {
				return err
			}

			fmt.Printf("Monitoring logs in directory: %s\n", dir)
			if filter != "" {
				fmt.Printf("Filter: %s\n", filter)
			}
			fmt.Println("Press Ctrl-C to exit.")

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return v.Run(ctx)
		},
	}
	cmd.Flags().StringVarP(&filter, "filter", "f", "", "only show entries containing this text")
	cmd.Flags().DurationVar(&gap, "gap", 100*time.Millisecond, "print a marker after this much idle time (0 disables)")
	return cmd
}
