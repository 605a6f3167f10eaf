package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"mindnoscape/web-app/src/pkg/cli"
	"mindnoscape/web-app/src/pkg/editor"
	"mindnoscape/web-app/src/pkg/event"
	"mindnoscape/web-app/src/pkg/gateway"
	"mindnoscape/web-app/src/pkg/log"
)

func newEditCmd(opts *rootOptions) *cobra.Command {
	var apiURL string
	cmd := &cobra.Command{
		Use:   "edit [script...]",
		Short: "Open the terminal mind map editor",
		Long: "Open the terminal mind map editor against the API.\n" +
			"With script files, run their commands one per line and exit.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, cleanup, err := bootstrap(opts, false)
			if err != nil {
				return err
			}
			defer cleanup()
			if apiURL != "" {
				cfg.APIBaseURL = apiURL
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			client, err := gateway.NewClient(cfg.APIBaseURL)
			if err != nil {
				return err
			}
			creds, err := gateway.NewCredentialFile(cfg.CredentialFile)
			if err != nil {
				return err
			}
			ed, err := editor.NewEditor(client, creds, event.NewEventManager(logger), logger)
			if err != nil {
				return fmt.Errorf("failed to initialize editor: %w", err)
			}
			if _, err := ed.Restore(ctx); err != nil {
				logger.Warn(ctx, "Session restore failed", log.Fields{"error": err})
			}

			if len(args) > 0 {
				return runScripts(ctx, ed, logger, args)
			}

			c, err := cli.NewCLI(ed, os.Stdout, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize CLI: %w", err)
			}
			if err := c.Attach(cfg); err != nil {
				return err
			}
			defer c.Close()

			err = c.Run(ctx)
			ed.Wait()
			ed.Drain()
			fmt.Println("Goodbye!")
			return err
		},
	}
	cmd.Flags().StringVar(&apiURL, "api", "", "API base URL (overrides api_base_url)")
	return cmd
}

func runScripts(ctx context.Context, ed *editor.Editor, logger *log.Logger, paths []string) error {
	c, err := cli.NewCLI(ed, os.Stdout, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize CLI: %w", err)
	}
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open script: %w", err)
		}
		err = c.RunScript(ctx, f)
		f.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}
