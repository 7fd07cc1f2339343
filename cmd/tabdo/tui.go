package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/tgienger/tabdo/internal/ui"
)

func tuiCmd() *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the terminal client",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			_, svc, err := openService(ctx)
			if err != nil {
				return err
			}
			defer svc.Store().Close()

			user, err := svc.EnsureUser(ctx, username)
			if err != nil {
				return fmt.Errorf("load user %q: %w", username, err)
			}

			p := tea.NewProgram(ui.NewApp(svc, *user), tea.WithAltScreen())
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("running application: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "user", "u", defaultUser(), "user to act as (created if missing)")
	return cmd
}

func defaultUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "local"
}
