package main

import (
	"fmt"
	"time"

	"github.com/dukerupert/goalpost/internal/calendar"
	"github.com/spf13/cobra"
)

func newSeedCmd() *cobra.Command {
	var (
		configPath string
		today      string
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create sample tasks in an empty store",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			if today == "" {
				today = calendar.Today(time.Now())
			}
			n, err := a.svc.SeedDemo(a.userContext(cmd.Context()), today)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if n == 0 {
				fmt.Fprintln(out, "Store already has tasks, nothing seeded.")
				return nil
			}
			fmt.Fprintf(out, "Seeded %d tasks around %s\n", n, today)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&today, "today", "", "anchor date YYYY-MM-DD (default: today)")
	return cmd
}
