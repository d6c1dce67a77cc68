package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gopalparivar/dhenu-mahima/internal/daemon"
	"github.com/gopalparivar/dhenu-mahima/internal/jobs"
)

func init() { //nolint: gochecknoinits
	jobsCmd.AddCommand(jobsRunCmd)
	rootCmd.AddCommand(jobsCmd)
}

var (
	jobsCmd = &cobra.Command{
		Use:   "jobs",
		Short: "Run scheduled jobs by hand",
	}

	jobsRunCmd = &cobra.Command{
		Use:   "run <name>",
		Short: "Run one job once",
		Long: fmt.Sprintf("Run one job once. Known jobs: %s.", strings.Join([]string{
			jobs.EventsCleanup, jobs.SubscriptionStatus, jobs.SubscriptionNotify,
			jobs.SubscriptionRedeem, jobs.SubscriptionQuickCheck,
		}, ", ")),
		Args: cobra.ExactArgs(1),
		PreRunE: func(_ *cobra.Command, _ []string) error {
			return loadConfig(true)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := daemon.OpenDB(&cfg)
			if err != nil {
				return err
			}

			svc, err := daemon.Wire(&cfg, db)
			if err != nil {
				return err
			}

			return jobs.New(cfg.Jobs, db, svc.Memberships).Run(cmd.Context(), args[0])
		},
	}
)
