package main

import (
	"fmt"
	"time"

	"github.com/DukeRupert/jyotai/internal/service"
	"github.com/spf13/cobra"
)

func newLifePathCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "lifepath <dob>",
		Short: "Print the life path number for a date of birth",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := service.NewAstroService(nil, a.logger()).LifePath(args[0])
			if err != nil {
				return cliError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d: %s\n", res.Number, res.Summary)
			return nil
		},
	}
}

func newTipCmd(a *app) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "tip",
		Short: "Print the tip of the day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			day := a.now()
			if date != "" {
				parsed, err := time.Parse(time.DateOnly, date)
				if err != nil {
					return fmt.Errorf("invalid --date %q, want YYYY-MM-DD", date)
				}
				day = parsed
			}
			tip := service.NewAstroService(nil, a.logger()).TipFor(day)
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", tip.Date, tip.Tip)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "calendar date (YYYY-MM-DD), defaults to today in UTC")
	return cmd
}
