package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vladimiradmaev/carbclarity/internal/carbs"
	"github.com/vladimiradmaev/carbclarity/internal/domain"
	"github.com/vladimiradmaev/carbclarity/internal/lookup"
)

func newLookupCmd(c *cli) *cobra.Command {
	var (
		amount float64
		pick   int
	)
	cmd := &cobra.Command{
		Use:   "lookup <food>",
		Short: "Look up carbohydrates per 100g and optionally log a portion",
		Long: `Search the food database and list the candidates with their carbohydrates
per 100g. With --pick and --amount the carbs of that portion are logged.

  carbctl lookup apple
  carbctl lookup apple --pick 1 --amount 150`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if pick > 0 && amount <= 0 {
				return errors.New("--pick needs --amount in grams")
			}

			settings, err := c.users.Settings(ctx, domain.LocalOwner)
			if err != nil {
				return err
			}
			if !settings.LookupEnabled {
				return errors.New("food lookup is turned off, enable it with: carbctl settings lookup on")
			}

			session := c.lookupSession()
			query := strings.Join(args, " ")
			foods, err := session.Search(ctx, query)
			if err != nil {
				return fmt.Errorf("%s: %s", lookup.Title(err), lookup.Suggestion(err))
			}
			if len(foods) == 0 {
				printf(cmd, "No foods found for %q.\n", query)
				return nil
			}
			if err := session.LoadDetails(ctx); err != nil {
				return err
			}

			foods = session.State().Foods
			for i, f := range foods {
				printf(cmd, "%2d. %s  %s/100g\n", i+1, f.Name, carbs.FormatGrams(f.CarbsPer100g, c.tag))
			}
			if pick == 0 {
				return nil
			}

			if pick > len(foods) {
				return fmt.Errorf("--pick must be between 1 and %d", len(foods))
			}
			if err := session.Select(foods[pick-1].ID); err != nil {
				return err
			}
			session.SetAmount(&amount)
			entry, err := session.Commit(ctx)
			if err != nil {
				return err
			}
			return c.printLogged(cmd, entry)
		},
	}
	cmd.Flags().Float64Var(&amount, "amount", 0, "grams eaten of the picked food")
	cmd.Flags().IntVar(&pick, "pick", 0, "number of the candidate to log")
	return cmd
}
