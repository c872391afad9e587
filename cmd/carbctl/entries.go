package main

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vladimiradmaev/carbclarity/internal/carbs"
	"github.com/vladimiradmaev/carbclarity/internal/domain"
	"github.com/vladimiradmaev/carbclarity/internal/utils"
)

func newAddCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "add <grams>",
		Short: "Log grams of carbohydrates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := c.entries.Add(cmd.Context(), utils.ParseGrams(args[0]))
			if err != nil {
				return err
			}
			return c.printLogged(cmd, entry)
		},
	}
}

func newQuickCmd(c *cli) *cobra.Command {
	presets := make([]string, len(domain.QuickAddPresets))
	for i, p := range domain.QuickAddPresets {
		presets[i] = strconv.FormatFloat(p, 'f', -1, 64)
	}

	return &cobra.Command{
		Use:   "quick <preset>",
		Short: "Log one of the quick add amounts",
		Long:  "Log one of the fixed quick add amounts: " + strings.Join(presets, ", ") + " grams.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			preset, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid preset %q", args[0])
			}
			entry, err := c.entries.QuickAdd(cmd.Context(), preset)
			if err != nil {
				return err
			}
			return c.printLogged(cmd, entry)
		},
	}
}

func newDeleteCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an entry by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.entries.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			printf(cmd, "Deleted %s\n", args[0])
			return nil
		},
	}
}

func newTodayCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "Show today's total and entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			th, err := c.thresholds(cmd)
			if err != nil {
				return err
			}
			d, err := c.entries.Today(cmd.Context(), th)
			if err != nil {
				return err
			}

			printf(cmd, "%s (%s)\n", carbs.DayTotalLine(d.Total, th, c.tag), d.Evaluation.Class)
			for _, e := range d.Entries {
				c.printEntry(cmd, e)
			}
			return nil
		},
	}
}

func newHistoryCmd(c *cli) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show entries grouped by day, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			th, err := c.thresholds(cmd)
			if err != nil {
				return err
			}
			groups, err := c.entries.History(cmd.Context())
			if err != nil {
				return err
			}
			if len(groups) == 0 {
				printf(cmd, "No entries yet.\n")
				return nil
			}

			for i, g := range groups {
				if days > 0 && i == days {
					break
				}
				printf(cmd, "%s  %s\n", utils.FormatDay(g.Day), carbs.DayTotalLine(g.Total(), th, c.tag))
				for _, e := range g.Entries {
					c.printEntry(cmd, e)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "limit the output to the newest days (0 shows all)")
	return cmd
}

func newStatsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show averages and totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.entries.Statistics(cmd.Context())
			if err != nil {
				return err
			}

			printf(cmd, "Weekly average: %s per day\n", carbs.FormatGrams(st.WeeklyAverage, c.tag))
			printf(cmd, "This month: %s\n", carbs.FormatGrams(st.MonthlyTotal, c.tag))
			printf(cmd, "Lowest day: %s\n", c.dayTotal(st.LowestDay))
			printf(cmd, "Highest day: %s\n", c.dayTotal(st.HighestDay))
			printf(cmd, "\nDaily totals:\n")
			for _, d := range st.Daily {
				printf(cmd, "  %s  %s\n", utils.FormatDay(d.Date), carbs.FormatGrams(d.Total, c.tag))
			}
			printf(cmd, "\nWeekly averages:\n")
			for _, w := range st.Weekly {
				printf(cmd, "  %s  %s\n", utils.FormatDay(w.WeekStart), carbs.FormatGrams(w.Average, c.tag))
			}
			return nil
		},
	}
}

func newSummaryCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Say how many carbs were eaten today",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			th, err := c.thresholds(cmd)
			if err != nil {
				return err
			}
			text, err := c.entries.Summary(cmd.Context(), th, c.tag)
			if err != nil {
				return err
			}
			printf(cmd, "%s\n", text)
			return nil
		},
	}
}

func newSeedCmd(c *cli) *cobra.Command {
	var (
		days       int
		clearFirst bool
		seed       int64
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the store with random demo entries",
		Long: `Insert three to five random entries per day for the last --days days,
today included. Seeded values skip the usual amount validation.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			src := seed
			if src == 0 {
				src = time.Now().UnixNano()
			}
			n, err := c.entries.Seed(cmd.Context(), days, clearFirst, rand.New(rand.NewSource(src)))
			if err != nil {
				return err
			}
			printf(cmd, "Seeded %d entries\n", n)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 35, "number of days to generate")
	cmd.Flags().BoolVar(&clearFirst, "clear", false, "delete all entries first")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 picks one)")
	return cmd
}

func (c *cli) printLogged(cmd *cobra.Command, entry *domain.CarbEntry) error {
	th, err := c.thresholds(cmd)
	if err != nil {
		return err
	}
	d, err := c.entries.Today(cmd.Context(), th)
	if err != nil {
		return err
	}
	printf(cmd, "%s (id %s)\n%s\n", carbs.LoggedMessage(entry.Value, c.tag), entry.ID, carbs.DayTotalLine(d.Total, th, c.tag))
	return nil
}

func (c *cli) printEntry(cmd *cobra.Command, e *domain.CarbEntry) {
	local := e.Timestamp.In(c.calendar.Location)
	printf(cmd, "  %s  %8s  %s\n", utils.FormatClock(local), carbs.FormatGrams(e.Value, c.tag), e.ID)
}

func (c *cli) dayTotal(d *domain.DayTotal) string {
	if d == nil {
		return "-"
	}
	return fmt.Sprintf("%s on %s", carbs.FormatGrams(d.Total, c.tag), utils.FormatDay(d.Date))
}
