package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vladimiradmaev/carbclarity/internal/carbs"
	"github.com/vladimiradmaev/carbclarity/internal/domain"
	"github.com/vladimiradmaev/carbclarity/internal/services"
	"github.com/vladimiradmaev/carbclarity/internal/utils"
)

func newSettingsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change limits, quick add and food lookup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := c.users.Settings(cmd.Context(), domain.LocalOwner)
			if err != nil {
				return err
			}
			c.printSettings(cmd, settings)
			return nil
		},
	}

	cmd.AddCommand(
		limitCmd(c, "warn", "Set the warn limit in grams", (*services.UserService).SetWarnLimit),
		limitCmd(c, "caution", "Set the caution limit in grams", (*services.UserService).SetCautionLimit),
		toggleCmd(c, "warn-alert", "Turn the warn limit on or off",
			func(s domain.Settings) bool { return s.Thresholds.WarnEnabled }, (*services.UserService).ToggleWarn),
		toggleCmd(c, "caution-alert", "Turn the caution limit on or off",
			func(s domain.Settings) bool { return s.Thresholds.CautionEnabled }, (*services.UserService).ToggleCaution),
		toggleCmd(c, "quick-add", "Turn quick add on or off",
			func(s domain.Settings) bool { return s.QuickAddEnabled }, (*services.UserService).ToggleQuickAdd),
		&cobra.Command{
			Use:       "lookup <on|off>",
			Short:     "Turn food lookup on or off",
			Args:      cobra.ExactArgs(1),
			ValidArgs: []string{"on", "off"},
			RunE: func(cmd *cobra.Command, args []string) error {
				on, err := parseOnOff(args[0])
				if err != nil {
					return err
				}
				settings, err := c.users.SetLookupEnabled(cmd.Context(), domain.LocalOwner, on)
				if err != nil {
					return err
				}
				c.printSettings(cmd, settings)
				return nil
			},
		},
		&cobra.Command{
			Use:   "api-key [key]",
			Short: "Store the USDA FoodData Central API key, or remove it when omitted",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				key := ""
				if len(args) == 1 {
					key = args[0]
				}
				settings, err := c.users.SetLookupAPIKey(cmd.Context(), domain.LocalOwner, key)
				if err != nil {
					return err
				}
				c.printSettings(cmd, settings)
				return nil
			},
		},
	)
	return cmd
}

// The services only exist once setup ran, so subcommands take method expressions.
type (
	settingsToggle func(*services.UserService, context.Context, int64) (domain.Settings, error)
	settingsLimit  func(*services.UserService, context.Context, int64, float64) (domain.Settings, error)
)

func limitCmd(c *cli, use, short string, set settingsLimit) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <grams>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit := utils.ParseGrams(args[0])
			if limit == nil {
				return fmt.Errorf("invalid limit %q", args[0])
			}
			settings, err := set(c.users, cmd.Context(), domain.LocalOwner, *limit)
			if err != nil {
				return err
			}
			c.printSettings(cmd, settings)
			return nil
		},
	}
}

// toggleCmd sets a boolean setting to the requested state; the service only flips it
func toggleCmd(c *cli, use, short string, current func(domain.Settings) bool, flip settingsToggle) *cobra.Command {
	return &cobra.Command{
		Use:       use + " <on|off>",
		Short:     short,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			want, err := parseOnOff(args[0])
			if err != nil {
				return err
			}
			settings, err := c.users.Settings(cmd.Context(), domain.LocalOwner)
			if err != nil {
				return err
			}
			if current(settings) != want {
				if settings, err = flip(c.users, cmd.Context(), domain.LocalOwner); err != nil {
					return err
				}
			}
			c.printSettings(cmd, settings)
			return nil
		},
	}
}

func parseOnOff(s string) (bool, error) {
	switch s {
	case "on", "true", "yes":
		return true, nil
	case "off", "false", "no":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", s)
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

func (c *cli) printSettings(cmd *cobra.Command, s domain.Settings) {
	th := s.Thresholds
	printf(cmd, "Warn limit:    %s (%s)\n", carbs.FormatGrams(th.WarnLimit, c.tag), onOff(th.WarnEnabled))
	printf(cmd, "Caution limit: %s (%s)\n", carbs.FormatGrams(th.CautionLimit, c.tag), onOff(th.CautionEnabled))
	printf(cmd, "Quick add:     %s\n", onOff(s.QuickAddEnabled))
	printf(cmd, "Food lookup:   %s\n", onOff(s.LookupEnabled))
	switch {
	case s.LookupAPIKey != "":
		printf(cmd, "API key:       set\n")
	case s.ServerKey:
		printf(cmd, "API key:       server default\n")
	default:
		printf(cmd, "API key:       not set\n")
	}
}
