package keyboards

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/text/language"

	"github.com/vladimiradmaev/carbclarity/internal/carbs"
	"github.com/vladimiradmaev/carbclarity/internal/domain"
	"github.com/vladimiradmaev/carbclarity/internal/utils"
)

// Callback data understood by the callback handler
const (
	MainMenu         = "main_menu"
	Add              = "add"
	Today            = "today"
	History          = "history"
	Stats            = "stats"
	Settings         = "settings"
	Help             = "help"
	Lookup           = "lookup"
	LookupRetry      = "lookup_retry"
	ToggleWarn       = "set:warn"
	ToggleCaution    = "set:caution"
	ToggleQuickAdd   = "set:quick"
	ToggleLookup     = "set:lookup"
	EditWarnLimit    = "set:warn_limit"
	EditCautionLimit = "set:caution_limit"
	EditAPIKey       = "set:api_key"

	PrefixQuickAdd = "quick:"
	PrefixDelete   = "del:"
	PrefixPick     = "pick:"
)

// maxDeleteButtons keeps the history keyboard within a usable size
const maxDeleteButtons = 20

// maxLabelRunes truncates long food names on buttons
const maxLabelRunes = 40

const presetsPerRow = 3

func backRow() []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("◀️ Main menu", MainMenu),
	)
}

// BackToMain is a keyboard with the single main menu button
func BackToMain() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(backRow())
}

// QuickAddData is the callback data of a preset button
func QuickAddData(preset float64) string {
	return PrefixQuickAdd + strconv.FormatFloat(preset, 'f', -1, 64)
}

// MainMenuKeyboard creates the main menu keyboard. Quick add presets and the
// lookup button only show when enabled in the settings.
func MainMenuKeyboard(settings domain.Settings, tag language.Tag) tgbotapi.InlineKeyboardMarkup {
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Add carbs", Add),
		),
	)

	if settings.QuickAddEnabled {
		var row []tgbotapi.InlineKeyboardButton
		for _, preset := range domain.QuickAddPresets {
			label := "+" + carbs.FormatGrams(preset, tag)
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, QuickAddData(preset)))
			if len(row) == presetsPerRow {
				keyboard.InlineKeyboard = append(keyboard.InlineKeyboard, row)
				row = nil
			}
		}
		if len(row) > 0 {
			keyboard.InlineKeyboard = append(keyboard.InlineKeyboard, row)
		}
	}

	if settings.LookupActive() {
		keyboard.InlineKeyboard = append(keyboard.InlineKeyboard,
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🔎 Food lookup", Lookup),
			),
		)
	}

	keyboard.InlineKeyboard = append(keyboard.InlineKeyboard,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📅 Today", Today),
			tgbotapi.NewInlineKeyboardButtonData("📜 History", History),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 Statistics", Stats),
			tgbotapi.NewInlineKeyboardButtonData("⚙️ Settings", Settings),
		),
	)
	return keyboard
}

func onOff(enabled bool) string {
	if enabled {
		return "✅"
	}
	return "❌"
}

// SettingsKeyboard creates the settings keyboard
func SettingsKeyboard(settings domain.Settings, tag language.Tag) tgbotapi.InlineKeyboardMarkup {
	th := settings.Thresholds
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("%s Warn at %s", onOff(th.WarnEnabled), carbs.FormatGrams(th.WarnLimit, tag)), ToggleWarn),
			tgbotapi.NewInlineKeyboardButtonData("✏️ Change", EditWarnLimit),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("%s Caution at %s", onOff(th.CautionEnabled), carbs.FormatGrams(th.CautionLimit, tag)), ToggleCaution),
			tgbotapi.NewInlineKeyboardButtonData("✏️ Change", EditCautionLimit),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(onOff(settings.QuickAddEnabled)+" Quick add", ToggleQuickAdd),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(onOff(settings.LookupEnabled)+" Food lookup", ToggleLookup),
			tgbotapi.NewInlineKeyboardButtonData("🔑 API key", EditAPIKey),
		),
		backRow(),
	)
}

// DeleteKeyboard offers one delete button per entry, newest first as given.
func DeleteKeyboard(entries []*domain.CarbEntry, loc *time.Location, tag language.Tag) tgbotapi.InlineKeyboardMarkup {
	keyboard := tgbotapi.NewInlineKeyboardMarkup()
	for i, e := range entries {
		if i == maxDeleteButtons {
			break
		}
		local := e.Timestamp.In(loc)
		label := fmt.Sprintf("🗑 %s %s · %s", local.Format("Mon"), utils.FormatClock(local), carbs.FormatGrams(e.Value, tag))
		keyboard.InlineKeyboard = append(keyboard.InlineKeyboard,
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(label, PrefixDelete+e.ID),
			),
		)
	}
	keyboard.InlineKeyboard = append(keyboard.InlineKeyboard, backRow())
	return keyboard
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n-1])) + "…"
}

// LookupResultsKeyboard lets the user pick one candidate
func LookupResultsKeyboard(foods []domain.FoodCandidate, tag language.Tag) tgbotapi.InlineKeyboardMarkup {
	keyboard := tgbotapi.NewInlineKeyboardMarkup()
	for _, f := range foods {
		per100 := carbs.FormatGrams(f.CarbsPer100g, tag)
		if f.StillLoadingDetail {
			per100 = "…"
		}
		label := fmt.Sprintf("%s · %s/100g", truncate(f.Name, maxLabelRunes), per100)
		keyboard.InlineKeyboard = append(keyboard.InlineKeyboard,
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(label, PrefixPick+strconv.Itoa(f.ID)),
			),
		)
	}
	keyboard.InlineKeyboard = append(keyboard.InlineKeyboard, backRow())
	return keyboard
}

// LookupErrorKeyboard offers a retry when the failure is not about the API key
func LookupErrorKeyboard(canRetry bool) tgbotapi.InlineKeyboardMarkup {
	if !canRetry {
		return tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("⚙️ Settings", Settings),
			),
			backRow(),
		)
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔁 Retry", LookupRetry),
		),
		backRow(),
	)
}
