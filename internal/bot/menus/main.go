package menus

import (
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/text/language"

	"github.com/vladimiradmaev/carbclarity/internal/bot/keyboards"
	"github.com/vladimiradmaev/carbclarity/internal/carbs"
	"github.com/vladimiradmaev/carbclarity/internal/domain"
	"github.com/vladimiradmaev/carbclarity/internal/services"
	"github.com/vladimiradmaev/carbclarity/internal/utils"
)

// Sender is the part of the Bot API the bot uses. *tgbotapi.BotAPI implements it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// historyDays is how many day groups the history message shows
const historyDays = 14

// statsDays is how many points of the daily series the statistics message lists
const statsDays = 7

const mainMenuText = `🍞 *CarbClarity* keeps count of the carbohydrates you eat today.

Send a number like "12.5" to log grams of carbs, or pick an action:`

var classIcons = map[domain.DisplayClass]string{
	domain.ClassNormal:  "🟢",
	domain.ClassCaution: "🟡",
	domain.ClassWarning: "🔴",
}

// SendMainMenu sends the main menu to a chat
func SendMainMenu(api Sender, chatID int64, settings domain.Settings, tag language.Tag) error {
	msg := tgbotapi.NewMessage(chatID, mainMenuText)
	msg.ParseMode = "Markdown"
	msg.ReplyMarkup = keyboards.MainMenuKeyboard(settings, tag)
	_, err := api.Send(msg)
	return err
}

// SendSettingsMenu sends the settings menu to a chat
func SendSettingsMenu(api Sender, chatID int64, settings domain.Settings, tag language.Tag) error {
	msg := tgbotapi.NewMessage(chatID, SettingsText(settings, tag))
	msg.ReplyMarkup = keyboards.SettingsKeyboard(settings, tag)
	_, err := api.Send(msg)
	return err
}

// SettingsText describes the current settings
func SettingsText(settings domain.Settings, tag language.Tag) string {
	var b strings.Builder
	b.WriteString("⚙️ Settings\n\n")
	fmt.Fprintf(&b, "Warn limit: %s (%s)\n", carbs.FormatGrams(settings.Thresholds.WarnLimit, tag), enabled(settings.Thresholds.WarnEnabled))
	fmt.Fprintf(&b, "Caution limit: %s (%s)\n", carbs.FormatGrams(settings.Thresholds.CautionLimit, tag), enabled(settings.Thresholds.CautionEnabled))
	fmt.Fprintf(&b, "Quick add: %s\n", enabled(settings.QuickAddEnabled))
	fmt.Fprintf(&b, "Food lookup: %s\n", enabled(settings.LookupEnabled))
	switch {
	case settings.LookupAPIKey != "":
		b.WriteString("API key: set\n")
	case settings.ServerKey:
		b.WriteString("API key: server default\n")
	default:
		b.WriteString("API key: not set\n")
	}
	if settings.LookupEnabled && !settings.LookupActive() {
		b.WriteString("\nFood lookup needs an API key to work.")
	}
	return strings.TrimRight(b.String(), "\n")
}

func enabled(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

func entryLine(e *domain.CarbEntry, loc *time.Location, tag language.Tag) string {
	return fmt.Sprintf("%s · %s", utils.FormatClock(e.Timestamp.In(loc)), carbs.FormatGrams(e.Value, tag))
}

// TodayText renders today's total, its status and today's entries
func TodayText(d services.Dashboard, th domain.Thresholds, loc *time.Location, tag language.Tag) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📅 Today %s\n\n", classIcons[d.Evaluation.Class])
	b.WriteString(carbs.DayTotalLine(d.Total, th, tag))
	switch d.Evaluation.Class {
	case domain.ClassWarning:
		b.WriteString("\nYou are over your limit.")
	case domain.ClassCaution:
		b.WriteString("\nYou are approaching your limit.")
	}

	if len(d.Entries) == 0 {
		b.WriteString("\n\nNo entries yet today.")
		return b.String()
	}
	b.WriteString("\n")
	for _, e := range d.Entries {
		b.WriteString("\n" + entryLine(e, loc, tag))
	}
	return b.String()
}

// HistoryText renders the most recent day groups, newest first
func HistoryText(groups []domain.DayGroup, th domain.Thresholds, loc *time.Location, tag language.Tag) string {
	if len(groups) == 0 {
		return "📜 History\n\nNo entries yet."
	}

	var b strings.Builder
	b.WriteString("📜 History")
	for i, g := range groups {
		if i == historyDays {
			fmt.Fprintf(&b, "\n\n… and %d earlier days", len(groups)-historyDays)
			break
		}
		fmt.Fprintf(&b, "\n\n*%s*  %s", utils.FormatDay(g.Day), carbs.DayTotalLine(g.Total(), th, tag))
		for _, e := range g.Entries {
			b.WriteString("\n" + entryLine(e, loc, tag))
		}
	}
	return b.String()
}

func dayTotal(d *domain.DayTotal, tag language.Tag) string {
	if d == nil {
		return "–"
	}
	return fmt.Sprintf("%s (%s)", carbs.FormatGrams(d.Total, tag), utils.FormatDay(d.Date))
}

// StatsText renders the statistics snapshot
func StatsText(st domain.Statistics, tag language.Tag) string {
	var b strings.Builder
	b.WriteString("📊 Statistics\n\n")
	fmt.Fprintf(&b, "Weekly average: %s per day\n", carbs.FormatGrams(st.WeeklyAverage, tag))
	fmt.Fprintf(&b, "This month: %s\n", carbs.FormatGrams(st.MonthlyTotal, tag))
	fmt.Fprintf(&b, "Lowest day: %s\n", dayTotal(st.LowestDay, tag))
	fmt.Fprintf(&b, "Highest day: %s\n", dayTotal(st.HighestDay, tag))

	if n := len(st.Daily); n > 0 {
		b.WriteString("\nLast days:")
		from := max(0, n-statsDays)
		for _, d := range st.Daily[from:] {
			fmt.Fprintf(&b, "\n%s  %s", d.Date.Format("Mon 02 Jan"), carbs.FormatGrams(d.Total, tag))
		}
	}

	if len(st.Weekly) > 0 {
		b.WriteString("\n\nWeekly averages:")
		for _, w := range st.Weekly {
			fmt.Fprintf(&b, "\nWeek of %s  %s", w.WeekStart.Format("02 Jan"), carbs.FormatGrams(w.Average, tag))
		}
	}
	return b.String()
}

// LookupResultsText introduces the candidate list of a search
func LookupResultsText(query string, foods []domain.FoodCandidate) string {
	if len(foods) == 0 {
		return fmt.Sprintf("🔎 No foods found for %q.", query)
	}
	return fmt.Sprintf("🔎 Results for %q. Pick a food:", query)
}

// AskAmountText asks how much of the selected food was eaten
func AskAmountText(food domain.FoodCandidate, tag language.Tag) string {
	return fmt.Sprintf("%s has %s carbs per 100g.\nHow many grams did you eat?",
		food.Name, carbs.FormatGrams(food.CarbsPer100g, tag))
}

const helpText = `Commands:
/start - Show the main menu
/today - Today's total and entries
/history - Entries grouped by day
/stats - Averages and totals
/add <grams> - Log carbs, e.g. /add 12.5
/lookup <food> - Look up carbs per 100g
/summary - How many carbs today
/settings - Limits, quick add and food lookup
/help - Show this message

You can also just send a number to log grams of carbs.`

// SendHelp sends the command overview
func SendHelp(api Sender, chatID int64) error {
	msg := tgbotapi.NewMessage(chatID, helpText)
	msg.ReplyMarkup = keyboards.BackToMain()
	_, err := api.Send(msg)
	return err
}
