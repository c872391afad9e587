package handlers

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/vladimiradmaev/carbclarity/internal/bot/keyboards"
	"github.com/vladimiradmaev/carbclarity/internal/bot/state"
	"github.com/vladimiradmaev/carbclarity/internal/domain"
	"github.com/vladimiradmaev/carbclarity/internal/interfaces"
	"github.com/vladimiradmaev/carbclarity/internal/repository"
	"github.com/vladimiradmaev/carbclarity/internal/services"
)

const userID int64 = 1001

// fakeSender records everything the handlers send instead of calling Telegram
type fakeSender struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) messages() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.MessageConfig
	for _, c := range f.sent {
		if msg, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, msg)
		}
	}
	return out
}

func (f *fakeSender) last(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	msgs := f.messages()
	require.NotEmpty(t, msgs)
	return msgs[len(msgs)-1]
}

func (f *fakeSender) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = nil
	f.requests = nil
}

type stubFoods struct{}

func (stubFoods) Search(ctx context.Context, query string) ([]domain.FoodCandidate, error) {
	return []domain.FoodCandidate{
		{ID: 1, Name: "Apple, raw", CarbsPer100g: 14},
		{ID: 2, Name: "Apple juice", CarbsPer100g: 0, StillLoadingDetail: true},
	}, nil
}

func (stubFoods) Detail(ctx context.Context, id int) (float64, bool, error) {
	return 11.3, true, nil
}

type harness struct {
	handler *UpdateHandler
	sender  *fakeSender
	store   *repository.MemoryStore
	users   *services.UserService
	states  *state.Manager
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWithServerKey(t, "")
}

func newHarnessWithServerKey(t *testing.T, serverKey string) *harness {
	t.Helper()
	store := repository.NewMemoryStore()
	users := services.NewUserService(store, nil, serverKey)
	calendar := services.DefaultCalendar(time.UTC)

	entries := func(owner int64) *services.EntryService {
		return services.NewEntryService(owner, store.Entries(owner), nil, calendar)
	}
	sessions := services.NewLookupSessions(func(owner int64) *services.LookupSession {
		return services.NewLookupSession(services.LookupConfig{
			Owner:         owner,
			Entries:       entries(owner),
			Settings:      store.Settings(owner),
			NewLookup:     func(string) domain.FoodLookup { return stubFoods{} },
			DefaultAPIKey: serverKey,
		})
	})

	deps := Dependencies{
		UserService: users,
		Entries:     func(owner int64) interfaces.EntryServiceInterface { return entries(owner) },
		Lookups:     func(owner int64) interfaces.LookupSessionInterface { return sessions.Get(owner) },
		Location:    time.UTC,
		Language:    language.English,
	}

	sender := &fakeSender{}
	states := state.NewManager()
	return &harness{
		handler: NewUpdateHandler(sender, deps, states),
		sender:  sender,
		store:   store,
		users:   users,
		states:  states,
	}
}

func (h *harness) text(t *testing.T, text string) {
	t.Helper()
	update := tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 10,
		From:      &tgbotapi.User{ID: userID, FirstName: "Test"},
		Chat:      &tgbotapi.Chat{ID: userID},
		Text:      text,
	}}
	if strings.HasPrefix(text, "/") {
		cmd := strings.SplitN(text, " ", 2)[0]
		update.Message.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}}
	}
	require.NoError(t, h.handler.Handle(context.Background(), update))
}

func (h *harness) press(t *testing.T, data string) {
	t.Helper()
	update := tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: userID},
		Message: &tgbotapi.Message{MessageID: 5, Chat: &tgbotapi.Chat{ID: userID}},
		Data:    data,
	}}
	require.NoError(t, h.handler.Handle(context.Background(), update))
}

func (h *harness) entries(t *testing.T) []*domain.CarbEntry {
	t.Helper()
	entries, err := h.store.Entries(userID).ListAll(context.Background())
	require.NoError(t, err)
	return entries
}

func buttonData(markup interface{}) []string {
	keyboard, ok := markup.(tgbotapi.InlineKeyboardMarkup)
	if !ok {
		return nil
	}
	var data []string
	for _, row := range keyboard.InlineKeyboard {
		for _, b := range row {
			if b.CallbackData != nil {
				data = append(data, *b.CallbackData)
			}
		}
	}
	return data
}

func TestStartShowsMainMenu(t *testing.T) {
	h := newHarness(t)
	h.states.SetUserState(userID, state.WaitingForAmount)

	h.text(t, "/start")

	msg := h.sender.last(t)
	assert.Equal(t, userID, msg.ChatID)
	assert.Contains(t, msg.Text, "CarbClarity")
	assert.Equal(t, "Markdown", msg.ParseMode)
	assert.Contains(t, buttonData(msg.ReplyMarkup), keyboards.Add)
	assert.Equal(t, state.None, h.states.GetUserState(userID))
}

func TestNumericTextLogsEntry(t *testing.T) {
	h := newHarness(t)

	h.text(t, "12,5")

	msg := h.sender.last(t)
	assert.Equal(t, "✅ Logged 12.5 grams of carbs\nTotal: 12.5g", msg.Text)
	entries := h.entries(t)
	require.Len(t, entries, 1)
	assert.Equal(t, 12.5, entries[0].Value)
}

func TestAddCommand(t *testing.T) {
	h := newHarness(t)

	h.text(t, "/add lots")
	assert.Equal(t, "Please enter a positive number of grams, e.g. 12.5", h.sender.last(t).Text)
	assert.Empty(t, h.entries(t))

	h.text(t, "/add -3")
	assert.Empty(t, h.entries(t))

	h.text(t, "/add")
	assert.Equal(t, state.WaitingForAmount, h.states.GetUserState(userID))

	h.text(t, "4g")
	assert.Equal(t, state.None, h.states.GetUserState(userID))
	entries := h.entries(t)
	require.Len(t, entries, 1)
	assert.Equal(t, 4.0, entries[0].Value)
}

func TestQuickAddButton(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.users.ToggleQuickAdd(ctx, userID)
	require.NoError(t, err)

	h.text(t, "/start")
	assert.Contains(t, buttonData(h.sender.last(t).ReplyMarkup), keyboards.QuickAddData(0.5))

	h.press(t, keyboards.QuickAddData(6))
	require.NotEmpty(t, h.sender.requests, "callbacks are answered")
	_, answered := h.sender.requests[len(h.sender.requests)-1].(tgbotapi.CallbackConfig)
	assert.True(t, answered)

	entries := h.entries(t)
	require.Len(t, entries, 1)
	assert.Equal(t, 6.0, entries[0].Value)

	h.press(t, keyboards.PrefixQuickAdd+"7")
	assert.Len(t, h.entries(t), 1, "only presets are accepted")
}

func TestDeleteButton(t *testing.T) {
	h := newHarness(t)

	h.text(t, "5")
	entries := h.entries(t)
	require.Len(t, entries, 1)
	id := entries[0].ID

	h.text(t, "/today")
	assert.Contains(t, buttonData(h.sender.last(t).ReplyMarkup), keyboards.PrefixDelete+id)

	h.sender.reset()
	h.press(t, keyboards.PrefixDelete+id)
	msgs := h.sender.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "🗑 Entry deleted.", msgs[0].Text)
	assert.Contains(t, msgs[1].Text, "No entries yet today.")
	assert.Empty(t, h.entries(t))

	h.press(t, keyboards.PrefixDelete+id)
	assert.Equal(t, "That entry no longer exists.", h.sender.last(t).Text)
}

func TestSummaryCommand(t *testing.T) {
	h := newHarness(t)

	h.text(t, "/summary")
	assert.Equal(t, "You haven't logged any carbs today.", h.sender.last(t).Text)

	h.text(t, "22")
	h.text(t, "/summary")
	assert.Equal(t, "Today you've consumed 22 grams of carbs from 1 entry. You're 2 grams over your limit.", h.sender.last(t).Text)
}

func TestEnablingLookupNeedsKey(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.press(t, keyboards.ToggleLookup)
	assert.Contains(t, h.sender.last(t).Text, services.USDAKeySignupURL)

	settings, err := h.users.Settings(ctx, userID)
	require.NoError(t, err)
	assert.False(t, settings.LookupEnabled)

	h.text(t, "/lookup apple")
	assert.Contains(t, h.sender.last(t).Text, "Food lookup is turned off")
}

func TestAPIKeyEntry(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.press(t, keyboards.EditAPIKey)
	assert.Equal(t, state.WaitingForLookupAPIKey, h.states.GetUserState(userID))

	h.sender.reset()
	h.text(t, "  my-key ")

	var deleted bool
	for _, r := range h.sender.requests {
		if _, ok := r.(tgbotapi.DeleteMessageConfig); ok {
			deleted = true
		}
	}
	assert.True(t, deleted, "the key message is removed from the chat")
	assert.Equal(t, "🔑 API key saved.", h.sender.messages()[0].Text)

	settings, err := h.users.Settings(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "my-key", settings.LookupAPIKey)
	assert.Equal(t, state.None, h.states.GetUserState(userID))

	h.press(t, keyboards.ToggleLookup)
	settings, err = h.users.Settings(ctx, userID)
	require.NoError(t, err)
	assert.True(t, settings.LookupActive())
}

func TestLookupWithServerKey(t *testing.T) {
	h := newHarnessWithServerKey(t, "server-key")
	ctx := context.Background()

	h.press(t, keyboards.ToggleLookup)
	settings, err := h.users.Settings(ctx, userID)
	require.NoError(t, err)
	assert.True(t, settings.LookupEnabled)
	assert.Empty(t, settings.LookupAPIKey)
	assert.True(t, settings.LookupActive())

	h.text(t, "/start")
	assert.Contains(t, buttonData(h.sender.last(t).ReplyMarkup), keyboards.Lookup)

	h.press(t, keyboards.Lookup)
	h.text(t, "apple")
	assert.Equal(t, `🔎 Results for "apple". Pick a food:`, h.sender.last(t).Text)
}

func TestLookupFlow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.users.SetLookupAPIKey(ctx, userID, "key")
	require.NoError(t, err)
	_, err = h.users.SetLookupEnabled(ctx, userID, true)
	require.NoError(t, err)

	h.press(t, keyboards.Lookup)
	assert.Equal(t, state.WaitingForLookupQuery, h.states.GetUserState(userID))

	h.text(t, "apple")
	msg := h.sender.last(t)
	assert.Equal(t, `🔎 Results for "apple". Pick a food:`, msg.Text)
	data := buttonData(msg.ReplyMarkup)
	assert.Contains(t, data, keyboards.PrefixPick+"1")
	assert.Contains(t, data, keyboards.PrefixPick+"2")

	keyboard := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	assert.Equal(t, "Apple juice · 11.3g/100g", keyboard.InlineKeyboard[1][0].Text, "details are loaded before the list is shown")

	h.press(t, keyboards.PrefixPick+"1")
	assert.Equal(t, "Apple, raw has 14g carbs per 100g.\nHow many grams did you eat?", h.sender.last(t).Text)
	assert.Equal(t, state.WaitingForLookupAmount, h.states.GetUserState(userID))

	h.text(t, "nope")
	assert.Equal(t, "Please enter how many grams you ate, e.g. 150", h.sender.last(t).Text)

	h.text(t, "200")
	assert.Equal(t, "✅ Logged 28 grams of carbs\nTotal: 28g ⚠️", h.sender.last(t).Text)
	entries := h.entries(t)
	require.Len(t, entries, 1)
	assert.Equal(t, 28.0, entries[0].Value)
	assert.Equal(t, state.None, h.states.GetUserState(userID))
}

func TestWarnLimitEntry(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.press(t, keyboards.EditWarnLimit)
	assert.Equal(t, state.WaitingForWarnLimit, h.states.GetUserState(userID))

	h.text(t, "abc")
	assert.Equal(t, "Please enter the limit in grams, e.g. 20", h.sender.last(t).Text)

	h.sender.reset()
	h.text(t, "30.555")
	msgs := h.sender.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "✅ Limit set to 30.56g", msgs[0].Text)
	assert.Contains(t, msgs[1].Text, "Warn limit: 30.56g (on)")

	settings, err := h.users.Settings(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 30.56, settings.Thresholds.WarnLimit)
}

func TestUnknownInput(t *testing.T) {
	h := newHarness(t)

	h.text(t, "/frobnicate")
	assert.Equal(t, "Unknown command. Use /help to see the available commands.", h.sender.last(t).Text)

	h.text(t, "hello")
	assert.Equal(t, "Send a number of grams to log carbs, or use the menu.", h.sender.last(t).Text)

	h.press(t, "no-such-button")
	assert.Equal(t, "This button is no longer available.", h.sender.last(t).Text)
}
