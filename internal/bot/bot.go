package bot

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/studybot/internal/gamification"
	"github.com/example/studybot/internal/planner"
	"github.com/example/studybot/internal/scheduler"
	"github.com/example/studybot/internal/session"
	"github.com/example/studybot/pkg/models"
)

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// telegramAPI is the part of tgbotapi.BotAPI the bot talks to
type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// UserStore persists study profiles
type UserStore interface {
	GetByID(ctx context.Context, id string) (*models.UserProfile, error)
	GetAll(ctx context.Context) ([]models.UserProfile, error)
	Create(ctx context.Context, user *models.UserProfile) error
	UpdateCareer(ctx context.Context, id, careerID string) error
	Delete(ctx context.Context, id string) error
}

// StateDeleter removes the stored plans of a profile
type StateDeleter interface {
	DeletePlanState(ctx context.Context, userID string) error
}

// Options wire the bot to the rest of the application
type Options struct {
	Registry *planner.Registry
	Users    UserStore
	// States is called on profile deletion when plans live outside the
	// users database.
	States  StateDeleter
	Careers *gamification.Careers
	Config  *Config
}

// UserState represents the current state of a user in conversation with the bot
type UserState struct {
	State     string
	Timestamp time.Time
}

const stateAwaitingImport = "waiting_for_import_file"

// pendingAction is a destructive action waiting for a Yes/No answer
type pendingAction struct {
	userID    int64
	createdAt time.Time
	run       func(ctx context.Context) error
	done      string
}

// revisionPicker is the preset selection shown after checking a lesson
type revisionPicker struct {
	subjectID string
	lessonID  string
	title     string
	selected  map[int]bool
}

// timerMessage is the chat message showing a running session
type timerMessage struct {
	chatID    int64
	messageID int
	lastText  string
	lastState session.State
	lastEdit  time.Time
}

// Bot represents the Telegram bot application
type Bot struct {
	api        telegramAPI
	botAPI     *tgbotapi.BotAPI
	registry   *planner.Registry
	users      UserStore
	states     StateDeleter
	careers    *gamification.Careers
	config     *Config
	scheduler  *scheduler.Scheduler
	httpClient *http.Client

	mu         sync.Mutex
	userStates map[int64]UserState
	pending    map[string]pendingAction
	pickers    map[int64]*revisionPicker
	timers     map[int64]*timerMessage
	watched    map[string]bool
	nextID     int
}

// New creates a new bot instance authorized with token
func New(token string, opts Options) (*Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable is not set")
	}
	botAPI, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("unable to create bot: %v", err)
	}
	log.Printf("Authorized on account %s", botAPI.Self.UserName)

	b := newBot(botAPI, opts)
	b.botAPI = botAPI
	return b, nil
}

func newBot(api telegramAPI, opts Options) *Bot {
	if opts.Config == nil {
		opts.Config = DefaultConfig()
	}
	if opts.Careers == nil {
		opts.Careers = gamification.DefaultCareers()
	}
	return &Bot{
		api:        api,
		registry:   opts.Registry,
		users:      opts.Users,
		states:     opts.States,
		careers:    opts.Careers,
		config:     opts.Config,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		userStates: make(map[int64]UserState),
		pending:    make(map[string]pendingAction),
		pickers:    make(map[int64]*revisionPicker),
		timers:     make(map[int64]*timerMessage),
		watched:    make(map[string]bool),
	}
}

// SetScheduler attaches the reminder scheduler used by /admin remind
func (b *Bot) SetScheduler(s *scheduler.Scheduler) {
	b.scheduler = s
}

// Start receives updates until ctx is cancelled
func (b *Bot) Start(ctx context.Context) error {
	if b.botAPI == nil {
		return fmt.Errorf("bot is not connected to Telegram")
	}

	// Set up the update configuration
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.botAPI.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			b.botAPI.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

// Stop gracefully stops the bot
func (b *Bot) Stop() {
	b.mu.Lock()
	for userID, tm := range b.timers {
		b.editText(tm.chatID, tm.messageID, "⏹ Timer interrupted: the bot was restarted. The time was not saved.")
		delete(b.timers, userID)
	}
	b.mu.Unlock()
	log.Println("Bot stopped")
}

// SendRevisionReminder implements the scheduler.Notifier interface
func (b *Bot) SendRevisionReminder(userID string, r scheduler.Reminder) error {
	// Profiles are keyed by Telegram user id, which is also the private chat id
	chatID, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid user id %q: %v", userID, err)
	}

	msg := tgbotapi.NewMessage(chatID, renderReminder(r))
	msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Error sending reminder to user %s: %v", userID, err)
		return err
	}

	log.Printf("Successfully sent reminder to user %s for %d revisions", userID, len(r.Due))
	return nil
}

// MainMenuButtons returns the buttons for the main menu
func (b *Bot) MainMenuButtons() [][]MenuButton {
	return [][]MenuButton{
		{
			{Text: "📘 Lessons", CallbackData: "menu:list"},
			{Text: "🔁 Due", CallbackData: "menu:due"},
		},
		{
			{Text: "📊 Stats", CallbackData: "menu:stats"},
			{Text: "🏆 Medals", CallbackData: "menu:medals"},
		},
		{
			{Text: "📚 Plans", CallbackData: "menu:plans"},
		},
	}
}

// profileID converts a Telegram user id to the profile id
func profileID(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

// planner returns the planner of a Telegram user, creating the profile on
// first contact
func (b *Bot) planner(ctx context.Context, from *tgbotapi.User) (*planner.Planner, error) {
	if from == nil {
		return nil, fmt.Errorf("message has no sender")
	}

	id := profileID(from.ID)
	profile, err := b.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		name := strings.TrimSpace(from.FirstName + " " + from.LastName)
		if name == "" {
			name = from.UserName
		}
		profile = &models.UserProfile{
			ID:        id,
			Name:      name,
			CreatedAt: time.Now().UnixMilli(),
			CareerID:  b.config.DefaultCareer,
		}
		if err := b.users.Create(ctx, profile); err != nil {
			return nil, err
		}
		log.Printf("Created profile for user %s (%s)", id, name)
	}

	return b.registry.Get(ctx, *profile), nil
}

// handleUpdate handles incoming updates from Telegram
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Panic while handling update %d: %v", update.UpdateID, r)
		}
	}()

	switch {
	case update.Message != nil && update.Message.IsCommand():
		b.HandleCommand(ctx, update.Message)
	case update.Message != nil && update.Message.Document != nil:
		b.handleDocument(ctx, update.Message)
	case update.Message != nil:
		b.send(update.Message.Chat.ID, "I don't understand. Use /help to see the commands.")
	case update.CallbackQuery != nil:
		b.HandleCallback(ctx, update.CallbackQuery)
	}
}

func (b *Bot) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Error sending message to chat %d: %v", chatID, err)
	}
}

func (b *Bot) sendWithKeyboard(chatID int64, text string, buttons [][]MenuButton) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	if len(buttons) > 0 {
		msg.ReplyMarkup = createKeyboard(buttons)
	}
	sent, err := b.api.Send(msg)
	if err != nil {
		log.Printf("Error sending message to chat %d: %v", chatID, err)
	}
	return sent, err
}

func (b *Bot) editText(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	if _, err := b.api.Send(edit); err != nil {
		log.Printf("Error editing message %d in chat %d: %v", messageID, chatID, err)
	}
}

func (b *Bot) editWithKeyboard(chatID int64, messageID int, text string, buttons [][]MenuButton) {
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, createKeyboard(buttons))
	if _, err := b.api.Send(edit); err != nil {
		log.Printf("Error editing message %d in chat %d: %v", messageID, chatID, err)
	}
}

func (b *Bot) sendDocument(chatID int64, name string, data []byte, caption string) {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	doc.Caption = caption
	if _, err := b.api.Send(doc); err != nil {
		log.Printf("Error sending document to chat %d: %v", chatID, err)
		b.send(chatID, "❌ Could not send the file, please try again.")
	}
}

// replyError reports a failed action to the user
func (b *Bot) replyError(chatID int64, err error) {
	b.send(chatID, "❌ "+errorText(err))
}

func errorText(err error) string {
	text := err.Error()
	for _, prefix := range []string{"planner: ", "session: ", "revision: "} {
		text = strings.TrimPrefix(text, prefix)
	}
	if text == "" {
		return "Something went wrong"
	}
	return strings.ToUpper(text[:1]) + text[1:]
}
