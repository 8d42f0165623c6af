package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/studybot/internal/planner"
	"github.com/example/studybot/internal/revision"
	"github.com/example/studybot/pkg/models"
)

// HandleCallback handles inline keyboard presses
func (b *Bot) HandleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		log.Printf("Error answering callback %s: %v", query.ID, err)
	}
	if query.Message == nil || query.From == nil {
		return
	}

	chatID := query.Message.Chat.ID
	messageID := query.Message.MessageID
	userID := query.From.ID
	kind, arg, _ := strings.Cut(query.Data, ":")

	switch kind {
	case "confirm":
		b.resolvePending(ctx, chatID, messageID, userID, arg, true)
		return
	case "cancel":
		b.resolvePending(ctx, chatID, messageID, userID, arg, false)
		return
	}

	p, err := b.planner(ctx, query.From)
	if err != nil {
		log.Printf("Error loading profile for callback of user %d: %v", userID, err)
		b.send(chatID, "❌ Could not load your profile, please try again later.")
		return
	}

	switch kind {
	case "plan":
		if err := p.SwitchPlan(ctx, arg); err != nil {
			b.replyError(chatID, err)
			return
		}
		b.editText(chatID, messageID, renderPlans(p.State()))
	case "rev":
		b.handleRevisionPick(ctx, chatID, messageID, userID, p, arg)
	case "timer":
		switch arg {
		case "toggle":
			if _, err := p.ToggleSession(); err != nil {
				b.replyError(chatID, err)
			}
		case "stop":
			b.handleStop(ctx, chatID, p)
		}
	case "menu":
		switch arg {
		case "list":
			b.handleList(chatID, p)
		case "due":
			b.send(chatID, renderDue(p.AllDueRevisions()))
		case "stats":
			b.handleStats(chatID, p)
		case "medals":
			b.send(chatID, renderMedals(p.Medals()))
		case "plans":
			b.handlePlans(chatID, p)
		}
	default:
		log.Printf("Unknown callback data %q from user %d", query.Data, userID)
	}
}

// runGuarded runs a destructive planner action. When the planner asks for
// confirmation the action is parked and the user is asked Yes/No.
func (b *Bot) runGuarded(ctx context.Context, chatID, userID int64, action func(ctx context.Context, c planner.Confirmer) error, done string) {
	prompt := &planner.Prompt{}
	err := action(ctx, prompt)
	switch {
	case errors.Is(err, planner.ErrNotConfirmed) && prompt.Message != "":
		b.askConfirmation(chatID, userID, prompt.Message, func(ctx context.Context) error {
			return action(ctx, planner.AlwaysConfirm)
		}, done)
	case err != nil:
		b.replyError(chatID, err)
	default:
		b.send(chatID, done)
	}
}

// askConfirmation parks run until the user presses Yes or No
func (b *Bot) askConfirmation(chatID, userID int64, question string, run func(ctx context.Context) error, done string) {
	b.mu.Lock()
	b.nextID++
	id := strconv.Itoa(b.nextID)
	b.expirePendingLocked(time.Now())
	b.pending[id] = pendingAction{userID: userID, createdAt: time.Now(), run: run, done: done}
	b.mu.Unlock()

	buttons := [][]MenuButton{{
		{Text: "✅ Yes", CallbackData: "confirm:" + id},
		{Text: "✖️ No", CallbackData: "cancel:" + id},
	}}
	b.sendWithKeyboard(chatID, "⚠️ "+question, buttons)
}

func (b *Bot) expirePendingLocked(now time.Time) {
	for id, pa := range b.pending {
		if now.Sub(pa.createdAt) > b.config.ConfirmTTL {
			delete(b.pending, id)
		}
	}
}

func (b *Bot) resolvePending(ctx context.Context, chatID int64, messageID int, userID int64, id string, accept bool) {
	b.mu.Lock()
	pa, ok := b.pending[id]
	if ok && pa.userID == userID {
		delete(b.pending, id)
	}
	b.mu.Unlock()

	switch {
	case !ok || time.Since(pa.createdAt) > b.config.ConfirmTTL:
		b.editText(chatID, messageID, "⌛ This question has expired, please run the command again.")
		return
	case pa.userID != userID:
		return
	case !accept:
		b.editText(chatID, messageID, "Cancelled.")
		return
	}

	if err := pa.run(ctx); err != nil {
		log.Printf("Error running confirmed action for user %d: %v", userID, err)
		b.editText(chatID, messageID, "❌ "+errorText(err))
		return
	}
	b.editText(chatID, messageID, pa.done)
}

// showRevisionPicker asks which preset days to schedule revisions on
func (b *Bot) showRevisionPicker(chatID, userID int64, subjectID string, l models.Lesson) {
	picker := &revisionPicker{subjectID: subjectID, lessonID: l.ID, title: l.Title, selected: map[int]bool{}}
	b.mu.Lock()
	b.pickers[userID] = picker
	b.mu.Unlock()
	b.sendWithKeyboard(chatID, renderRevisionPicker(l.Title, picker.selected), pickerButtons(picker.selected))
}

func pickerButtons(selected map[int]bool) [][]MenuButton {
	var rows [][]MenuButton
	var row []MenuButton
	for _, d := range revision.Presets {
		text := fmt.Sprintf("%dd", d)
		if selected[d] {
			text = "✔️ " + text
		}
		row = append(row, MenuButton{Text: text, CallbackData: fmt.Sprintf("rev:%d", d)})
		if len(row) == 4 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return append(rows, []MenuButton{
		{Text: "🔄 1/7/30", CallbackData: "rev:cycle"},
		{Text: "🚫 No revision", CallbackData: "rev:none"},
		{Text: "💾 Save", CallbackData: "rev:save"},
	})
}

func (b *Bot) handleRevisionPick(ctx context.Context, chatID int64, messageID int, userID int64, p *planner.Planner, arg string) {
	b.mu.Lock()
	picker, ok := b.pickers[userID]
	if !ok {
		b.mu.Unlock()
		b.editText(chatID, messageID, "⌛ This selection has expired, use /done again.")
		return
	}

	var req revision.Request
	finish := false
	switch arg {
	case "cycle":
		for _, d := range revision.Cycle {
			picker.selected[d] = true
		}
	case "none":
		finish = true
	case "save":
		for d, on := range picker.selected {
			if on {
				req.Offsets = append(req.Offsets, d)
			}
		}
		sort.Ints(req.Offsets)
		finish = true
	default:
		d, err := strconv.Atoi(arg)
		if err != nil {
			b.mu.Unlock()
			return
		}
		picker.selected[d] = !picker.selected[d]
	}
	if finish {
		delete(b.pickers, userID)
	}
	selected := make(map[int]bool, len(picker.selected))
	for d, on := range picker.selected {
		selected[d] = on
	}
	subjectID, lessonID, title := picker.subjectID, picker.lessonID, picker.title
	b.mu.Unlock()

	if !finish {
		b.editWithKeyboard(chatID, messageID, renderRevisionPicker(title, selected), pickerButtons(selected))
		return
	}
	if err := p.CompleteLesson(ctx, subjectID, lessonID, req); err != nil {
		b.editText(chatID, messageID, "❌ "+errorText(err))
		return
	}
	b.editText(chatID, messageID, b.completedText(p, subjectID, lessonID))
}
