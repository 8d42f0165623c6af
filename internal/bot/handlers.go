package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/studybot/internal/excel"
	"github.com/example/studybot/internal/planner"
	"github.com/example/studybot/internal/session"
	"github.com/example/studybot/pkg/models"
)

const helpText = `📚 Study tracker commands

Plans
/plans - list your plans
/newplan <name> - create and select a plan
/useplan <n> - switch plan
/renameplan <n> <name> - rename a plan
/deleteplan <n> - delete a plan

Subjects and lessons
/list - show subjects and lessons
/subject <name> - add a subject
/fold <n> - collapse or expand a subject in /list
/delsubject <n> - delete a subject
/lesson <n> <title> [| link] - add a lesson to subject n
/dellesson <s.l> - delete a lesson
/show <s.l> - lesson details
/done <s.l> [days... | YYYY-MM-DD... | cycle | none] - check a lesson
/note <s.l> <text> - save notes
/link <s.l> <url> - set the material link
/card <s.l> <front> | <back> - add a flashcard
/delcard <s.l> <n> - delete a flashcard
/metrics <s.l> <questions> <correct> [minutes] - set lesson metrics

Timer
/timer <s.l> - start timing a lesson (again to pause)
/pause - pause or resume
/stop - stop and save the time
/pomodoro <focus> <short> <long> - set timer lengths

Progress
/stats /medals /analytics /due
/career [id] - show or change your career

Data
/export - backup as JSON
/import - restore a JSON backup or import lessons from .xlsx/.csv
/report - spreadsheet report
/deleteprofile - erase your profile`

// HandleCommand routes a command message to its handler
func (b *Bot) HandleCommand(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	p, err := b.planner(ctx, message.From)
	if err != nil {
		log.Printf("Error loading profile for chat %d: %v", chatID, err)
		b.send(chatID, "❌ Could not load your profile, please try again later.")
		return
	}

	args := strings.TrimSpace(message.CommandArguments())
	switch message.Command() {
	case "start":
		b.handleStart(chatID, message.From, p)
	case "help", "menu":
		b.sendWithKeyboard(chatID, helpText, b.MainMenuButtons())
	case "plans":
		b.handlePlans(chatID, p)
	case "newplan":
		b.handleNewPlan(ctx, chatID, p, args)
	case "useplan":
		b.handleUsePlan(ctx, chatID, p, args)
	case "renameplan":
		b.handleRenamePlan(ctx, chatID, p, args)
	case "deleteplan":
		b.handleDeletePlan(ctx, chatID, message.From.ID, p, args)
	case "list":
		b.handleList(chatID, p)
	case "subject":
		b.handleAddSubject(ctx, chatID, p, args)
	case "fold":
		b.handleFold(ctx, chatID, p, args)
	case "delsubject":
		b.handleDeleteSubject(ctx, chatID, message.From.ID, p, args)
	case "lesson":
		b.handleAddLesson(ctx, chatID, p, args)
	case "dellesson":
		b.handleDeleteLesson(ctx, chatID, message.From.ID, p, args)
	case "show":
		b.handleShow(chatID, p, args)
	case "done":
		b.handleDone(ctx, chatID, message.From.ID, p, args)
	case "note":
		b.handleNote(ctx, chatID, p, args)
	case "link":
		b.handleLink(ctx, chatID, p, args)
	case "card":
		b.handleCard(ctx, chatID, p, args)
	case "delcard":
		b.handleDeleteCard(ctx, chatID, p, args)
	case "metrics":
		b.handleMetrics(ctx, chatID, p, args)
	case "timer":
		b.handleTimer(chatID, message.From.ID, p, args)
	case "pause":
		b.handlePause(chatID, p)
	case "stop":
		b.handleStop(ctx, chatID, p)
	case "pomodoro":
		b.handlePomodoro(ctx, chatID, p, args)
	case "stats":
		b.handleStats(chatID, p)
	case "medals":
		b.send(chatID, renderMedals(p.Medals()))
	case "analytics":
		b.send(chatID, renderAnalytics(p.SubjectStats()))
	case "due":
		b.send(chatID, renderDue(p.AllDueRevisions()))
	case "career":
		b.handleCareer(ctx, chatID, message.From.ID, p, args)
	case "export":
		b.handleExport(chatID, p)
	case "import":
		b.handleImport(chatID, message.From.ID)
	case "report":
		b.handleReport(chatID, p)
	case "deleteprofile":
		b.handleDeleteProfile(ctx, chatID, message.From.ID)
	case "admin":
		if !b.config.isAdmin(message.From.ID) {
			b.send(chatID, "This command is only available for administrators.")
			return
		}
		b.handleAdmin(ctx, chatID, message.From.ID, p, args)
	default:
		b.send(chatID, "Unknown command. Use /help to see the commands.")
	}
}

// handleStart handles the /start command
func (b *Bot) handleStart(chatID int64, from *tgbotapi.User, p *planner.Planner) {
	plan := p.CurrentPlan()
	progress := p.Progress()
	text := fmt.Sprintf("Hi %s! 🎓\n\nYou are on plan %q as %s (level %d).\nUse /subject to add what you study, /lesson to add lessons and /timer to track your time.\n\n/help lists every command.",
		from.FirstName, plan.Name, progress.RankName, progress.Level)
	b.sendWithKeyboard(chatID, text, b.MainMenuButtons())
}

func (b *Bot) handlePlans(chatID int64, p *planner.Planner) {
	st := p.State()
	var buttons [][]MenuButton
	for i, plan := range st.Plans {
		if plan.ID == st.CurrentPlanID {
			continue
		}
		buttons = append(buttons, []MenuButton{{Text: fmt.Sprintf("%d. %s", i+1, plan.Name), CallbackData: "plan:" + plan.ID}})
	}
	b.sendWithKeyboard(chatID, renderPlans(st), buttons)
}

func (b *Bot) handleNewPlan(ctx context.Context, chatID int64, p *planner.Planner, args string) {
	plan, err := p.CreatePlan(ctx, args)
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	b.send(chatID, fmt.Sprintf("✅ Plan %q created and selected.", plan.Name))
}

// planAt resolves a 1-based plan number
func planAt(p *planner.Planner, raw string) (models.StudyPlan, error) {
	n, err := parseIndex(raw)
	if err != nil {
		return models.StudyPlan{}, err
	}
	st := p.State()
	if n > len(st.Plans) {
		return models.StudyPlan{}, fmt.Errorf("there is no plan %d, see /plans", n)
	}
	return st.Plans[n-1], nil
}

func (b *Bot) handleUsePlan(ctx context.Context, chatID int64, p *planner.Planner, args string) {
	plan, err := planAt(p, args)
	if err == nil {
		err = p.SwitchPlan(ctx, plan.ID)
	}
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	b.send(chatID, fmt.Sprintf("👉 Now studying %q.", plan.Name))
}

func (b *Bot) handleRenamePlan(ctx context.Context, chatID int64, p *planner.Planner, args string) {
	num, name, _ := strings.Cut(args, " ")
	plan, err := planAt(p, num)
	if err == nil {
		err = p.RenamePlan(ctx, plan.ID, name)
	}
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	b.send(chatID, fmt.Sprintf("✏️ Plan renamed to %q.", strings.TrimSpace(name)))
}

func (b *Bot) handleDeletePlan(ctx context.Context, chatID, userID int64, p *planner.Planner, args string) {
	plan, err := planAt(p, args)
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	b.runGuarded(ctx, chatID, userID, func(ctx context.Context, c planner.Confirmer) error {
		return p.DeletePlan(ctx, plan.ID, c)
	}, fmt.Sprintf("🗑 Plan %q deleted.", plan.Name))
}

func (b *Bot) handleList(chatID int64, p *planner.Planner) {
	active, _, _ := p.Session()
	b.send(chatID, renderList(p.CurrentPlan(), p.Now(), active.LessonID))
}

func (b *Bot) handleAddSubject(ctx context.Context, chatID int64, p *planner.Planner, args string) {
	s, err := p.AddSubject(ctx, args)
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	b.send(chatID, fmt.Sprintf("✅ Subject %q added as number 1. Add lessons with /lesson 1 <title>.", s.Name))
}

func (b *Bot) handleFold(ctx context.Context, chatID int64, p *planner.Planner, args string) {
	n, err := parseIndex(args)
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	s, err := resolveSubject(p.CurrentPlan(), n)
	if err == nil {
		err = p.ToggleSubject(ctx, s.ID)
	}
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	b.handleList(chatID, p)
}

func (b *Bot) handleDeleteSubject(ctx context.Context, chatID, userID int64, p *planner.Planner, args string) {
	n, err := parseIndex(args)
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	s, err := resolveSubject(p.CurrentPlan(), n)
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	b.runGuarded(ctx, chatID, userID, func(ctx context.Context, c planner.Confirmer) error {
		return p.DeleteSubject(ctx, s.ID, c)
	}, fmt.Sprintf("🗑 Subject %q deleted.", s.Name))
}

func (b *Bot) handleAddLesson(ctx context.Context, chatID int64, p *planner.Planner, args string) {
	num, rest, _ := strings.Cut(args, " ")
	n, err := parseIndex(num)
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	s, err := resolveSubject(p.CurrentPlan(), n)
	if err != nil {
		b.replyError(chatID, err)
		return
	}

	title, link, _ := strings.Cut(rest, "|")
	l, err := p.AddLesson(ctx, s.ID, title, link)
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	b.send(chatID, fmt.Sprintf("✅ Lesson %q added to %s as %d.%d.", l.Title, s.Name, n, len(s.Lessons)+1))
}

// lessonArgs splits "<s.l> rest" and resolves the lesson
func lessonArgs(p *planner.Planner, args string) (models.Subject, models.Lesson, string, error) {
	raw, rest, _ := strings.Cut(strings.TrimSpace(args), " ")
	ref, err := parseLessonRef(raw)
	if err != nil {
		return models.Subject{}, models.Lesson{}, "", err
	}
	s, l, err := resolveLesson(p.CurrentPlan(), ref)
	return s, l, strings.TrimSpace(rest), err
}

func (b *Bot) handleDeleteLesson(ctx context.Context, chatID, userID int64, p *planner.Planner, args string) {
	s, l, _, err := lessonArgs(p, args)
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	b.runGuarded(ctx, chatID, userID, func(ctx context.Context, c planner.Confirmer) error {
		return p.DeleteLesson(ctx, s.ID, l.ID, c)
	}, fmt.Sprintf("🗑 Lesson %q deleted.", l.Title))
}

func (b *Bot) handleShow(chatID int64, p *planner.Planner, args string) {
	s, l, _, err := lessonArgs(p, args)
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	b.send(chatID, renderLesson(s, l))
}

func (b *Bot) handleDone(ctx context.Context, chatID, userID int64, p *planner.Planner, args string) {
	s, l, rest, err := lessonArgs(p, args)
	if err != nil {
		b.replyError(chatID, err)
		return
	}

	prompt := &planner.Prompt{}
	outcome, err := p.ToggleLesson(ctx, s.ID, l.ID, prompt)
	switch {
	case errors.Is(err, planner.ErrNotConfirmed) && prompt.Message != "":
		b.askConfirmation(chatID, userID, prompt.Message, func(ctx context.Context) error {
			_, err := p.ToggleLesson(ctx, s.ID, l.ID, planner.AlwaysConfirm)
			return err
		}, fmt.Sprintf("↩️ %q is no longer completed.", l.Title))
		return
	case err != nil:
		b.replyError(chatID, err)
		return
	}

	switch outcome {
	case planner.OutcomeReviewed:
		plan := p.CurrentPlan()
		text := fmt.Sprintf("🔁 Revision of %q done! 🔥 %d day streak.", l.Title, plan.Streak)
		if cur, ok := plan.Lesson(s.ID, l.ID); ok {
			if t, ok := cur.RevisionTime(); ok {
				text += "\nNext revision: " + t.In(time.Local).Format("2006-01-02")
			}
		}
		b.send(chatID, text)
		return
	case planner.OutcomeUncompleted:
		b.send(chatID, fmt.Sprintf("↩️ %q is no longer completed.", l.Title))
		return
	}

	req, typed, err := parseRevisionArgs(strings.Fields(rest), time.Now())
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	if typed {
		if err := p.CompleteLesson(ctx, s.ID, l.ID, req); err != nil {
			b.replyError(chatID, err)
			return
		}
		b.send(chatID, b.completedText(p, s.ID, l.ID))
		return
	}
	b.showRevisionPicker(chatID, userID, s.ID, l)
}

func (b *Bot) completedText(p *planner.Planner, subjectID, lessonID string) string {
	plan := p.CurrentPlan()
	l, ok := plan.Lesson(subjectID, lessonID)
	if !ok {
		return "✅ Lesson completed."
	}
	text := fmt.Sprintf("✅ %q completed! 🔥 %d day streak.", l.Title, plan.Streak)
	if t, ok := l.RevisionTime(); ok {
		text += fmt.Sprintf("\nFirst revision: %s (%d more queued)", t.In(time.Local).Format("2006-01-02"), len(l.RevisionQueue))
	} else {
		text += "\nNo revision planned."
	}
	return text
}

func (b *Bot) handleNote(ctx context.Context, chatID int64, p *planner.Planner, args string) {
	s, l, rest, err := lessonArgs(p, args)
	if err == nil {
		err = p.SaveNotes(ctx, s.ID, l.ID, rest)
	}
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	b.send(chatID, "📝 Notes saved.")
}

func (b *Bot) handleLink(ctx context.Context, chatID int64, p *planner.Planner, args string) {
	s, l, rest, err := lessonArgs(p, args)
	if err == nil {
		err = p.SetMaterialLink(ctx, s.ID, l.ID, rest)
	}
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	b.send(chatID, "🔗 Material link saved.")
}

func (b *Bot) handleCard(ctx context.Context, chatID int64, p *planner.Planner, args string) {
	s, l, rest, err := lessonArgs(p, args)
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	front, back, found := strings.Cut(rest, "|")
	if !found {
		b.send(chatID, "Use /card <s.l> <front> | <back>")
		return
	}
	if _, err := p.AddFlashcard(ctx, s.ID, l.ID, front, back); err != nil {
		b.replyError(chatID, err)
		return
	}
	b.send(chatID, fmt.Sprintf("🃏 Flashcard added to %q.", l.Title))
}

func (b *Bot) handleDeleteCard(ctx context.Context, chatID int64, p *planner.Planner, args string) {
	s, l, rest, err := lessonArgs(p, args)
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	n, err := parseIndex(rest)
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	if n > len(l.Flashcards) {
		b.replyError(chatID, planner.ErrFlashcardMissing)
		return
	}
	if err := p.DeleteFlashcard(ctx, s.ID, l.ID, l.Flashcards[n-1].ID); err != nil {
		b.replyError(chatID, err)
		return
	}
	b.send(chatID, "🗑 Flashcard deleted.")
}

func (b *Bot) handleMetrics(ctx context.Context, chatID int64, p *planner.Planner, args string) {
	s, l, rest, err := lessonArgs(p, args)
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	m, err := parseMetrics(strings.Fields(rest), l.Metrics)
	if err == nil {
		err = p.UpdateMetrics(ctx, s.ID, l.ID, m)
	}
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	b.send(chatID, fmt.Sprintf("📈 %q: %d/%d questions, %s studied.", l.Title, m.QuestionsCorrect, m.QuestionsTotal, formatMinutes(m.StudyTime)))
}

// parseMetrics reads "<questions> <correct> [minutes]". Minutes default to
// the current study time of the lesson.
func parseMetrics(fields []string, current *models.LessonMetrics) (models.LessonMetrics, error) {
	if len(fields) < 2 || len(fields) > 3 {
		return models.LessonMetrics{}, fmt.Errorf("use /metrics <s.l> <questions> <correct> [minutes]")
	}
	var m models.LessonMetrics
	if current != nil {
		m = *current
	}
	total, err := strconv.Atoi(fields[0])
	if err != nil {
		return models.LessonMetrics{}, fmt.Errorf("%q is not a number", fields[0])
	}
	correct, err := strconv.Atoi(fields[1])
	if err != nil {
		return models.LessonMetrics{}, fmt.Errorf("%q is not a number", fields[1])
	}
	m.QuestionsTotal, m.QuestionsCorrect = total, correct
	if len(fields) == 3 {
		minutes, err := strconv.ParseFloat(strings.ReplaceAll(fields[2], ",", "."), 64)
		if err != nil {
			return models.LessonMetrics{}, fmt.Errorf("%q is not a number of minutes", fields[2])
		}
		m.StudyTime = minutes
	}
	return m, planner.ValidateMetrics(m)
}

func (b *Bot) handleTimer(chatID, userID int64, p *planner.Planner, args string) {
	if args == "" {
		active, state, elapsed := p.Session()
		b.send(chatID, renderTimer(active, state, elapsed))
		return
	}
	s, l, _, err := lessonArgs(p, args)
	if err != nil {
		b.replyError(chatID, err)
		return
	}

	b.watchTimer(userID, p)
	tr, err := p.StartSession(s.ID, l.ID)
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	if tr.Discarded != nil {
		b.send(chatID, fmt.Sprintf("⚠️ The timer of %q was discarded (%s not saved).", tr.Discarded.Title, formatElapsed(tr.DiscardedElapsed)))
	}
	if tr.Toggled {
		b.send(chatID, fmt.Sprintf("Timer %s.", tr.State))
		return
	}

	active, state, elapsed := p.Session()
	sent, err := b.sendWithKeyboard(chatID, renderTimer(active, state, elapsed), timerButtons())
	if err != nil {
		return
	}
	b.mu.Lock()
	b.timers[userID] = &timerMessage{chatID: chatID, messageID: sent.MessageID, lastText: renderTimer(active, state, elapsed), lastState: state, lastEdit: time.Now()}
	b.mu.Unlock()
}

func timerButtons() [][]MenuButton {
	return [][]MenuButton{{
		{Text: "⏯ Pause/Resume", CallbackData: "timer:toggle"},
		{Text: "⏹ Stop & save", CallbackData: "timer:stop"},
	}}
}

// watchTimer subscribes once per profile to session refreshes
func (b *Bot) watchTimer(userID int64, p *planner.Planner) {
	b.mu.Lock()
	if b.watched[p.UserID()] {
		b.mu.Unlock()
		return
	}
	b.watched[p.UserID()] = true
	b.mu.Unlock()

	p.WatchSession(func(s models.ActiveSession, state session.State, elapsed time.Duration) {
		b.refreshTimer(userID, s, state, elapsed)
	})
}

// refreshTimer edits the timer message. Ticks are throttled to the
// configured edit interval; transitions are always shown.
func (b *Bot) refreshTimer(userID int64, s models.ActiveSession, state session.State, elapsed time.Duration) {
	b.mu.Lock()
	tm, ok := b.timers[userID]
	if !ok {
		b.mu.Unlock()
		return
	}
	text := renderTimer(s, state, elapsed)
	if text == tm.lastText || (state == tm.lastState && time.Since(tm.lastEdit) < b.config.TimerEditInterval) {
		b.mu.Unlock()
		return
	}
	tm.lastText = text
	tm.lastState = state
	tm.lastEdit = time.Now()
	chatID, messageID := tm.chatID, tm.messageID
	if state == session.Idle {
		delete(b.timers, userID)
	}
	b.mu.Unlock()

	if state == session.Idle {
		b.editText(chatID, messageID, text)
		return
	}
	b.editWithKeyboard(chatID, messageID, text, timerButtons())
}

func (b *Bot) handlePause(chatID int64, p *planner.Planner) {
	state, err := p.ToggleSession()
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	if state == session.Paused {
		b.send(chatID, "⏸ Timer paused.")
		return
	}
	b.send(chatID, "▶️ Timer resumed.")
}

func (b *Bot) handleStop(ctx context.Context, chatID int64, p *planner.Planner) {
	res, err := p.StopSession(ctx)
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	if !(res.Minutes > 0) {
		b.send(chatID, "⏹ Timer stopped, no time to save.")
		return
	}
	b.send(chatID, fmt.Sprintf("💾 %s saved on %q. Level %d.", formatElapsed(res.Elapsed), res.Title, p.Progress().Level))
}

func (b *Bot) handlePomodoro(ctx context.Context, chatID int64, p *planner.Planner, args string) {
	fields := strings.Fields(args)
	if len(fields) != 3 {
		ts := p.CurrentPlan().TimerSettings
		b.send(chatID, fmt.Sprintf("🍅 Focus %d min, short break %d min, long break %d min.\nUse /pomodoro <focus> <short> <long> to change.", ts.Focus, ts.Short, ts.Long))
		return
	}
	var values [3]int
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			b.send(chatID, fmt.Sprintf("❌ %q is not a number of minutes.", f))
			return
		}
		values[i] = n
	}
	ts := models.TimerSettings{Focus: values[0], Short: values[1], Long: values[2]}
	if err := p.UpdateTimerSettings(ctx, ts); err != nil {
		b.replyError(chatID, err)
		return
	}
	b.send(chatID, "🍅 Timer settings saved.")
}

func (b *Bot) handleStats(chatID int64, p *planner.Planner) {
	plan := p.CurrentPlan()
	b.send(chatID, renderStats(p.Progress(), p.Stats(), plan.Streak, plan.Inventory.Ice))
}

func (b *Bot) handleCareer(ctx context.Context, chatID, userID int64, p *planner.Planner, args string) {
	if args == "" {
		b.send(chatID, renderCareers(b.careers.All(), p.Progress().Career.ID))
		return
	}
	careerID := strings.ToLower(args)
	if err := p.SetCareer(ctx, careerID); err != nil {
		b.replyError(chatID, err)
		return
	}
	if err := b.users.UpdateCareer(ctx, profileID(userID), careerID); err != nil {
		log.Printf("Error saving career of user %d: %v", userID, err)
	}
	progress := p.Progress()
	b.send(chatID, fmt.Sprintf("🎖 Career set to %s. Your rank: %s.", progress.Career.Label, progress.RankName))
}

func (b *Bot) handleExport(chatID int64, p *planner.Planner) {
	data, err := p.Export()
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	name := fmt.Sprintf("study-backup-%s.json", time.Now().Format("2006-01-02"))
	b.sendDocument(chatID, name, data, "💾 Backup of all your plans. Send it back with /import to restore.")
}

func (b *Bot) handleImport(chatID, userID int64) {
	b.mu.Lock()
	b.userStates[userID] = UserState{State: stateAwaitingImport, Timestamp: time.Now()}
	b.mu.Unlock()
	b.send(chatID, "📎 Send the file now:\n• a .json backup from /export replaces all your plans\n• an .xlsx or .csv with columns subject, lesson, link adds lessons to the current plan")
}

func (b *Bot) handleReport(chatID int64, p *planner.Planner) {
	var buf bytes.Buffer
	if err := excel.ExportReport(p.State(), &buf); err != nil {
		b.replyError(chatID, err)
		return
	}
	name := fmt.Sprintf("study-report-%s.xlsx", time.Now().Format("2006-01-02"))
	b.sendDocument(chatID, name, buf.Bytes(), "📊 Your study report.")
}

func (b *Bot) handleDeleteProfile(ctx context.Context, chatID, userID int64) {
	id := profileID(userID)
	b.askConfirmation(chatID, userID, "Delete your profile and every plan permanently?", func(ctx context.Context) error {
		if err := b.users.Delete(ctx, id); err != nil {
			return err
		}
		if b.states != nil {
			if err := b.states.DeletePlanState(ctx, id); err != nil {
				return err
			}
		}
		b.mu.Lock()
		delete(b.watched, id)
		delete(b.timers, userID)
		b.mu.Unlock()
		b.registry.Forget(id)
		log.Printf("Deleted profile of user %s", id)
		return nil
	}, "👋 Profile deleted. Send /start to begin again.")
}
