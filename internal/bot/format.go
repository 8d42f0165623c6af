package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/example/studybot/internal/clock"
	"github.com/example/studybot/internal/gamification"
	"github.com/example/studybot/internal/medals"
	"github.com/example/studybot/internal/revision"
	"github.com/example/studybot/internal/scheduler"
	"github.com/example/studybot/internal/session"
	"github.com/example/studybot/internal/stats"
	"github.com/example/studybot/internal/streak"
	"github.com/example/studybot/pkg/models"
)

// lessonRef addresses a lesson by the 1-based numbers shown in /list
type lessonRef struct {
	Subject int
	Lesson  int
}

// parseLessonRef reads "<subject>.<lesson>", e.g. "2.3"
func parseLessonRef(raw string) (lessonRef, error) {
	parts := strings.Split(strings.TrimSpace(raw), ".")
	if len(parts) != 2 {
		return lessonRef{}, fmt.Errorf("use <subject>.<lesson>, for example 1.2")
	}
	s, err := parseIndex(parts[0])
	if err != nil {
		return lessonRef{}, err
	}
	l, err := parseIndex(parts[1])
	if err != nil {
		return lessonRef{}, err
	}
	return lessonRef{Subject: s, Lesson: l}, nil
}

// parseIndex reads a 1-based list number
func parseIndex(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%q is not a list number", raw)
	}
	return n, nil
}

// resolveSubject finds the n-th subject of a plan
func resolveSubject(plan models.StudyPlan, n int) (models.Subject, error) {
	if n < 1 || n > len(plan.Subjects) {
		return models.Subject{}, fmt.Errorf("there is no subject %d, see /list", n)
	}
	return plan.Subjects[n-1], nil
}

// resolveLesson finds the lesson a ref points at
func resolveLesson(plan models.StudyPlan, ref lessonRef) (models.Subject, models.Lesson, error) {
	s, err := resolveSubject(plan, ref.Subject)
	if err != nil {
		return models.Subject{}, models.Lesson{}, err
	}
	if ref.Lesson < 1 || ref.Lesson > len(s.Lessons) {
		return models.Subject{}, models.Lesson{}, fmt.Errorf("subject %d has no lesson %d, see /list", ref.Subject, ref.Lesson)
	}
	return s, s.Lessons[ref.Lesson-1], nil
}

// parseRevisionArgs reads the revisions typed after /done: day offsets,
// YYYY-MM-DD dates from today on, "cycle" for 1/7/30 and "none" for no
// revision. "none" must be the only argument.
// ok is false when nothing was typed and the picker should be shown.
func parseRevisionArgs(args []string, now time.Time) (req revision.Request, ok bool, err error) {
	if len(args) == 0 {
		return revision.Request{}, false, nil
	}
	none := false
	for _, arg := range args {
		arg = strings.ToLower(strings.TrimSpace(arg))
		switch {
		case arg == "":
			continue
		case arg == "none":
			none = true
		case arg == "cycle":
			req = req.WithCycle()
		case strings.Contains(arg, "-"):
			d, err := revision.ParseDate(arg, now.Location())
			if err != nil {
				return revision.Request{}, false, err
			}
			if d.Before(clock.StartOfDay(now)) {
				return revision.Request{}, false, fmt.Errorf("%w: %s", revision.ErrPastDate, arg)
			}
			req.Dates = append(req.Dates, arg)
		default:
			n, convErr := strconv.Atoi(arg)
			if convErr != nil || n < 1 {
				return revision.Request{}, false, fmt.Errorf("%q is not a number of days, a date or cycle", arg)
			}
			req.Offsets = append(req.Offsets, n)
		}
	}
	if none {
		if !req.Empty() {
			return revision.Request{}, false, errors.New("\"none\" cannot be combined with other revisions")
		}
		return revision.Request{}, true, nil
	}
	return req, true, nil
}

// formatElapsed renders a stopwatch value as HH:MM:SS
func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, total/60%60, total%60)
}

// formatMinutes renders study minutes as "1h 05m" or "42m"
func formatMinutes(minutes float64) string {
	m := int(minutes)
	if m < 60 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %02dm", m/60, m%60)
}

// progressBar draws pct (0-100) in ten blocks
func progressBar(pct int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := pct / 10
	return strings.Repeat("▰", filled) + strings.Repeat("▱", 10-filled)
}

func renderTimer(s models.ActiveSession, state session.State, elapsed time.Duration) string {
	switch state {
	case session.Idle:
		return "⏹ Timer stopped."
	case session.Paused:
		return fmt.Sprintf("⏸ %s\n%s (paused)\n\n/pause to resume, /stop to save", s.Title, formatElapsed(elapsed))
	default:
		return fmt.Sprintf("⏱ %s\n%s\n\n/pause to pause, /stop to save", s.Title, formatElapsed(elapsed))
	}
}

func renderPlans(st models.PlanState) string {
	var sb strings.Builder
	sb.WriteString("📚 Your plans:\n")
	for i, p := range st.Plans {
		marker := "  "
		if p.ID == st.CurrentPlanID {
			marker = "👉"
		}
		fmt.Fprintf(&sb, "%s %d. %s (%d subjects)\n", marker, i+1, p.Name, len(p.Subjects))
	}
	sb.WriteString("\n/useplan <n> to switch, /newplan <name> to add one")
	return sb.String()
}

func renderList(plan models.StudyPlan, now time.Time, activeLessonID string) string {
	if len(plan.Subjects) == 0 {
		return fmt.Sprintf("📘 %s\n\nNo subjects yet. Add one with /subject <name>.", plan.Name)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📘 %s\n", plan.Name)
	for i, s := range plan.Subjects {
		done := 0
		for _, l := range s.Lessons {
			if l.Completed {
				done++
			}
		}
		fold := "▾"
		if !s.IsOpen {
			fold = "▸"
		}
		fmt.Fprintf(&sb, "\n%s %d. %s (%d/%d)\n", fold, i+1, s.Name, done, len(s.Lessons))
		if !s.IsOpen {
			continue
		}
		for j, l := range s.Lessons {
			fmt.Fprintf(&sb, "   %s %d.%d %s%s\n", lessonIcon(l, now), i+1, j+1, l.Title, lessonSuffix(l, activeLessonID))
		}
	}
	return sb.String()
}

func lessonIcon(l models.Lesson, now time.Time) string {
	switch {
	case l.RevisionDue(now):
		return "🔁"
	case l.Completed:
		return "✅"
	default:
		return "⬜"
	}
}

func lessonSuffix(l models.Lesson, activeLessonID string) string {
	var parts []string
	if t, ok := l.RevisionTime(); ok {
		parts = append(parts, "rev "+t.In(time.Local).Format("02/01"))
	}
	if l.Metrics != nil && l.Metrics.StudyTime > 0 {
		parts = append(parts, formatMinutes(l.Metrics.StudyTime))
	}
	if len(l.Flashcards) > 0 {
		parts = append(parts, fmt.Sprintf("%d cards", len(l.Flashcards)))
	}
	if l.ID == activeLessonID {
		parts = append(parts, "⏱")
	}
	if len(parts) == 0 {
		return ""
	}
	return " · " + strings.Join(parts, " · ")
}

func renderLesson(s models.Subject, l models.Lesson) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📖 %s / %s\n", s.Name, l.Title)
	if l.Completed {
		sb.WriteString("Completed\n")
	}
	if t, ok := l.RevisionTime(); ok {
		fmt.Fprintf(&sb, "Next revision: %s (+%d queued)\n", t.In(time.Local).Format("2006-01-02"), len(l.RevisionQueue))
	}
	if l.Metrics != nil {
		fmt.Fprintf(&sb, "Studied %s · %d/%d questions\n", formatMinutes(l.Metrics.StudyTime), l.Metrics.QuestionsCorrect, l.Metrics.QuestionsTotal)
	}
	if l.MaterialLink != "" {
		fmt.Fprintf(&sb, "Material: %s\n", l.MaterialLink)
	}
	if l.Notes != "" {
		fmt.Fprintf(&sb, "\nNotes:\n%s\n", l.Notes)
	}
	for i, c := range l.Flashcards {
		fmt.Fprintf(&sb, "\n🃏 %d. %s → %s", i+1, c.Front, c.Back)
	}
	return sb.String()
}

func renderStats(p gamification.Progress, st stats.Stats, streakDays, ice int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🏅 %s · %s\n", p.RankName, p.Career.Label)
	fmt.Fprintf(&sb, "Level %d · %d XP", p.Level, p.XP)
	if p.BonusXP != 0 {
		fmt.Fprintf(&sb, " (%+d bonus)", p.BonusXP)
	}
	fmt.Fprintf(&sb, "\n%s %d%%\n\n", progressBar(p.ProgressToNext), p.ProgressToNext)
	fmt.Fprintf(&sb, "🔥 Streak: %d days · 🧊 %d\n", streakDays, ice)
	fmt.Fprintf(&sb, "⏱ Study time: %s\n", formatMinutes(st.TotalTime))
	fmt.Fprintf(&sb, "🎯 Questions: %d/%d (%d%%)\n", st.CorrectQuestions, st.TotalQuestions, st.Accuracy())
	fmt.Fprintf(&sb, "📗 Lessons: %d/%d (%d%%)\n", st.CompletedLessons, st.TotalLessons, st.CompletionRate())
	fmt.Fprintf(&sb, "🃏 Flashcards: %d\n", st.Flashcards)
	fmt.Fprintf(&sb, "🔁 Due revisions: %d", st.DueRevisions)
	return sb.String()
}

func renderMedals(results []medals.Result) string {
	var sb strings.Builder
	unlocked := len(medals.Unlocked(results))
	fmt.Fprintf(&sb, "🏆 Medals %d/%d\n", unlocked, len(results))
	for _, r := range results {
		icon := "🔒"
		if r.Unlocked {
			icon = r.Emoji
		}
		fmt.Fprintf(&sb, "\n%s %s [%s]\n   %s", icon, r.Name, r.Tier, r.Description)
	}
	return sb.String()
}

func renderAnalytics(rows []stats.SubjectStats) string {
	if len(rows) == 0 {
		return "📊 No study recorded yet. Use /timer or /metrics on a lesson."
	}
	var sb strings.Builder
	sb.WriteString("📊 Per subject:\n")
	for _, r := range rows {
		fmt.Fprintf(&sb, "\n%s\n   ⏱ %s · 🎯 %d/%d (%d%%) · 📗 %d/%d",
			r.Name, formatMinutes(r.TotalTime), r.CorrectQuestions, r.TotalQuestions, r.Accuracy,
			r.CompletedLessons, r.Lessons)
	}
	return sb.String()
}

func renderDue(items []revision.DueItem) string {
	if len(items) == 0 {
		return "🎉 No revisions due. Nice work!"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "🔁 %d revisions due:\n", len(items))
	for _, it := range items {
		fmt.Fprintf(&sb, "\n• %s / %s (since %s)", it.SubjectName, it.Title, it.DueAt.In(time.Local).Format("02/01"))
	}
	return sb.String()
}

// renderReminder is the text of a scheduled revision reminder
func renderReminder(r scheduler.Reminder) string {
	text := "⏰ Time to revise!\n\n" + renderDue(r.Due)
	switch {
	case r.Status == streak.AtRisk && r.Streak > 0:
		text += fmt.Sprintf("\n\n🔥 Study today to keep your %d-day streak.", r.Streak)
	case r.Status == streak.Lost && r.Streak > 0:
		text += fmt.Sprintf("\n\n💔 Your %d-day streak ended. A revision today starts a new one.", r.Streak)
	}
	return text
}

func renderCareers(all []gamification.Career, current string) string {
	var sb strings.Builder
	sb.WriteString("🎖 Careers:\n")
	for _, c := range all {
		marker := "  "
		if c.ID == current {
			marker = "👉"
		}
		fmt.Fprintf(&sb, "%s %s (%s): %s → %s\n", marker, c.Label, c.ID, c.Ranks[0], c.Ranks[len(c.Ranks)-1])
	}
	sb.WriteString("\n/career <id> to change")
	return sb.String()
}

func renderRevisionPicker(title string, selected map[int]bool) string {
	var picked []string
	for _, d := range revision.Presets {
		if selected[d] {
			picked = append(picked, strconv.Itoa(d))
		}
	}
	text := fmt.Sprintf("✅ %s\n\nWhen do you want to revise it? Pick the days, then Save.", title)
	if len(picked) > 0 {
		text += "\nSelected: " + strings.Join(picked, ", ") + " days"
	}
	return text
}
