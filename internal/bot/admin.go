package bot

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/example/studybot/internal/medals"
	"github.com/example/studybot/internal/planner"
)

const adminHelp = `🛠 Admin commands (current plan of your own profile)
/admin bonus <xp> - set bonus XP (may be negative)
/admin streak <days> - set the streak
/admin ice <n> - set the ice credits
/admin medals <id,id,...|none> - force medals
/admin clearrev - remove every scheduled revision
/admin users - list profiles
/admin remind [user id] - send a revision reminder now`

// handleAdmin handles the /admin command. Callers check isAdmin first.
func (b *Bot) handleAdmin(ctx context.Context, chatID, userID int64, p *planner.Planner, args string) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		b.send(chatID, adminHelp)
		return
	}

	sub, rest := strings.ToLower(fields[0]), fields[1:]
	switch sub {
	case "bonus", "streak", "ice":
		b.handleAdminNumber(ctx, chatID, userID, p, sub, rest)
	case "medals":
		b.handleAdminMedals(ctx, chatID, userID, p, rest)
	case "clearrev":
		b.askConfirmation(chatID, userID, "Remove every scheduled revision of the current plan?", p.ClearRevisions, "🧹 All revisions cleared.")
	case "users":
		b.handleAdminUsers(ctx, chatID)
	case "remind":
		b.handleAdminRemind(ctx, chatID, userID, rest)
	default:
		b.send(chatID, adminHelp)
	}
}

func (b *Bot) handleAdminNumber(ctx context.Context, chatID, userID int64, p *planner.Planner, field string, args []string) {
	if len(args) != 1 {
		b.send(chatID, fmt.Sprintf("Use /admin %s <number>", field))
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		b.send(chatID, fmt.Sprintf("❌ %q is not a number.", args[0]))
		return
	}
	if field != "bonus" && n < 0 {
		b.send(chatID, "❌ The value must not be negative.")
		return
	}

	var o planner.Overrides
	switch field {
	case "bonus":
		o.BonusXP = &n
	case "streak":
		o.Streak = &n
	case "ice":
		o.Ice = &n
	}
	if err := p.ApplyOverrides(ctx, o); err != nil {
		b.replyError(chatID, err)
		return
	}
	log.Printf("Admin %d set %s to %d", userID, field, n)
	progress := p.Progress()
	b.send(chatID, fmt.Sprintf("🛠 %s set to %d. Level %d, %d XP.", field, n, progress.Level, progress.XP))
}

func (b *Bot) handleAdminMedals(ctx context.Context, chatID, userID int64, p *planner.Planner, args []string) {
	if len(args) == 0 {
		var ids []string
		for _, d := range medals.Definitions {
			ids = append(ids, d.ID)
		}
		b.send(chatID, "Use /admin medals <id,id,...|none>\nMedals: "+strings.Join(ids, ", "))
		return
	}

	forced := []string{}
	if !strings.EqualFold(args[0], "none") {
		for _, id := range strings.Split(strings.Join(args, ","), ",") {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			if _, ok := medals.Lookup(id); !ok {
				b.send(chatID, fmt.Sprintf("❌ Unknown medal %q.", id))
				return
			}
			forced = append(forced, id)
		}
	}
	if err := p.ApplyOverrides(ctx, planner.Overrides{ForcedMedals: &forced}); err != nil {
		b.replyError(chatID, err)
		return
	}
	log.Printf("Admin %d forced medals %v", userID, forced)
	b.send(chatID, renderMedals(p.Medals()))
}

func (b *Bot) handleAdminUsers(ctx context.Context, chatID int64) {
	users, err := b.users.GetAll(ctx)
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	if len(users) == 0 {
		b.send(chatID, "No profiles yet.")
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "👥 %d profiles:\n", len(users))
	for _, u := range users {
		created := time.UnixMilli(u.CreatedAt).Format("2006-01-02")
		fmt.Fprintf(&sb, "\n• %s (%s) · %s · since %s", u.Name, u.ID, b.careers.Lookup(u.CareerID).Label, created)
	}
	b.send(chatID, sb.String())
}

func (b *Bot) handleAdminRemind(ctx context.Context, chatID, userID int64, args []string) {
	if b.scheduler == nil {
		b.send(chatID, "The reminder scheduler is disabled.")
		return
	}

	id := profileID(userID)
	if len(args) > 0 {
		id = args[0]
	}
	profile, err := b.users.GetByID(ctx, id)
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	if profile == nil {
		b.send(chatID, fmt.Sprintf("❌ No profile %s.", id))
		return
	}

	count, err := b.scheduler.RunManualCheck(ctx, *profile)
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	if count == 0 {
		b.send(chatID, fmt.Sprintf("No revisions due for %s.", profile.Name))
		return
	}
	b.send(chatID, fmt.Sprintf("⏰ Reminder sent to %s for %d revisions.", profile.Name, count))
}
