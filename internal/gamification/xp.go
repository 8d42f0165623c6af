package gamification

import (
	"math"

	"github.com/example/studybot/pkg/models"
)

// XP weights per unit of study
const (
	XPPerMinute          = 1
	XPPerQuestion        = 20
	XPPerCorrectQuestion = 30
)

// Tier is the index into a career's rank table
type Tier int

const (
	TierNovice Tier = iota
	TierApprentice
	TierScholar
	TierSpecialist
	TierMaster
	TierLegend
)

// Minimum level of each tier
var tierLevels = [...]int{
	TierLegend:     100,
	TierMaster:     75,
	TierSpecialist: 50,
	TierScholar:    21,
	TierApprentice: 6,
	TierNovice:     1,
}

var tierColors = [...]string{
	TierNovice:     "gray",
	TierApprentice: "amber",
	TierScholar:    "blue",
	TierSpecialist: "purple",
	TierMaster:     "yellow",
	TierLegend:     "cyan",
}

// Color is the presentation color of the tier
func (t Tier) Color() string {
	if t < TierNovice || t > TierLegend {
		return tierColors[TierNovice]
	}
	return tierColors[t]
}

// Progress is the derived XP state of a plan
type Progress struct {
	ComputedXP     int
	BonusXP        int
	XP             int
	Level          int
	Tier           Tier
	RankName       string
	Color          string
	Career         Career
	ProgressToNext int
}

// ComputedXP sums the study-derived experience of every lesson, floored
func ComputedXP(plan models.StudyPlan) int {
	var total float64
	for _, l := range plan.Lessons() {
		if l.Metrics == nil {
			continue
		}
		total += l.Metrics.StudyTime*XPPerMinute +
			float64(l.Metrics.QuestionsTotal*XPPerQuestion) +
			float64(l.Metrics.QuestionsCorrect*XPPerCorrectQuestion)
	}
	return int(math.Floor(total))
}

// TotalXP is the computed experience plus the manual bonus
func TotalXP(plan models.StudyPlan) int {
	return ComputedXP(plan) + plan.BonusXP
}

// Level maps experience to a level on a quadratic curve:
// floor(sqrt(xp)/5) + 1. Negative experience counts as zero.
func Level(xp int) int {
	if xp <= 0 {
		return 1
	}
	return int(math.Floor(math.Sqrt(float64(xp))/5)) + 1
}

// ProgressToNext approximates the percentage towards the next level.
// It is floor((sqrt(xp) mod 5) * 20) and only meant for progress bars.
func ProgressToNext(xp int) int {
	if xp <= 0 {
		return 0
	}
	return int(math.Floor(math.Mod(math.Sqrt(float64(xp)), 5) * 20))
}

// TierForLevel picks the rank tier for a level
func TierForLevel(level int) Tier {
	for t := TierLegend; t > TierNovice; t-- {
		if level >= tierLevels[t] {
			return t
		}
	}
	return TierNovice
}

// Evaluate derives the XP, level and rank of a plan
func Evaluate(plan models.StudyPlan, careers *Careers) Progress {
	if careers == nil {
		careers = DefaultCareers()
	}
	computed := ComputedXP(plan)
	xp := computed + plan.BonusXP
	level := Level(xp)
	tier := TierForLevel(level)
	career := careers.Lookup(plan.CareerID)

	return Progress{
		ComputedXP:     computed,
		BonusXP:        plan.BonusXP,
		XP:             xp,
		Level:          level,
		Tier:           tier,
		RankName:       career.Ranks[tier],
		Color:          tier.Color(),
		Career:         career,
		ProgressToNext: ProgressToNext(xp),
	}
}
