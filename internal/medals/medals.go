// Package medals evaluates achievement unlocks against plan statistics.
package medals

import (
	"github.com/example/studybot/internal/stats"
	"github.com/example/studybot/pkg/models"
)

// Tier is the presentation group of a medal
type Tier string

const (
	Bronze   Tier = "bronze"
	Silver   Tier = "silver"
	Gold     Tier = "gold"
	Platinum Tier = "platinum"
)

// Predicate decides whether a medal is earned
type Predicate func(st stats.Stats, plan models.StudyPlan) bool

// Definition is one achievement
type Definition struct {
	ID          string
	Name        string
	Description string
	Emoji       string
	Tier        Tier
	Predicate   Predicate
}

// Result is the evaluation of one definition
type Result struct {
	Definition
	Unlocked bool
	Forced   bool
}

// notTracked is used by medals whose data (time of day, weekends,
// per-subject completion, comebacks) is not recorded yet.
func notTracked(stats.Stats, models.StudyPlan) bool { return false }

// Definitions is the medal table, in display order
var Definitions = []Definition{
	{ID: "start", Name: "Primeiro Passo", Description: "Conclua sua primeira aula.", Emoji: "🦶", Tier: Bronze,
		Predicate: func(st stats.Stats, _ models.StudyPlan) bool { return st.CompletedLessons >= 1 }},
	{ID: "dedica", Name: "Dedicação", Description: "Mantenha uma ofensiva de 7 dias.", Emoji: "🔥", Tier: Bronze,
		Predicate: func(st stats.Stats, _ models.StudyPlan) bool { return st.Streak >= 7 }},
	{ID: "maratonista", Name: "Maratonista", Description: "Acumule 4 horas de estudo.", Emoji: "🏃", Tier: Silver,
		Predicate: func(st stats.Stats, _ models.StudyPlan) bool { return st.TotalTime >= 240 }},
	{ID: "sniper", Name: "Sniper", Description: "Resolva 20 questões ou mais com 100% de acerto.", Emoji: "🎯", Tier: Silver,
		Predicate: func(st stats.Stats, _ models.StudyPlan) bool {
			return st.TotalQuestions >= 20 && st.CorrectQuestions == st.TotalQuestions
		}},
	{ID: "coruja", Name: "Coruja", Description: "Estude depois da meia-noite.", Emoji: "🦉", Tier: Silver, Predicate: notTracked},
	{ID: "club5", Name: "Clube das 5", Description: "Estude antes das 5 da manhã.", Emoji: "🌅", Tier: Silver, Predicate: notTracked},
	{ID: "fenix", Name: "Fênix", Description: "Volte a estudar depois de perder a ofensiva.", Emoji: "🐦‍🔥", Tier: Gold, Predicate: notTracked},
	{ID: "enciclopedia", Name: "Enciclopédia", Description: "Conclua todas as aulas de uma matéria.", Emoji: "📚", Tier: Gold, Predicate: notTracked},
	{ID: "cards", Name: "Mestre dos Cards", Description: "Crie 100 flashcards.", Emoji: "🃏", Tier: Gold,
		Predicate: func(st stats.Stats, _ models.StudyPlan) bool { return st.Flashcards >= 100 }},
	{ID: "fds", Name: "Guerreiro FDS", Description: "Estude no sábado e no domingo.", Emoji: "⚔️", Tier: Gold, Predicate: notTracked},
	{ID: "vitalicio", Name: "Vitalício", Description: "Alcance o nível 100.", Emoji: "💎", Tier: Platinum,
		Predicate: func(st stats.Stats, _ models.StudyPlan) bool { return st.Level >= 100 }},
	{ID: "imortal", Name: "Imortal", Description: "Mantenha uma ofensiva de 100 dias.", Emoji: "♾️", Tier: Platinum,
		Predicate: func(st stats.Stats, _ models.StudyPlan) bool { return st.Streak >= 100 }},
}

// Lookup finds a definition by id
func Lookup(id string) (Definition, bool) {
	for _, d := range Definitions {
		if d.ID == id {
			return d, true
		}
	}
	return Definition{}, false
}

// Evaluate checks every medal. A medal listed in the plan's forced medals is
// unlocked whatever its predicate says.
func Evaluate(st stats.Stats, plan models.StudyPlan) []Result {
	results := make([]Result, 0, len(Definitions))
	for _, d := range Definitions {
		forced := plan.HasForcedMedal(d.ID)
		results = append(results, Result{
			Definition: d,
			Forced:     forced,
			Unlocked:   forced || d.Predicate(st, plan),
		})
	}
	return results
}

// Unlocked filters the unlocked results
func Unlocked(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if r.Unlocked {
			out = append(out, r)
		}
	}
	return out
}
