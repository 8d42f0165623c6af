package medals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/studybot/internal/stats"
	"github.com/example/studybot/pkg/models"
)

func unlockedIDs(results []Result) []string {
	var ids []string
	for _, r := range Unlocked(results) {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestDefinitions_AreComplete(t *testing.T) {
	require.Len(t, Definitions, 12)
	seen := make(map[string]bool)
	for _, d := range Definitions {
		assert.NotEmpty(t, d.ID)
		assert.NotEmpty(t, d.Tier)
		assert.NotNil(t, d.Predicate)
		assert.False(t, seen[d.ID], "duplicate id %s", d.ID)
		seen[d.ID] = true
	}
}

func TestEvaluate_NothingUnlockedOnFreshPlan(t *testing.T) {
	results := Evaluate(stats.Stats{Level: 1}, models.StudyPlan{})
	assert.Empty(t, unlockedIDs(results))
}

func TestEvaluate_Predicates(t *testing.T) {
	st := stats.Stats{
		CompletedLessons: 3,
		Streak:           7,
		TotalTime:        240,
		TotalQuestions:   20,
		CorrectQuestions: 20,
		Flashcards:       100,
		Level:            100,
	}
	assert.Equal(t,
		[]string{"start", "dedica", "maratonista", "sniper", "cards", "vitalicio"},
		unlockedIDs(Evaluate(st, models.StudyPlan{})))

	st.Streak = 100
	st.CorrectQuestions = 19
	assert.Equal(t,
		[]string{"start", "dedica", "maratonista", "cards", "vitalicio", "imortal"},
		unlockedIDs(Evaluate(st, models.StudyPlan{})))
}

func TestEvaluate_PlaceholdersNeverUnlockOnTheirOwn(t *testing.T) {
	st := stats.Stats{CompletedLessons: 1000, Streak: 1000, TotalTime: 1e6, Level: 500, Flashcards: 1000}
	for _, r := range Evaluate(st, models.StudyPlan{}) {
		switch r.ID {
		case "coruja", "club5", "fenix", "enciclopedia", "fds":
			assert.False(t, r.Unlocked, r.ID)
		}
	}
}

func TestEvaluate_ForcedMedals(t *testing.T) {
	plan := models.StudyPlan{ForcedMedals: []string{"coruja", "imortal"}}
	results := Evaluate(stats.Stats{}, plan)

	assert.Equal(t, []string{"coruja", "imortal"}, unlockedIDs(results))
	for _, r := range Unlocked(results) {
		assert.True(t, r.Forced)
	}
}

func TestLookup(t *testing.T) {
	d, ok := Lookup("fds")
	require.True(t, ok)
	assert.Equal(t, Gold, d.Tier)

	_, ok = Lookup("nope")
	assert.False(t, ok)
}
