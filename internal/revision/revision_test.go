package revision

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/studybot/pkg/models"
)

var testNow = time.Date(2024, 4, 15, 16, 45, 0, 0, time.Local)

func day(offset int) int64 {
	return time.Date(2024, 4, 15+offset, 0, 0, 0, 0, time.Local).UnixMilli()
}

func TestSchedule_OrdersOffsets(t *testing.T) {
	p, err := Schedule(Request{Offsets: []int{30, 1, 7}}, testNow)
	require.NoError(t, err)

	require.NotNil(t, p.RevisionDate)
	assert.Equal(t, models.FormatRevisionDate(time.UnixMilli(day(1))), *p.RevisionDate)
	assert.Equal(t, []int64{day(7), day(30)}, p.Queue)
}

func TestSchedule_DedupesAndMergesDates(t *testing.T) {
	req := Request{
		Offsets: []int{7, 1, 7},
		Dates:   []string{"2024-04-16", "2024-05-01"},
	}
	p, err := Schedule(req, testNow)
	require.NoError(t, err)

	require.NotNil(t, p.RevisionDate)
	got, ok := models.Lesson{RevisionDate: p.RevisionDate}.RevisionTime()
	require.True(t, ok)
	assert.Equal(t, day(1), got.UnixMilli())
	assert.Equal(t, []int64{day(7), day(16)}, p.Queue)
}

func TestSchedule_Empty(t *testing.T) {
	p, err := Schedule(Request{}, testNow)
	require.NoError(t, err)
	assert.Nil(t, p.RevisionDate)
	assert.Empty(t, p.Queue)
}

func TestSchedule_InvalidDate(t *testing.T) {
	_, err := Schedule(Request{Dates: []string{"15/04/2024"}}, testNow)
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestSchedule_RejectsPastDates(t *testing.T) {
	_, err := Schedule(Request{Dates: []string{"2024-04-14"}}, testNow)
	assert.ErrorIs(t, err, ErrPastDate)

	p, err := Schedule(Request{Dates: []string{"2024-04-15"}}, testNow)
	require.NoError(t, err)
	require.NotNil(t, p.RevisionDate)
	got, ok := models.Lesson{RevisionDate: p.RevisionDate}.RevisionTime()
	require.True(t, ok)
	assert.Equal(t, day(0), got.UnixMilli())
}

func TestParseDate_KeepsCalendarDay(t *testing.T) {
	for _, loc := range []*time.Location{
		time.FixedZone("minus3", -3*3600),
		time.FixedZone("plus9", 9*3600),
		time.UTC,
	} {
		d, err := ParseDate("2024-07-01", loc)
		require.NoError(t, err)
		y, m, dd := d.In(loc).Date()
		assert.Equal(t, 2024, y)
		assert.Equal(t, time.July, m)
		assert.Equal(t, 1, dd)
		assert.Zero(t, d.In(loc).Hour())
	}
}

func TestRequest_WithCycle(t *testing.T) {
	r := Request{Offsets: []int{7, 60}}.WithCycle()
	assert.Equal(t, []int{7, 60, 1, 30}, r.Offsets)
	assert.False(t, r.Empty())
	assert.True(t, Request{}.Empty())
}

func TestConsume(t *testing.T) {
	due := models.FormatRevisionDate(time.UnixMilli(day(-1)))

	t.Run("pops sorted queue head", func(t *testing.T) {
		l := models.Lesson{ID: "l", Completed: true, RevisionDate: &due, RevisionQueue: []int64{day(30), day(7)}}
		out := Consume(l)

		assert.True(t, out.Completed)
		require.NotNil(t, out.RevisionDate)
		assert.Equal(t, models.FormatRevisionDate(time.UnixMilli(day(7))), *out.RevisionDate)
		assert.Equal(t, []int64{day(30)}, out.RevisionQueue)
		assert.Equal(t, []int64{day(30), day(7)}, l.RevisionQueue, "input must not be mutated")
	})

	t.Run("empty queue ends schedule", func(t *testing.T) {
		l := models.Lesson{ID: "l", Completed: true, RevisionDate: &due}
		out := Consume(l)

		assert.True(t, out.Completed)
		assert.Nil(t, out.RevisionDate)
		assert.Empty(t, out.RevisionQueue)
	})
}

func TestApplyAndReset(t *testing.T) {
	p, err := Schedule(Request{Offsets: []int{1, 5}}, testNow)
	require.NoError(t, err)

	l := Apply(models.Lesson{ID: "l"}, p)
	assert.True(t, l.Completed)
	assert.Equal(t, []int64{day(5)}, l.RevisionQueue)

	r := Reset(l)
	assert.False(t, r.Completed)
	assert.Nil(t, r.RevisionDate)
	assert.Empty(t, r.RevisionQueue)
	assert.True(t, l.Completed)
}

func TestDue(t *testing.T) {
	past := models.FormatRevisionDate(testNow.Add(-48 * time.Hour))
	older := models.FormatRevisionDate(testNow.Add(-72 * time.Hour))
	future := models.FormatRevisionDate(testNow.Add(24 * time.Hour))

	plan := models.StudyPlan{Subjects: []models.Subject{
		{ID: "s1", Name: "Math", Lessons: []models.Lesson{
			{ID: "a", Title: "A", Completed: true, RevisionDate: &past},
			{ID: "b", Title: "B", Completed: true, RevisionDate: &future},
			{ID: "c", Title: "C", Completed: false, RevisionDate: &older},
		}},
		{ID: "s2", Name: "Law", Lessons: []models.Lesson{
			{ID: "d", Title: "D", Completed: true, RevisionDate: &older},
		}},
	}}

	items := Due(plan, testNow)
	require.Len(t, items, 2)
	assert.Equal(t, "d", items[0].LessonID)
	assert.Equal(t, "Law", items[0].SubjectName)
	assert.Equal(t, "a", items[1].LessonID)
}
