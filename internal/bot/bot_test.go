package bot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/studybot/internal/planner"
	"github.com/example/studybot/pkg/models"
)

type sentMessage struct {
	chatID   int64
	text     string
	keyboard *tgbotapi.InlineKeyboardMarkup
	edit     bool
	document bool
}

type fakeAPI struct {
	mu      sync.Mutex
	sent    []sentMessage
	fileURL string
	nextID  int
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++

	var m sentMessage
	switch v := c.(type) {
	case tgbotapi.MessageConfig:
		m = sentMessage{chatID: v.ChatID, text: v.Text}
		if kb, ok := v.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup); ok {
			m.keyboard = &kb
		}
	case tgbotapi.EditMessageTextConfig:
		m = sentMessage{chatID: v.ChatID, text: v.Text, edit: true, keyboard: v.ReplyMarkup}
	case tgbotapi.DocumentConfig:
		m = sentMessage{chatID: v.ChatID, text: v.Caption, document: true}
	}
	f.sent = append(f.sent, m)
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeAPI) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetFileDirectURL(string) (string, error) {
	return f.fileURL, nil
}

func (f *fakeAPI) last(t *testing.T) sentMessage {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent)
	return f.sent[len(f.sent)-1]
}

type memUsers struct {
	mu    sync.Mutex
	users map[string]models.UserProfile
}

func (m *memUsers) GetByID(_ context.Context, id string) (*models.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *memUsers) GetAll(context.Context) ([]models.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.UserProfile
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

func (m *memUsers) Create(_ context.Context, u *models.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = *u
	return nil
}

func (m *memUsers) UpdateCareer(_ context.Context, id, careerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.users[id]
	u.CareerID = careerID
	m.users[id] = u
	return nil
}

func (m *memUsers) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
	return nil
}

type memStates struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memStates) LoadPlanState(_ context.Context, userID string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[userID], nil
}

func (m *memStates) SavePlanState(_ context.Context, userID string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[userID] = data
	return nil
}

func (m *memStates) DeletePlanState(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, userID)
	return nil
}

const testUser = int64(42)

func newTestBot(t *testing.T) (*Bot, *fakeAPI, *memUsers) {
	t.Helper()
	api := &fakeAPI{}
	users := &memUsers{users: make(map[string]models.UserProfile)}
	states := &memStates{data: make(map[string][]byte)}
	registry := planner.NewRegistry(states, planner.Options{RefreshInterval: time.Hour})
	t.Cleanup(registry.Close)

	cfg := DefaultConfig()
	cfg.AdminUserIDs = []int64{7}
	b := newBot(api, Options{Registry: registry, Users: users, States: states, Config: cfg})
	return b, api, users
}

func command(userID int64, text string) *tgbotapi.Message {
	name, _, _ := strings.Cut(text, " ")
	return &tgbotapi.Message{
		Text:     text,
		Chat:     &tgbotapi.Chat{ID: userID},
		From:     &tgbotapi.User{ID: userID, FirstName: "Ana"},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name)}},
	}
}

func callback(userID int64, data string) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: userID, FirstName: "Ana"},
		Message: &tgbotapi.Message{MessageID: 99, Chat: &tgbotapi.Chat{ID: userID}},
		Data:    data,
	}
}

// lastButton returns the callback data of the first button whose text
// contains label
func lastButton(t *testing.T, m sentMessage, label string) string {
	t.Helper()
	require.NotNil(t, m.keyboard)
	for _, row := range m.keyboard.InlineKeyboard {
		for _, btn := range row {
			if strings.Contains(btn.Text, label) && btn.CallbackData != nil {
				return *btn.CallbackData
			}
		}
	}
	t.Fatalf("no button %q in %q", label, m.text)
	return ""
}

func (b *Bot) testPlanner(t *testing.T) *planner.Planner {
	t.Helper()
	p, err := b.planner(context.Background(), &tgbotapi.User{ID: testUser, FirstName: "Ana"})
	require.NoError(t, err)
	return p
}

func TestStartCreatesProfile(t *testing.T) {
	b, api, users := newTestBot(t)
	b.HandleCommand(context.Background(), command(testUser, "/start"))

	u, err := users.GetByID(context.Background(), "42")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "Ana", u.Name)
	assert.Equal(t, "fiscal", u.CareerID)
	assert.Contains(t, api.last(t).text, models.DefaultPlanName)
}

func TestSubjectLessonAndList(t *testing.T) {
	b, api, _ := newTestBot(t)
	ctx := context.Background()

	b.HandleCommand(ctx, command(testUser, "/subject Português"))
	b.HandleCommand(ctx, command(testUser, "/lesson 1 Crase | https://example.com/crase"))
	assert.Contains(t, api.last(t).text, "1.1")

	b.HandleCommand(ctx, command(testUser, "/list"))
	list := api.last(t).text
	assert.Contains(t, list, "Português (0/1)")
	assert.Contains(t, list, "⬜ 1.1 Crase")

	l := b.testPlanner(t).CurrentPlan().Subjects[0].Lessons[0]
	assert.Equal(t, "https://example.com/crase", l.MaterialLink)

	b.HandleCommand(ctx, command(testUser, "/lesson 3 Nope"))
	assert.Contains(t, api.last(t).text, "❌ There is no subject 3")
}

func TestDoneWithOffsetsThenUncheckWithConfirmation(t *testing.T) {
	b, api, _ := newTestBot(t)
	ctx := context.Background()
	b.HandleCommand(ctx, command(testUser, "/subject Direito"))
	b.HandleCommand(ctx, command(testUser, "/lesson 1 Princípios"))

	b.HandleCommand(ctx, command(testUser, "/done 1.1 7 30"))
	assert.Contains(t, api.last(t).text, "First revision")
	l := b.testPlanner(t).CurrentPlan().Subjects[0].Lessons[0]
	assert.True(t, l.Completed)
	assert.Len(t, l.RevisionQueue, 1)

	b.HandleCommand(ctx, command(testUser, "/done 1.1"))
	question := api.last(t)
	assert.Contains(t, question.text, "Uncheck this lesson?")

	b.HandleCallback(ctx, callback(testUser, lastButton(t, question, "Yes")))
	assert.True(t, api.last(t).edit)
	l = b.testPlanner(t).CurrentPlan().Subjects[0].Lessons[0]
	assert.False(t, l.Completed)
	assert.Nil(t, l.RevisionDate)
}

func TestConfirmationIgnoresOtherUsers(t *testing.T) {
	b, api, _ := newTestBot(t)
	ctx := context.Background()
	b.HandleCommand(ctx, command(testUser, "/newplan Extra"))
	b.HandleCommand(ctx, command(testUser, "/deleteplan 2"))
	question := api.last(t)
	yes := lastButton(t, question, "Yes")

	b.HandleCallback(ctx, callback(7, yes))
	assert.Len(t, b.testPlanner(t).State().Plans, 2)

	b.HandleCallback(ctx, callback(testUser, yes))
	assert.Len(t, b.testPlanner(t).State().Plans, 1)
	assert.Contains(t, api.last(t).text, "deleted")

	b.HandleCallback(ctx, callback(testUser, yes))
	assert.Contains(t, api.last(t).text, "expired")
}

func TestRevisionPicker(t *testing.T) {
	b, api, _ := newTestBot(t)
	ctx := context.Background()
	b.HandleCommand(ctx, command(testUser, "/subject Física"))
	b.HandleCommand(ctx, command(testUser, "/lesson 1 Cinemática"))

	b.HandleCommand(ctx, command(testUser, "/done 1.1"))
	picker := api.last(t)
	assert.Contains(t, picker.text, "When do you want to revise it?")

	b.HandleCallback(ctx, callback(testUser, "rev:cycle"))
	assert.Contains(t, api.last(t).text, "Selected: 1, 7, 30 days")
	b.HandleCallback(ctx, callback(testUser, "rev:30"))
	assert.Contains(t, api.last(t).text, "Selected: 1, 7 days")
	b.HandleCallback(ctx, callback(testUser, "rev:save"))

	l := b.testPlanner(t).CurrentPlan().Subjects[0].Lessons[0]
	assert.True(t, l.Completed)
	require.NotNil(t, l.RevisionDate)
	assert.Len(t, l.RevisionQueue, 1)

	b.HandleCallback(ctx, callback(testUser, "rev:save"))
	assert.Contains(t, api.last(t).text, "expired")
}

func TestLastPlanCannotBeDeleted(t *testing.T) {
	b, api, _ := newTestBot(t)
	b.HandleCommand(context.Background(), command(testUser, "/deleteplan 1"))
	assert.Equal(t, "❌ At least one plan must remain", api.last(t).text)
}

func TestAdminRequiresAdminUser(t *testing.T) {
	b, api, _ := newTestBot(t)
	ctx := context.Background()

	b.HandleCommand(ctx, command(testUser, "/admin bonus 100"))
	assert.Contains(t, api.last(t).text, "only available for administrators")

	b.HandleCommand(ctx, command(7, "/admin bonus 100"))
	assert.Contains(t, api.last(t).text, "bonus set to 100")

	b.HandleCommand(ctx, command(7, "/admin medals start,unknown"))
	assert.Contains(t, api.last(t).text, "Unknown medal")
}

func TestMetricsValidation(t *testing.T) {
	b, api, _ := newTestBot(t)
	ctx := context.Background()
	b.HandleCommand(ctx, command(testUser, "/subject Química"))
	b.HandleCommand(ctx, command(testUser, "/lesson 1 Soluções"))

	b.HandleCommand(ctx, command(testUser, "/metrics 1.1 10 12"))
	assert.Contains(t, api.last(t).text, "❌")

	b.HandleCommand(ctx, command(testUser, "/metrics 1.1 10 8 45,5"))
	m := b.testPlanner(t).CurrentPlan().Subjects[0].Lessons[0].Metrics
	require.NotNil(t, m)
	assert.Equal(t, 10, m.QuestionsTotal)
	assert.Equal(t, 8, m.QuestionsCorrect)
	assert.InDelta(t, 45.5, m.StudyTime, 0.001)
}

func TestImportBackupDocument(t *testing.T) {
	b, api, _ := newTestBot(t)
	ctx := context.Background()

	backup := `{"plans":[{"id":"p9","name":"Restored","subjects":[]}],"currentPlanId":"p9"}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(backup))
	}))
	defer srv.Close()
	api.fileURL = srv.URL

	doc := &tgbotapi.Message{
		Chat:     &tgbotapi.Chat{ID: testUser},
		From:     &tgbotapi.User{ID: testUser, FirstName: "Ana"},
		Document: &tgbotapi.Document{FileID: "f1", FileName: "backup.json", FileSize: len(backup)},
	}

	b.handleDocument(ctx, doc)
	assert.Contains(t, api.last(t).text, "send /import first")

	b.HandleCommand(ctx, command(testUser, "/import"))
	b.handleDocument(ctx, doc)
	question := api.last(t)
	assert.Contains(t, question.text, "replaces all your plans")

	b.HandleCallback(ctx, callback(testUser, lastButton(t, question, "Yes")))
	assert.Equal(t, "✅ Backup restored.", api.last(t).text)
	assert.Equal(t, "Restored", b.testPlanner(t).CurrentPlan().Name)
}

func TestExportSendsDocument(t *testing.T) {
	b, api, _ := newTestBot(t)
	b.HandleCommand(context.Background(), command(testUser, "/export"))
	assert.True(t, api.last(t).document)
}

func TestDeleteProfile(t *testing.T) {
	b, api, users := newTestBot(t)
	ctx := context.Background()
	b.HandleCommand(ctx, command(testUser, "/deleteprofile"))
	b.HandleCallback(ctx, callback(testUser, lastButton(t, api.last(t), "Yes")))

	u, err := users.GetByID(ctx, "42")
	require.NoError(t, err)
	assert.Nil(t, u)
	assert.Contains(t, api.last(t).text, "Profile deleted")
}
