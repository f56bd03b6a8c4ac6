package dialog

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/parkops/shiftbot/core/telegram/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tele "gopkg.in/telebot.v4"
)

// fakeContext records outgoing traffic; untouched Context methods panic,
// which is exactly what a test should do if the engine starts calling them.
type fakeContext struct {
	tele.Context

	user *tele.User
	chat *tele.Chat
	msg  *tele.Message
	cb   *tele.Callback
	kv   map[string]any

	sent      []string
	edits     []string
	responded bool
}

func (f *fakeContext) Bot() tele.API         { return nil }
func (f *fakeContext) Sender() *tele.User    { return f.user }
func (f *fakeContext) Chat() *tele.Chat      { return f.chat }
func (f *fakeContext) Message() *tele.Message { return f.msg }
func (f *fakeContext) Callback() *tele.Callback { return f.cb }

func (f *fakeContext) Update() tele.Update {
	return tele.Update{ID: 1, Message: f.msg, Callback: f.cb}
}

func (f *fakeContext) Get(key string) any { return f.kv[key] }
func (f *fakeContext) Set(key string, val any) {
	if f.kv == nil {
		f.kv = map[string]any{}
	}
	f.kv[key] = val
}

func (f *fakeContext) Send(what any, _ ...any) error {
	f.sent = append(f.sent, fmt.Sprint(what))
	return nil
}

func (f *fakeContext) Edit(what any, _ ...any) error {
	f.edits = append(f.edits, fmt.Sprint(what))
	return nil
}

func (f *fakeContext) Respond(_ ...*tele.CallbackResponse) error {
	f.responded = true
	return nil
}

var testUser = &tele.User{ID: 42}

func textCtx(text string) *fakeContext {
	return &fakeContext{
		user: testUser,
		chat: &tele.Chat{ID: 42},
		msg:  &tele.Message{Text: text},
	}
}

func photoCtx(fileID, albumID string) *fakeContext {
	return &fakeContext{
		user: testUser,
		chat: &tele.Chat{ID: 42},
		msg: &tele.Message{
			AlbumID: albumID,
			Photo:   &tele.Photo{File: tele.File{FileID: fileID}},
		},
	}
}

func cbCtx(unique, payload string) *fakeContext {
	data := "\f" + unique
	if payload != "" {
		data += "|" + payload
	}
	return &fakeContext{
		user: testUser,
		chat: &tele.Chat{ID: 42},
		cb:   &tele.Callback{Unique: unique, Data: data},
	}
}

func testFlow(fin FinalizeFunc) *Flow {
	return &Flow{
		Name:     "start_shift",
		Start:    "place",
		DoneText: "Готово",
		ErrorTag: "Start shift report error",
		Stages: []Stage{
			{ID: "place", Prompt: "Выберите точку", Warn: "Нажмите на нужную кнопку", Expect: ExpectChoice, Keyboard: KeyboardPlaces, Field: "place", Next: "visitors"},
			{ID: "visitors", Prompt: "Сколько посетителей?", Warn: "Нужно целое число", Expect: ExpectDigits, Field: "visitors", Next: "photo"},
			{ID: "photo", Prompt: "Пришлите фото", Warn: "Нужно фото", Expect: ExpectPhoto, Field: "photos", MaxPhotos: 10, Next: "confirm"},
			{ID: "confirm", Prompt: "Всё верно?", Warn: "Нажмите на нужную кнопку", Expect: ExpectChoice, Keyboard: KeyboardYesNo, Field: "confirm", Options: []string{"yes", "no"}, Next: Terminal},
		},
		Finalize: fin,
	}
}

func newTestEngine(t *testing.T, fin FinalizeFunc) (*Engine, state.Manager) {
	t.Helper()
	store := state.NewMemoryManager(time.Hour)
	eng, err := New(Options{
		Store:       store,
		Flows:       []*Flow{testFlow(fin)},
		PlaceTitles: func() []string { return []string{"Внуково", "Саларис"} },
	})
	require.NoError(t, err)
	return eng, store
}

func TestEngineFullWalkthrough(t *testing.T) {
	var (
		finCalls int
		captured *state.Session
	)
	eng, store := newTestEngine(t, func(_ context.Context, _ tele.Context, s *state.Session) error {
		finCalls++
		captured = s
		return nil
	})
	ctx := context.Background()

	start := textCtx("/start_shift")
	require.NoError(t, eng.Start(start, "start_shift"))
	require.Equal(t, []string{"Выберите точку"}, start.sent)
	assert.True(t, eng.InProgress(42))

	// A second start is refused and leaves the dialog alone.
	again := textCtx("/start_shift")
	require.NoError(t, eng.Start(again, "start_shift"))
	require.Equal(t, []string{textDialogActive}, again.sent)

	pick := cbCtx("place", "Внуково")
	require.NoError(t, eng.HandleCallback(pick))
	require.Len(t, pick.edits, 1)
	assert.Contains(t, pick.edits[0], "➢ Внуково")
	assert.True(t, pick.responded)
	require.Equal(t, []string{"Сколько посетителей?"}, pick.sent)

	// Wrong input shape warns and keeps the stage, so a retry succeeds.
	bad := textCtx("много")
	require.NoError(t, eng.HandleMessage(bad))
	require.Equal(t, []string{"Нужно целое число"}, bad.sent)
	s, err := store.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "visitors", s.Stage)

	good := textCtx("120")
	require.NoError(t, eng.HandleMessage(good))
	require.Equal(t, []string{"Пришлите фото"}, good.sent)

	first := photoCtx("photo-1", "album-1")
	require.NoError(t, eng.HandleMessage(first))
	require.Equal(t, []string{"Всё верно?"}, first.sent)

	// The rest of the album lands after the stage already advanced.
	late := photoCtx("photo-2", "album-1")
	require.NoError(t, eng.HandleMessage(late))
	assert.Empty(t, late.sent)

	s, err = store.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, []string{"photo-1", "photo-2"}, s.PhotosFor("photos"))

	done := cbCtx("yes", "")
	require.NoError(t, eng.HandleCallback(done))
	require.Equal(t, 1, finCalls)
	require.NotNil(t, captured)
	assert.Equal(t, "Внуково", captured.StringField("place"))
	v, ok := captured.IntField("visitors")
	require.True(t, ok)
	assert.Equal(t, 120, v)
	assert.Equal(t, "yes", captured.StringField("confirm"))
	assert.Equal(t, []string{"Готово", textMenu}, done.sent)
	assert.False(t, eng.InProgress(42))
}

func TestEngineDateStageNormalizes(t *testing.T) {
	var captured *state.Session
	store := state.NewMemoryManager(time.Hour)
	flow := &Flow{
		Name:     "encashment",
		Start:    "date",
		DoneText: "Готово",
		Stages: []Stage{
			{ID: "date", Prompt: "Напишите дату", Warn: "Напишите дату, например 30.08.2026", Expect: ExpectDate, Field: "date", Next: Terminal},
		},
		Finalize: func(_ context.Context, _ tele.Context, s *state.Session) error {
			captured = s
			return nil
		},
	}
	eng, err := New(Options{
		Store:       store,
		Flows:       []*Flow{flow},
		PlaceTitles: func() []string { return nil },
	})
	require.NoError(t, err)

	require.NoError(t, eng.Start(textCtx("/encashment"), "encashment"))

	bad := textCtx("вчера")
	require.NoError(t, eng.HandleMessage(bad))
	require.Equal(t, []string{"Напишите дату, например 30.08.2026"}, bad.sent)

	good := textCtx("30.08.2026")
	require.NoError(t, eng.HandleMessage(good))
	require.NotNil(t, captured)
	assert.Equal(t, "30/08/2026", captured.StringField("date"))
}

func TestEngineCancelByText(t *testing.T) {
	finCalls := 0
	eng, _ := newTestEngine(t, func(context.Context, tele.Context, *state.Session) error {
		finCalls++
		return nil
	})

	require.NoError(t, eng.Start(textCtx("/start_shift"), "start_shift"))

	cancel := textCtx("❌ Отмена")
	require.NoError(t, eng.HandleMessage(cancel))
	require.Equal(t, []string{textMenu}, cancel.sent)
	assert.False(t, eng.InProgress(42))
	assert.Zero(t, finCalls)
}

func TestEngineCancelByCallback(t *testing.T) {
	finCalls := 0
	eng, _ := newTestEngine(t, func(context.Context, tele.Context, *state.Session) error {
		finCalls++
		return nil
	})

	require.NoError(t, eng.Start(textCtx("/start_shift"), "start_shift"))

	cancel := cbCtx("cancel", "cancel")
	require.NoError(t, eng.HandleCallback(cancel))
	require.Equal(t, []string{textMenu}, cancel.edits)
	assert.True(t, cancel.responded)
	assert.False(t, eng.InProgress(42))
	assert.Zero(t, finCalls)
}

func TestEngineFinalizeFailureClearsSessionAndReports(t *testing.T) {
	eng, _ := newTestEngine(t, func(context.Context, tele.Context, *state.Session) error {
		return errors.New("storage down")
	})

	require.NoError(t, eng.Start(textCtx("/start_shift"), "start_shift"))
	require.NoError(t, eng.HandleCallback(cbCtx("place", "Саларис")))
	require.NoError(t, eng.HandleMessage(textCtx("50")))
	require.NoError(t, eng.HandleMessage(photoCtx("p", "")))

	last := cbCtx("no", "")
	require.NoError(t, eng.HandleCallback(last))
	assert.Equal(t, []string{textFailed, textMenu}, last.sent)
	assert.False(t, eng.InProgress(42), "session must be cleared even when finalization fails")
}

func TestEngineIgnoresStaleCallback(t *testing.T) {
	eng, _ := newTestEngine(t, func(context.Context, tele.Context, *state.Session) error { return nil })

	stale := cbCtx("yes", "")
	require.NoError(t, eng.HandleCallback(stale))
	assert.True(t, stale.responded)
	assert.Empty(t, stale.edits)
}

func TestEngineRejectsUnknownChoice(t *testing.T) {
	eng, store := newTestEngine(t, func(context.Context, tele.Context, *state.Session) error { return nil })

	require.NoError(t, eng.Start(textCtx("/start_shift"), "start_shift"))

	bogus := cbCtx("place", "Луна")
	require.NoError(t, eng.HandleCallback(bogus))
	assert.True(t, bogus.responded)
	assert.Empty(t, bogus.edits)

	s, err := store.Get(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, "place", s.Stage)
}
