package dialog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/parkops/shiftbot/core/logger"
	"github.com/parkops/shiftbot/core/telegram/callbacks"
	"github.com/parkops/shiftbot/core/telegram/helpers"
	"github.com/parkops/shiftbot/core/telegram/keyboard"
	"github.com/parkops/shiftbot/core/telegram/state"

	tele "gopkg.in/telebot.v4"
)

// Callback uniques the engine owns. Register each of them to HandleCallback.
const (
	UniquePlace  = "place"
	UniqueYes    = "yes"
	UniqueNo     = "no"
	UniqueAgree  = "agree"
	UniqueCancel = "cancel"
)

// Uniques lists every callback unique served by the engine.
func Uniques() []string {
	return []string{UniquePlace, UniqueYes, UniqueNo, UniqueAgree, UniqueCancel}
}

const (
	cancelButtonText = "❌ Отмена"
	cancelPlainText  = "Отмена"

	textMenu         = "Вы вернулись в главное меню"
	textDialogActive = "Сначала завершите текущий диалог или отмените его кнопкой «Отмена»."
	textFailed       = "Упс... что-то пошло не так, сообщите руководству!"
	textStaleButton  = "Кнопка больше не активна"
)

var choiceLabels = map[string]string{
	UniqueYes:   "Да",
	UniqueNo:    "Нет",
	UniqueAgree: "Согласен",
}

// albumCap bounds photo accumulation per field (Telegram album size).
const albumCap = 10

// Options configures an Engine.
type Options struct {
	Store state.Manager
	Flows []*Flow
	// PlaceTitles supplies the location picker buttons in display order.
	PlaceTitles func() []string
	// AdminID receives finalization failure notices. Zero disables them.
	AdminID int64
}

// Engine runs declarative dialog flows over per-user sessions.
// Inbound updates are routed by (session stage, input shape); input that
// does not match the stage leaves the session untouched and re-prompts,
// so retries are harmless.
type Engine struct {
	store       state.Manager
	flows       map[string]*Flow
	placeTitles func() []string
	adminID     int64

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// New validates every flow table and builds the engine.
func New(opts Options) (*Engine, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("dialog: session store is required")
	}
	flows := make(map[string]*Flow, len(opts.Flows))
	for _, f := range opts.Flows {
		if err := f.Validate(); err != nil {
			return nil, err
		}
		if _, dup := flows[f.Name]; dup {
			return nil, fmt.Errorf("dialog: duplicate flow %s", f.Name)
		}
		flows[f.Name] = f
	}
	titles := opts.PlaceTitles
	if titles == nil {
		titles = func() []string { return nil }
	}
	return &Engine{
		store:       opts.Store,
		flows:       flows,
		placeTitles: titles,
		adminID:     opts.AdminID,
		locks:       make(map[int64]*sync.Mutex),
	}, nil
}

// userLock serializes updates per user so album bursts cannot race the session.
func (e *Engine) userLock(userID int64) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[userID] = l
	}
	return l
}

// InProgress reports whether the user has an active dialog.
func (e *Engine) InProgress(userID int64) bool {
	return e.store.InProgress(context.Background(), userID)
}

// Start begins the named flow for the sender. An already active dialog
// is refused and left untouched.
func (e *Engine) Start(c tele.Context, flowName string) error {
	flow, ok := e.flows[flowName]
	if !ok {
		return fmt.Errorf("dialog: unknown flow %s", flowName)
	}
	userID := c.Sender().ID
	l := e.userLock(userID)
	l.Lock()
	defer l.Unlock()

	ctx := helpers.BuildContext(c)
	s, err := e.store.Begin(ctx, userID, flow.Name, flow.Start)
	if err != nil {
		if errors.Is(err, state.ErrDialogActive) {
			return helpers.SendHTML(c, textDialogActive)
		}
		return fmt.Errorf("dialog: begin %s: %w", flow.Name, err)
	}
	logger.Info(ctx, "dialog", "flow.start",
		slog.String("flow", flow.Name),
		slog.String("stage", s.Stage),
	)
	first, _ := flow.StageByID(flow.Start)
	return e.prompt(c, first)
}

// HandleMessage consumes a text or photo update inside an active dialog.
func (e *Engine) HandleMessage(c tele.Context) error {
	userID := c.Sender().ID
	l := e.userLock(userID)
	l.Lock()
	defer l.Unlock()

	ctx := helpers.BuildContext(c)
	s, flow, st, err := e.current(ctx, c, userID)
	if err != nil || s == nil {
		return err
	}

	msg := c.Message()
	if msg == nil {
		return nil
	}
	if msg.Photo != nil {
		return e.handlePhoto(ctx, c, userID, s, flow, st, msg)
	}

	text := msg.Text
	if text == cancelButtonText || text == cancelPlainText {
		return e.cancel(ctx, c, userID, flow, false)
	}

	switch st.Expect {
	case ExpectText:
		v, err := CleanText(text)
		if err != nil {
			return e.warn(c, st)
		}
		s.SetField(st.Field, v)
	case ExpectDigits:
		n, err := ParseDigits(text)
		if err != nil {
			return e.warn(c, st)
		}
		s.SetField(st.Field, n)
	case ExpectMoney:
		amount, err := NormalizeMoney(text)
		if err != nil {
			return e.warn(c, st)
		}
		s.SetField(st.Field, amount.String())
	case ExpectDate:
		t, ok := helpers.ParseFlexibleDate(text)
		if !ok {
			return e.warn(c, st)
		}
		s.SetField(st.Field, t.Format("02/01/2006"))
	default:
		return e.warn(c, st)
	}
	s.ForgetAlbum()
	return e.advance(ctx, c, userID, s, flow, st, "")
}

// HandleCallback consumes an inline keyboard press inside an active dialog.
func (e *Engine) HandleCallback(c tele.Context) error {
	userID := c.Sender().ID
	l := e.userLock(userID)
	l.Lock()
	defer l.Unlock()

	ctx := helpers.BuildContext(c)
	key := callbacks.CallbackKey(c)
	payload := callbacks.CallbackPayload(c)

	s, flow, st, err := e.current(ctx, c, userID)
	if err != nil {
		return err
	}
	if s == nil {
		return c.Respond(&tele.CallbackResponse{Text: textStaleButton})
	}

	if key == UniqueCancel {
		return e.cancel(ctx, c, userID, flow, true)
	}

	if st.Expect != ExpectChoice {
		return c.Respond(&tele.CallbackResponse{Text: textStaleButton})
	}

	value := key
	label := choiceLabels[key]
	if key == UniquePlace {
		value = payload
		label = payload
	}
	if !e.validOption(st, key, value) {
		return c.Respond(&tele.CallbackResponse{Text: textStaleButton})
	}

	if st.Field != "" {
		s.SetField(st.Field, value)
	}
	s.ForgetAlbum()

	// Freeze the answered question: rewrite the prompt with the chosen
	// label so the buttons disappear and the choice stays visible.
	if err := helpers.EditHTML(c, st.Prompt+"\n\n➢ "+label); err != nil {
		logger.Warn(ctx, "dialog", "ack.edit_failed",
			slog.String("flow", flow.Name),
			slog.String("stage", st.ID),
			slog.String("err", err.Error()),
		)
	}
	if err := c.Respond(); err != nil {
		logger.Warn(ctx, "dialog", "callback.answer_failed", slog.String("err", err.Error()))
	}
	return e.advance(ctx, c, userID, s, flow, st, value)
}

func (e *Engine) validOption(st Stage, key, value string) bool {
	if st.Keyboard == KeyboardPlaces {
		if key != UniquePlace {
			return false
		}
		if len(st.Options) == 0 {
			return ValidChoice(e.placeTitles(), value)
		}
		return ValidChoice(st.Options, value)
	}
	return ValidChoice(st.Options, value)
}

func (e *Engine) handlePhoto(ctx context.Context, c tele.Context, userID int64, s *state.Session, flow *Flow, st Stage, msg *tele.Message) error {
	fileID := msg.Photo.FileID

	if st.Expect == ExpectPhoto {
		limit := st.MaxPhotos
		if limit <= 0 {
			limit = albumCap
		}
		s.AppendPhoto(st.Field, fileID, limit)
		s.RememberAlbum(st.Field, msg.AlbumID)
		return e.advance(ctx, c, userID, s, flow, st, "")
	}

	// Remaining photos of the album that answered the previous stage
	// keep arriving after the first one advanced the dialog.
	if s.AlbumID != "" && msg.AlbumID == s.AlbumID {
		if s.AppendPhoto(s.AlbumField, fileID, albumCap) {
			if err := e.store.Save(ctx, userID, s); err != nil {
				return fmt.Errorf("dialog: save album photo: %w", err)
			}
		}
		return nil
	}
	return e.warn(c, st)
}

// current loads the sender's session and resolves its flow and stage.
// A session pointing at an unknown flow or stage is dropped.
func (e *Engine) current(ctx context.Context, c tele.Context, userID int64) (*state.Session, *Flow, Stage, error) {
	s, err := e.store.Get(ctx, userID)
	if err != nil {
		return nil, nil, Stage{}, fmt.Errorf("dialog: load session: %w", err)
	}
	if !s.Active() {
		return nil, nil, Stage{}, nil
	}
	flow, ok := e.flows[s.Flow]
	if !ok {
		return nil, nil, Stage{}, e.drop(ctx, c, userID, "unknown flow "+s.Flow)
	}
	st, ok := flow.StageByID(s.Stage)
	if !ok {
		return nil, nil, Stage{}, e.drop(ctx, c, userID, "unknown stage "+s.Stage)
	}
	return s, flow, st, nil
}

func (e *Engine) drop(ctx context.Context, c tele.Context, userID int64, reason string) error {
	logger.Error(ctx, "dialog", "session.dropped", slog.String("reason", reason))
	if err := e.store.Clear(ctx, userID); err != nil {
		logger.Error(ctx, "dialog", "session.clear_failed", slog.String("err", err.Error()))
	}
	return helpers.SendText(c, textMenu, &tele.SendOptions{ReplyMarkup: keyboard.RemoveKeyboard()})
}

func (e *Engine) cancel(ctx context.Context, c tele.Context, userID int64, flow *Flow, viaCallback bool) error {
	if err := e.store.Clear(ctx, userID); err != nil {
		return fmt.Errorf("dialog: clear session: %w", err)
	}
	flowName := ""
	if flow != nil {
		flowName = flow.Name
	}
	logger.Info(ctx, "dialog", "flow.cancel", slog.String("flow", flowName))
	if viaCallback {
		if err := helpers.EditHTML(c, textMenu); err != nil {
			logger.Warn(ctx, "dialog", "ack.edit_failed", slog.String("err", err.Error()))
		}
		return c.Respond()
	}
	return helpers.SendText(c, textMenu, &tele.SendOptions{ReplyMarkup: keyboard.RemoveKeyboard()})
}

// advance moves the session past st, finalizing the flow on a terminal
// transition. value selects the branch on NextFor stages.
func (e *Engine) advance(ctx context.Context, c tele.Context, userID int64, s *state.Session, flow *Flow, st Stage, value string) error {
	next := st.Next
	if branch, ok := st.NextFor[value]; ok {
		next = branch
	}

	if next == Terminal {
		return e.finalize(ctx, c, userID, s, flow)
	}

	s.Stage = next
	if err := e.store.Save(ctx, userID, s); err != nil {
		return fmt.Errorf("dialog: save session: %w", err)
	}
	logger.Debug(ctx, "dialog", "stage.advance",
		slog.String("flow", flow.Name),
		slog.String("stage", next),
	)
	nextStage, _ := flow.StageByID(next)
	return e.prompt(c, nextStage)
}

// finalize runs the flow finalizer exactly once and clears the session
// no matter how delivery went. A second attempt would resend reports.
func (e *Engine) finalize(ctx context.Context, c tele.Context, userID int64, s *state.Session, flow *Flow) error {
	finErr := flow.Finalize(ctx, c, s)

	if err := e.store.Clear(ctx, userID); err != nil {
		logger.Error(ctx, "dialog", "session.clear_failed",
			slog.String("flow", flow.Name),
			slog.String("err", err.Error()),
		)
	}

	if finErr != nil {
		logger.Error(ctx, "dialog", "flow.finalize_failed",
			slog.String("flow", flow.Name),
			slog.String("err", finErr.Error()),
		)
		e.notifyAdmin(ctx, c, fmt.Sprintf("%s:\n%v\nUser_id: %d", flow.ErrorTag, finErr, userID))
		if err := helpers.SendText(c, textFailed, &tele.SendOptions{ReplyMarkup: keyboard.RemoveKeyboard()}); err != nil {
			return err
		}
		return helpers.SendText(c, textMenu)
	}

	logger.Info(ctx, "dialog", "flow.done", slog.String("flow", flow.Name))
	if err := helpers.SendText(c, flow.DoneText, &tele.SendOptions{ReplyMarkup: keyboard.RemoveKeyboard()}); err != nil {
		return err
	}
	return helpers.SendText(c, textMenu)
}

func (e *Engine) notifyAdmin(ctx context.Context, c tele.Context, text string) {
	if e.adminID == 0 {
		return
	}
	if _, err := c.Bot().Send(tele.ChatID(e.adminID), text); err != nil {
		logger.Error(ctx, "dialog", "admin.notify_failed", slog.String("err", err.Error()))
	}
}

// prompt sends the stage question with its keyboard.
func (e *Engine) prompt(c tele.Context, st Stage) error {
	return helpers.SendHTML(c, st.Prompt, e.markupFor(st))
}

func (e *Engine) warn(c tele.Context, st Stage) error {
	text := st.Warn
	if text == "" {
		text = st.Prompt
	}
	return helpers.SendHTML(c, text)
}

func (e *Engine) markupFor(st Stage) *tele.ReplyMarkup {
	switch st.Keyboard {
	case KeyboardPlaces:
		titles := e.placeTitles()
		btns := make([]keyboard.InlineBtn, 0, len(titles))
		for _, title := range titles {
			btns = append(btns, keyboard.InlineBtn{Text: title, Unique: UniquePlace, Data: title})
		}
		markup := keyboard.InlineButtonsNPerRow(btns, 2)
		appendCancelRow(markup)
		return markup
	case KeyboardYesNo:
		markup := keyboard.InlineButtonsRows([]keyboard.InlineBtn{
			{Text: choiceLabels[UniqueYes], Unique: UniqueYes},
			{Text: choiceLabels[UniqueNo], Unique: UniqueNo},
		})
		appendCancelRow(markup)
		return markup
	case KeyboardAgree:
		markup := keyboard.InlineButtons([]keyboard.InlineBtn{
			{Text: choiceLabels[UniqueAgree], Unique: UniqueAgree},
		})
		appendCancelRow(markup)
		return markup
	default:
		return keyboard.ReplyButtons([]string{cancelButtonText})
	}
}

func appendCancelRow(markup *tele.ReplyMarkup) {
	btn := keyboard.CancelButton(markup, UniqueCancel)
	markup.InlineKeyboard = append(markup.InlineKeyboard, []tele.InlineButton{*btn.Inline()})
}
