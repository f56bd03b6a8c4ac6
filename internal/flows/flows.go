// Package flows defines the three employee dialogs and their finalizers.
package flows

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/parkops/shiftbot/core/logger"
	"github.com/parkops/shiftbot/core/telegram/dialog"
	"github.com/parkops/shiftbot/core/telegram/state"
	"github.com/parkops/shiftbot/internal/places"
	"github.com/parkops/shiftbot/internal/storage"
	"github.com/shopspring/decimal"

	tele "gopkg.in/telebot.v4"
)

// Sender is the outbound bot surface finalizers need. *tele.Bot satisfies it.
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	SendAlbum(to tele.Recipient, a tele.Album, opts ...interface{}) ([]tele.Message, error)
}

// Recorder is the storage surface finalizers need.
type Recorder interface {
	DisplayName(ctx context.Context, userID int64) (string, error)
	RecordShiftSummary(ctx context.Context, userID, placeID int64, date time.Time, visitors int, revenue decimal.Decimal) error
}

// Deps wires finalizers to the bot, the storage layer and the directory.
type Deps struct {
	Sender Sender
	Store  Recorder
	Places *places.Directory
	// Now is overridable for tests; nil means time.Now.
	Now func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// All returns every flow the bot serves.
func All(d Deps) []*dialog.Flow {
	return []*dialog.Flow{
		StartShift(d),
		FinishShift(d),
		Encashment(d),
	}
}

const (
	promptPlace = "Пожалуйста, выберите свою рабочую точку из списка <b>ниже</b>"

	doneStartShift = "Данные успешно записаны!\nПередаю отчёт руководству..."
	doneReport     = "Отлично! Формирую отчёт...\nОтправляю начальству!"
)

// displayName prefers the employees table, falling back to the Telegram profile.
func displayName(ctx context.Context, d Deps, c tele.Context) string {
	user := c.Sender()
	if name, err := d.Store.DisplayName(ctx, user.ID); err == nil && name != "" {
		return name
	} else if err != nil {
		logger.Warn(ctx, "report", "display_name.lookup_failed", slog.String("err", err.Error()))
	}
	if user.LastName != "" {
		return user.FirstName + " " + user.LastName
	}
	if user.FirstName != "" {
		return user.FirstName
	}
	return user.Username
}

// sendAlbum delivers the collected photos of one field as a media group,
// captioning only the first item. No photos means nothing to send.
func sendAlbum(s Sender, to tele.Recipient, fileIDs []string, caption string) error {
	if len(fileIDs) == 0 {
		return nil
	}
	album := make(tele.Album, 0, len(fileIDs))
	for i, id := range fileIDs {
		photo := &tele.Photo{File: tele.File{FileID: id}}
		if i == 0 {
			photo.Caption = caption
		}
		album = append(album, photo)
	}
	_, err := s.SendAlbum(to, album)
	return err
}

// resolvePlace maps the collected place title to its directory row.
func resolvePlace(d Deps, s *state.Session) (storage.Place, error) {
	title := s.StringField("place")
	p, ok := d.Places.Resolve(title)
	if !ok {
		return storage.Place{}, fmt.Errorf("flows: unknown place %q", title)
	}
	return p, nil
}
