package flows

import (
	"context"
	"fmt"

	"github.com/parkops/shiftbot/core/telegram/dialog"
	"github.com/parkops/shiftbot/core/telegram/state"
	"github.com/parkops/shiftbot/internal/report"

	tele "gopkg.in/telebot.v4"
)

// Encashment is the cash-collection dialog.
func Encashment(d Deps) *dialog.Flow {
	return &dialog.Flow{
		Name:     "encashment",
		Start:    "place",
		DoneText: doneReport,
		ErrorTag: "Encashment report error",
		Stages: []dialog.Stage{
			{
				ID:       "place",
				Prompt:   promptPlace,
				Warn:     "Выберите рабочую точку из выпадающего списка",
				Expect:   dialog.ExpectChoice,
				Keyboard: dialog.KeyboardPlaces,
				Field:    "place",
				Next:     "who",
			},
			{
				ID:     "who",
				Prompt: "Кто инкассировал?",
				Warn:   "Напишите, кто инкассировал",
				Expect: dialog.ExpectText,
				Field:  "who",
				Next:   "date",
			},
			{
				ID:     "date",
				Prompt: "Напишите дату инкассации",
				Warn:   "Напишите дату инкассации, например 30.08.2026",
				Expect: dialog.ExpectDate,
				Field:  "date",
				Next:   "summary",
			},
			{
				ID:     "summary",
				Prompt: "Напишите сумму инкассации",
				Warn:   "Напишите сумму инкассации <b>числом</b>",
				Expect: dialog.ExpectMoney,
				Field:  "summary",
				Next:   "photos",
			},
			{
				ID:        "photos",
				Prompt:    "Пришлите фото тетради с подписью отв. лица",
				Warn:      "Пришлите фото тетради с подписью отв. лица",
				Expect:    dialog.ExpectPhoto,
				Field:     "photos",
				MaxPhotos: 10,
				Next:      dialog.Terminal,
			},
		},
		Finalize: encashmentFinalize(d),
	}
}

func encashmentFinalize(d Deps) dialog.FinalizeFunc {
	return func(ctx context.Context, c tele.Context, s *state.Session) error {
		place, err := resolvePlace(d, s)
		if err != nil {
			return err
		}
		text, err := report.Encashment(s, displayName(ctx, d, c), report.Date(d.now()))
		if err != nil {
			return err
		}

		to := tele.ChatID(place.ChatID)
		if _, err := d.Sender.Send(to, text, tele.ModeHTML); err != nil {
			return fmt.Errorf("flows: send encashment report: %w", err)
		}
		if err := sendAlbum(d.Sender, to, s.PhotosFor("photos"), "Фото тетради"); err != nil {
			return fmt.Errorf("flows: send notebook photos: %w", err)
		}
		return nil
	}
}
