package flows

import (
	"context"
	"fmt"

	"github.com/parkops/shiftbot/core/telegram/dialog"
	"github.com/parkops/shiftbot/core/telegram/state"
	"github.com/parkops/shiftbot/internal/report"

	tele "gopkg.in/telebot.v4"
)

// StartShift is the shift-opening dialog: pick the place, accept the
// rules, photograph yourself and the attraction, then answer the
// condition checklist.
func StartShift(d Deps) *dialog.Flow {
	return &dialog.Flow{
		Name:     "start_shift",
		Start:    "place",
		DoneText: doneStartShift,
		ErrorTag: "Start shift report error",
		Stages: []dialog.Stage{
			{
				ID:       "place",
				Prompt:   promptPlace,
				Warn:     "Пожалуйста, выберите рабочую точку из списка",
				Expect:   dialog.ExpectChoice,
				Keyboard: dialog.KeyboardPlaces,
				Field:    "place",
				Next:     "rules",
			},
			{
				ID:       "rules",
				Prompt:   rulesText,
				Warn:     "Нажмите на кнопку под сообщением пользовательского соглашения!",
				Expect:   dialog.ExpectChoice,
				Keyboard: dialog.KeyboardAgree,
				Options:  []string{dialog.UniqueAgree},
				Next:     "my_photo",
			},
			{
				ID:        "my_photo",
				Prompt:    "Пожалуйста, сфотографируйте себя\n(соответственно, 1 фото)",
				Warn:      "Нужно отправить всего одно фото себя",
				Expect:    dialog.ExpectPhoto,
				Field:     "my_photo",
				MaxPhotos: 1,
				Next:      "object_photo",
			},
			{
				ID:        "object_photo",
				Prompt:    "Пожалуйста, сфотографируйте объект (1 фото)",
				Warn:      "Нужно фото объекта",
				Expect:    dialog.ExpectPhoto,
				Field:     "object_photo",
				MaxPhotos: 10,
				Next:      "is_defects",
			},
			{
				ID:       "is_defects",
				Prompt:   "Есть ли видимые дефекты?",
				Warn:     "Нажмите на нужную кнопку",
				Expect:   dialog.ExpectChoice,
				Keyboard: dialog.KeyboardYesNo,
				Options:  []string{dialog.UniqueYes, dialog.UniqueNo},
				Field:    "is_defects",
				NextFor: map[string]string{
					dialog.UniqueYes: "defects_photo",
					dialog.UniqueNo:  "is_clear",
				},
			},
			{
				ID:        "defects_photo",
				Prompt:    "Пожалуйста, сделайте фотографии дефектов (не более 10)",
				Warn:      "Нужно прислать фото дефектов (не более 10)",
				Expect:    dialog.ExpectPhoto,
				Field:     "defects_photo",
				MaxPhotos: 10,
				Next:      "is_clear",
			},
			{
				ID:       "is_clear",
				Prompt:   "Карусель чистая?",
				Warn:     "Нажмите на нужную кнопку",
				Expect:   dialog.ExpectChoice,
				Keyboard: dialog.KeyboardYesNo,
				Options:  []string{dialog.UniqueYes, dialog.UniqueNo},
				Field:    "is_clear",
				Next:     "is_light",
			},
			{
				ID:       "is_light",
				Prompt:   "Горит ли на ней свет?",
				Warn:     "Нажмите на нужную кнопку",
				Expect:   dialog.ExpectChoice,
				Keyboard: dialog.KeyboardYesNo,
				Options:  []string{dialog.UniqueYes, dialog.UniqueNo},
				Field:    "is_light",
				Next:     "is_music",
			},
			{
				ID:       "is_music",
				Prompt:   "Включена ли музыка?",
				Warn:     "Нажмите на нужную кнопку",
				Expect:   dialog.ExpectChoice,
				Keyboard: dialog.KeyboardYesNo,
				Options:  []string{dialog.UniqueYes, dialog.UniqueNo},
				Field:    "is_music",
				Next:     "is_scream",
			},
			{
				ID:       "is_scream",
				Prompt:   "При запуске скрипит?",
				Warn:     "Нажмите на нужную кнопку",
				Expect:   dialog.ExpectChoice,
				Keyboard: dialog.KeyboardYesNo,
				Options:  []string{dialog.UniqueYes, dialog.UniqueNo},
				Field:    "is_scream",
				Next:     dialog.Terminal,
			},
		},
		Finalize: startShiftFinalize(d),
	}
}

func startShiftFinalize(d Deps) dialog.FinalizeFunc {
	return func(ctx context.Context, c tele.Context, s *state.Session) error {
		place, err := resolvePlace(d, s)
		if err != nil {
			return err
		}
		text, err := report.StartShift(s, displayName(ctx, d, c), report.Date(d.now()))
		if err != nil {
			return err
		}

		to := tele.ChatID(place.ChatID)
		if _, err := d.Sender.Send(to, text, tele.ModeHTML); err != nil {
			return fmt.Errorf("flows: send opening report: %w", err)
		}
		if err := sendAlbum(d.Sender, to, s.PhotosFor("object_photo"), "Фото объекта"); err != nil {
			return fmt.Errorf("flows: send object photos: %w", err)
		}
		if ids := s.PhotosFor("my_photo"); len(ids) > 0 {
			photo := &tele.Photo{File: tele.File{FileID: ids[0]}, Caption: "Фото сотрудника"}
			if _, err := d.Sender.Send(to, photo); err != nil {
				return fmt.Errorf("flows: send employee photo: %w", err)
			}
		}
		if err := sendAlbum(d.Sender, to, s.PhotosFor("defects_photo"), "Фото дефектов"); err != nil {
			return fmt.Errorf("flows: send defect photos: %w", err)
		}
		return nil
	}
}
