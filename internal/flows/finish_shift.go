package flows

import (
	"context"
	"fmt"

	"github.com/parkops/shiftbot/core/telegram/dialog"
	"github.com/parkops/shiftbot/core/telegram/state"
	"github.com/parkops/shiftbot/internal/report"
	"github.com/shopspring/decimal"

	tele "gopkg.in/telebot.v4"
)

// FinishShift is the shift-closing dialog: the money breakdown, rental
// counters and the closing photo set. Its finalizer is the only one
// that persists figures for statistics.
func FinishShift(d Deps) *dialog.Flow {
	return &dialog.Flow{
		Name:     "finish_shift",
		Start:    "place",
		DoneText: doneReport,
		ErrorTag: "Finish shift report error",
		Stages: []dialog.Stage{
			{
				ID:       "place",
				Prompt:   promptPlace,
				Warn:     "Выберите рабочую точку ниже из выпадающего списка",
				Expect:   dialog.ExpectChoice,
				Keyboard: dialog.KeyboardPlaces,
				Field:    "place",
				Next:     "visitors",
			},
			{
				ID:     "visitors",
				Prompt: "Напишите общее количество посетителей за сегодня",
				Warn:   "Напишите количество посетителей за день <b>ЦЕЛЫМ числом</b>",
				Expect: dialog.ExpectDigits,
				Field:  "visitors",
				Next:   "summary",
			},
			{
				ID:     "summary",
				Prompt: "Напишите общую выручку за сегодня",
				Warn:   "Напишите общую выручку за сегодня <b>числом</b>",
				Expect: dialog.ExpectMoney,
				Field:  "summary",
				Next:   "beneficiaries",
			},
			{
				ID:       "beneficiaries",
				Prompt:   "Были ли льготники сегодня?",
				Warn:     "Нажмите на нужную кнопку",
				Expect:   dialog.ExpectChoice,
				Keyboard: dialog.KeyboardYesNo,
				Options:  []string{dialog.UniqueYes, dialog.UniqueNo},
				Field:    "beneficiaries",
				NextFor: map[string]string{
					dialog.UniqueYes: "photo_of_beneficiaries",
					dialog.UniqueNo:  "cash",
				},
			},
			{
				ID:        "photo_of_beneficiaries",
				Prompt:    "Прикрепите подтвреждающее фото (справка, паспорт родителей)",
				Warn:      "Это не похоже на фото!\nПрикрепите подтвреждающее фото (справка, паспорт родителей)",
				Expect:    dialog.ExpectPhoto,
				Field:     "photo_of_beneficiaries",
				MaxPhotos: 10,
				Next:      "cash",
			},
			{
				ID:     "cash",
				Prompt: "Напишите сумму наличных за сегодня",
				Warn:   "Напишите сумму наличных за сегодня <b>числом</b>",
				Expect: dialog.ExpectMoney,
				Field:  "cash",
				Next:   "online_cash",
			},
			{
				ID:     "online_cash",
				Prompt: "Напишите сумму безнала за сегодня",
				Warn:   "Напишите сумму безнала за сегодня <b>числом</b>",
				Expect: dialog.ExpectMoney,
				Field:  "online_cash",
				Next:   "qr_code",
			},
			{
				ID:     "qr_code",
				Prompt: "Напишите сумму по QR-коду за сегодня",
				Warn:   "Введите сумму по QR-коду за сегодня <b>числом</b>",
				Expect: dialog.ExpectMoney,
				Field:  "qr_code",
				Next:   "expenditure",
			},
			{
				ID:     "expenditure",
				Prompt: "Введите сумму расхода за сегодня",
				Warn:   "Введите сумму расхода за сегодня <b>числом</b>",
				Expect: dialog.ExpectMoney,
				Field:  "expenditure",
				Next:   "salary",
			},
			{
				ID:     "salary",
				Prompt: "Напишите, сколько вы взяли ЗП за сегодня\n\nЕсли вы <b>не</b> брали ЗП, напишите 0",
				Warn:   "Напишите, сколько вы взяли ЗП за сегодня <b>числом</b>",
				Expect: dialog.ExpectMoney,
				Field:  "salary",
				Next:   "convert",
			},
			{
				ID:     "convert",
				Prompt: "Напишите, сколько положено в конверт",
				Warn:   "Напишите, сколько положено в конверт <b>числом</b>",
				Expect: dialog.ExpectMoney,
				Field:  "convert",
				Next:   "count_rentals_carous",
			},
			{
				ID:     "count_rentals_carous",
				Prompt: "Напишите количество прокатов на карусели",
				Warn:   "Напишите количество прокатов на карусели <b>числом</b>",
				Expect: dialog.ExpectDigits,
				Field:  "count_rentals_carous",
				Next:   "count_cars_5",
			},
			{
				ID:     "count_cars_5",
				Prompt: "Напишите количество проката машинок 5 минут (7 минут)",
				Warn:   "Напишите количество проката машинок 5 минут (7 минут) <b>числом</b>",
				Expect: dialog.ExpectDigits,
				Field:  "count_cars_5",
				Next:   "count_cars_10",
			},
			{
				ID:     "count_cars_10",
				Prompt: "Напишите количество проката машинок 10 минут (20 минут)",
				Warn:   "Напишите количество проката машинок 10 минут (20 минут) <b>числом</b>",
				Expect: dialog.ExpectDigits,
				Field:  "count_cars_10",
				Next:   "count_rentals_cart",
			},
			{
				ID:     "count_rentals_cart",
				Prompt: "Напишите количество проката тележек",
				Warn:   "Напишите количество проката тележек <b>числом</b>",
				Expect: dialog.ExpectDigits,
				Field:  "count_rentals_cart",
				Next:   "count_additional",
			},
			{
				ID:     "count_additional",
				Prompt: "Напишите общее количество продаж доп.товара за день (шарики, слаймы и т.д)",
				Warn:   "Напишите общее количество продаж доп.товара за день (шарики, слаймы и т.д)",
				Expect: dialog.ExpectDigits,
				Field:  "count_additional",
				Next:   "necessary_photos",
			},
			{
				ID:        "necessary_photos",
				Prompt:    "Пришлите необходимые фото за смену (чеки, льготы, тетрадь и т.д)",
				Warn:      "Пришлите необходимые фото за смену (чеки, льготы, тетрадь и т.д)",
				Expect:    dialog.ExpectPhoto,
				Field:     "necessary_photos",
				MaxPhotos: 10,
				Next:      "object_photo",
			},
			{
				ID:        "object_photo",
				Prompt:    "Сфотографируйте объект (1 фото)",
				Warn:      "Сфотографируйте объект (1 фото)",
				Expect:    dialog.ExpectPhoto,
				Field:     "object_photo",
				MaxPhotos: 10,
				Next:      dialog.Terminal,
			},
		},
		Finalize: finishShiftFinalize(d),
	}
}

func finishShiftFinalize(d Deps) dialog.FinalizeFunc {
	return func(ctx context.Context, c tele.Context, s *state.Session) error {
		place, err := resolvePlace(d, s)
		if err != nil {
			return err
		}
		text, err := report.FinishShift(s, displayName(ctx, d, c), report.Date(d.now()))
		if err != nil {
			return err
		}
		visitors, ok := s.IntField("visitors")
		if !ok {
			return fmt.Errorf("flows: visitors field missing")
		}
		revenue, err := decimal.NewFromString(s.StringField("summary"))
		if err != nil {
			return fmt.Errorf("flows: revenue field: %w", err)
		}

		to := tele.ChatID(place.ChatID)
		if _, err := d.Sender.Send(to, text, tele.ModeHTML); err != nil {
			return fmt.Errorf("flows: send closing report: %w", err)
		}
		if err := sendAlbum(d.Sender, to, s.PhotosFor("necessary_photos"),
			"Необходимые фото за смену (чеки о закрытии смены, оплата QR-кода, чек расхода)"); err != nil {
			return fmt.Errorf("flows: send closing photos: %w", err)
		}
		if err := sendAlbum(d.Sender, to, s.PhotosFor("object_photo"), "Фото объекта"); err != nil {
			return fmt.Errorf("flows: send object photos: %w", err)
		}
		if err := sendAlbum(d.Sender, to, s.PhotosFor("photo_of_beneficiaries"),
			"Необходимые фото льготников"); err != nil {
			return fmt.Errorf("flows: send beneficiary photos: %w", err)
		}

		userID := c.Sender().ID
		if err := d.Store.RecordShiftSummary(ctx, userID, place.ID, report.Day(d.now()), visitors, revenue); err != nil {
			return fmt.Errorf("flows: persist shift summary: %w", err)
		}
		return nil
	}
}
