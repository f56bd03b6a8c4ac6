// Package report renders the HTML texts delivered to place chats when
// a dialog completes.
package report

import (
	"fmt"
	"strconv"
	"time"

	"github.com/parkops/shiftbot/core/telegram/format"
	"github.com/parkops/shiftbot/core/telegram/state"
)

var moscow = time.FixedZone("MSK", 3*60*60)

var weekdays = map[time.Weekday]string{
	time.Monday:    "Понедельник",
	time.Tuesday:   "Вторник",
	time.Wednesday: "Среда",
	time.Thursday:  "Четверг",
	time.Friday:    "Пятница",
	time.Saturday:  "Суббота",
	time.Sunday:    "Воскресенье",
}

// Date renders the report date in Moscow time: "31/08/2026 - Понедельник".
func Date(now time.Time) string {
	now = now.In(moscow)
	return now.Format("02/01/2006") + " - " + weekdays[now.Weekday()]
}

// Day returns the report date truncated to a Moscow calendar day.
func Day(now time.Time) time.Time {
	y, m, d := now.In(moscow).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, moscow)
}

// value reads a collected field as display text. Whole numbers arrive
// as float64 after the session's JSON round trip.
func value(s *state.Session, field string) (string, error) {
	v, ok := s.Field(field)
	if !ok {
		return "", fmt.Errorf("report: field %s missing", field)
	}
	switch t := v.(type) {
	case string:
		if t == "" {
			return "", fmt.Errorf("report: field %s empty", field)
		}
		return format.EscapeHTML(t), nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("report: field %s has unexpected type %T", field, v)
	}
}

func values(s *state.Session, fields ...string) (map[string]string, error) {
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		v, err := value(s, f)
		if err != nil {
			return nil, err
		}
		out[f] = v
	}
	return out, nil
}

// StartShift renders the shift-opening report.
func StartShift(s *state.Session, name, date string) (string, error) {
	v, err := values(s, "place", "is_defects", "is_clear", "is_light", "is_music", "is_scream")
	if err != nil {
		return "", err
	}
	return "📝Открытие смены\n\n" +
		"Дата: " + date + "\n" +
		"Точка: " + v["place"] + "\n" +
		"Имя: " + format.EscapeHTML(name) + "\n\n" +
		"Есть ли дефекты: <em>" + v["is_defects"] + "</em>\n" +
		"Чистая ли карусель: <em>" + v["is_clear"] + "</em>\n" +
		"Включен ли свет: <em>" + v["is_light"] + "</em>\n" +
		"Играет ли музыка: <em>" + v["is_music"] + "</em>\n" +
		"Есть ли скрип: <em>" + v["is_scream"] + "</em>\n", nil
}

// FinishShift renders the shift-closing report.
func FinishShift(s *state.Session, name, date string) (string, error) {
	v, err := values(s,
		"place", "beneficiaries", "summary", "cash", "online_cash", "qr_code",
		"expenditure", "salary", "convert", "count_rentals_carous",
		"count_cars_5", "count_cars_10", "count_rentals_cart", "count_additional",
	)
	if err != nil {
		return "", err
	}
	return "📝Закрытие смены:\n\n" +
		"Дата: " + date + "\n" +
		"Точка: " + v["place"] + "\n" +
		"Имя: " + format.EscapeHTML(name) + "\n\n" +
		"Льготники: <em>" + v["beneficiaries"] + "</em>\n" +
		"Общая выручка: <em>" + v["summary"] + "</em>\n" +
		"Наличные: <em>" + v["cash"] + "</em>\n" +
		"Безнал: <em>" + v["online_cash"] + "</em>\n" +
		"QR-код: <em>" + v["qr_code"] + "</em>\n" +
		"Расход: <em>" + v["expenditure"] + "</em>\n" +
		"Зарплата: <em>" + v["salary"] + "</em>\n" +
		"В конверт: <em>" + v["convert"] + "</em>\n\n" +
		"Общее количество прокатов на карусели: <em>" + v["count_rentals_carous"] + "</em>\n\n" +
		"Количество проката машинок 5 минут (7): <em>" + v["count_cars_5"] + "</em>\n" +
		"Количество проката машинок 10 минут (20): <em>" + v["count_cars_10"] + "</em>\n\n" +
		"Количество прокатов тележек: <em>" + v["count_rentals_cart"] + "</em>\n\n" +
		"Количество проданного доп.товара: <em>" + v["count_additional"] + "</em>\n", nil
}

// Encashment renders the encashment report.
func Encashment(s *state.Session, name, date string) (string, error) {
	v, err := values(s, "place", "who", "date", "summary")
	if err != nil {
		return "", err
	}
	return "📝Инкассация:\n\n" +
		"Точка: " + v["place"] + "\n" +
		"Дата: " + date + "\n" +
		"Имя: " + format.EscapeHTML(name) + "\n\n" +
		"Кто инкассировал: <em>" + v["who"] + "</em>\n" +
		"Дата инкассации: <em>" + v["date"] + "</em>\n" +
		"Сумма инкассации: <em>" + v["summary"] + "</em>", nil
}
