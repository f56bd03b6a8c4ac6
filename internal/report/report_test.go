package report

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/parkops/shiftbot/core/telegram/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateUsesMoscowWeekday(t *testing.T) {
	// 2026-08-31 23:30 UTC is already September 1st in Moscow.
	late := time.Date(2026, 8, 31, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "01/09/2026 - Вторник", Date(late))

	noon := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "30/08/2026 - Воскресенье", Date(noon))
}

// roundTrip pushes the session through JSON the way the store does, so
// field types match what finalizers actually see.
func roundTrip(t *testing.T, s *state.Session) *state.Session {
	t.Helper()
	data, err := json.Marshal(s)
	require.NoError(t, err)
	var back state.Session
	require.NoError(t, json.Unmarshal(data, &back))
	return &back
}

func TestStartShiftReport(t *testing.T) {
	s := state.NewSession("start_shift", "is_scream")
	s.SetField("place", "Внуково")
	s.SetField("is_defects", "no")
	s.SetField("is_clear", "yes")
	s.SetField("is_light", "yes")
	s.SetField("is_music", "yes")
	s.SetField("is_scream", "no")

	text, err := StartShift(roundTrip(t, s), "Иванов Иван", "01/09/2026 - Вторник")
	require.NoError(t, err)
	assert.Contains(t, text, "📝Открытие смены")
	assert.Contains(t, text, "Дата: 01/09/2026 - Вторник")
	assert.Contains(t, text, "Точка: Внуково")
	assert.Contains(t, text, "Имя: Иванов Иван")
	assert.Contains(t, text, "Есть ли дефекты: <em>no</em>")
	assert.Contains(t, text, "Есть ли скрип: <em>no</em>")
}

func TestStartShiftReportMissingField(t *testing.T) {
	s := state.NewSession("start_shift", "is_scream")
	s.SetField("place", "Внуково")

	_, err := StartShift(s, "Иванов", "01/09/2026 - Вторник")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is_defects")
}

func TestFinishShiftReport(t *testing.T) {
	s := state.NewSession("finish_shift", "object_photo")
	s.SetField("place", "Саларис")
	s.SetField("beneficiaries", "no")
	s.SetField("summary", "1500.5")
	s.SetField("cash", "1000")
	s.SetField("online_cash", "400")
	s.SetField("qr_code", "100.5")
	s.SetField("expenditure", "0")
	s.SetField("salary", "0")
	s.SetField("convert", "1500.5")
	s.SetField("count_rentals_carous", 21)
	s.SetField("count_cars_5", 3)
	s.SetField("count_cars_10", 2)
	s.SetField("count_rentals_cart", 0)
	s.SetField("count_additional", 5)

	text, err := FinishShift(roundTrip(t, s), "Петрова Анна", "01/09/2026 - Вторник")
	require.NoError(t, err)
	assert.Contains(t, text, "📝Закрытие смены:")
	assert.Contains(t, text, "Общая выручка: <em>1500.5</em>")
	assert.Contains(t, text, "Общее количество прокатов на карусели: <em>21</em>")
	assert.Contains(t, text, "Количество прокатов тележек: <em>0</em>")
}

func TestEncashmentReportEscapesFreeText(t *testing.T) {
	s := state.NewSession("encashment", "photos")
	s.SetField("place", "Новая Рига")
	s.SetField("who", "Сидоров <админ>")
	s.SetField("date", "30/08/2026")
	s.SetField("summary", "20000")

	text, err := Encashment(roundTrip(t, s), "Сидоров", "01/09/2026 - Вторник")
	require.NoError(t, err)
	assert.Contains(t, text, "📝Инкассация:")
	assert.Contains(t, text, "Кто инкассировал: <em>Сидоров &lt;админ&gt;</em>")
	assert.Contains(t, text, "Сумма инкассации: <em>20000</em>")
}
