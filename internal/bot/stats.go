package bot

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/parkops/shiftbot/core/logger"
	"github.com/parkops/shiftbot/core/telegram/helpers"
	"github.com/parkops/shiftbot/core/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
)

const (
	cbStatsWeek  = "stats_week"
	cbStatsMonth = "stats_month"
)

func (a *App) statsCommand(c tele.Context) error {
	markup := keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{
			{Text: "За неделю", Unique: cbStatsWeek},
			{Text: "За месяц", Unique: cbStatsMonth},
		},
	)
	return helpers.SendHTML(c, "📊 Выберите период статистики", markup)
}

// statsPeriod aggregates persisted shift summaries over the last days.
func (a *App) statsPeriod(days int, title string) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := helpers.BuildContext(c)
		from := time.Now().AddDate(0, 0, -days)

		visitors, vErr := a.repo.VisitorsSince(ctx, from)
		revenue, rErr := a.repo.RevenueSince(ctx, from)
		if err := errors.Join(vErr, rErr); err != nil {
			logger.Error(ctx, "service.stats", "aggregate.failed",
				slog.String("period", title),
				slog.String("err", err.Error()),
			)
			_ = c.Respond(&tele.CallbackResponse{Text: "Не удалось получить статистику"})
			return err
		}

		if err := c.Respond(); err != nil {
			logger.Warn(ctx, "service.stats", "callback.answer_failed",
				slog.String("err", err.Error()))
		}
		text := fmt.Sprintf(
			"📊 Статистика %s\n\nПосетители: <b>%d</b>\nВыручка: <b>%s</b> руб.",
			title, visitors, revenue.String(),
		)
		return helpers.EditOrSendHTML(c, text)
	}
}
