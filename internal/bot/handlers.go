package bot

import (
	"github.com/parkops/shiftbot/core/telegram/helpers"
	"github.com/parkops/shiftbot/core/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
)

func (a *App) startCommand(c tele.Context) error {
	text := "Здравствуйте! Это бот отчётов по сменам.\n\n" +
		"Доступные команды:\n" +
		"/start_shift — открытие смены\n" +
		"/finish_shift — закрытие смены\n" +
		"/encashment — инкассация"
	return helpers.SendText(c, text, &tele.SendOptions{ReplyMarkup: keyboard.RemoveKeyboard()})
}

// flowCommand starts the named dialog; an active dialog is refused by the engine.
func (a *App) flowCommand(name string) tele.HandlerFunc {
	return func(c tele.Context) error {
		return a.engine.Start(c, name)
	}
}

// UnknownText handles text that matches no command and no active dialog.
func (a *App) UnknownText() tele.HandlerFunc {
	return func(c tele.Context) error {
		return helpers.SendText(c, "Я вас не понимаю...\nВоспользуйтесь командами из меню")
	}
}

// UnknownPhoto handles photos sent outside any dialog.
func (a *App) UnknownPhoto() tele.HandlerFunc {
	return func(c tele.Context) error {
		return helpers.SendText(c, "Сейчас фото не требуется")
	}
}

// UnknownCallback answers button presses that map to no registered action.
func (a *App) UnknownCallback() tele.HandlerFunc {
	return func(c tele.Context) error {
		return c.Respond(&tele.CallbackResponse{Text: "Неизвестное действие"})
	}
}

func (a *App) accessDenied(c tele.Context) error {
	return helpers.SendText(c, "Бот доступен только сотрудникам парка.\nОбратитесь к руководству.")
}

func (a *App) adminOnly(c tele.Context) error {
	return helpers.SendText(c, "Команда доступна только руководству")
}
