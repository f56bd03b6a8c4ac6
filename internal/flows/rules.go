package flows

// rulesText is shown once at shift opening; the dialog continues only
// after the employee presses the agreement button.
const rulesText = "<b>Правила работы на точке</b>\n\n" +
	"1. Приходите на точку за 15 минут до открытия.\n" +
	"2. Перед запуском осмотрите аттракцион на предмет дефектов и чистоты.\n" +
	"3. Свет и музыка должны быть включены всё рабочее время.\n" +
	"4. Не оставляйте рабочее место без присмотра.\n" +
	"5. Все наличные и чеки сдаются в конце смены по отчёту.\n" +
	"6. О любых поломках и происшествиях немедленно сообщайте руководству.\n\n" +
	"Нажимая «Согласен», вы подтверждаете, что ознакомились с правилами и обязуетесь их соблюдать."
