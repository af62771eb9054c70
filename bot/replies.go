package bot

import "fmt"

// Fixed reply texts. The bot answers in the primary deployment language;
// command keywords themselves are multilingual (see package command).
const (
	pingReply       = "понг"
	noForecastReply = "No forecast data available."

	testReplyFormat = "Тестовое сообщение от nodeId %s"

	positionKnownFormat = "Ваши координаты известны: lat: %v lon: %v"
	forecastHint        = "Можете использовать команду #прогноз [Xч | Xд]"

	headerDailyFormat  = "Прогноз для %v, %v (%d дней)"
	headerHourlyFormat = "Прогноз для %v, %v (%d часов)"
)

// guidanceSequence is sent, one paced message at a time, when a sender's
// location cannot be resolved. Order is fixed and ends with an example
// command.
var guidanceSequence = []string{
	"Не могу найти ваше местоположение.",
	"Укажите координаты в формате:",
	"#прогноз <широта> <долгота> [Xч | Xд]",
	"например: \"#прогноз 55.44 55.58 3д\"",
}

func testReply(nodeID string) string {
	return fmt.Sprintf(testReplyFormat, nodeID)
}
