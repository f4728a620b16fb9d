package domain

// Коды запуска приложения на часах.
const (
	LaunchCodeOpenApp  = 100
	LaunchCodeRefresh  = 101
	LaunchCodeBodyBase = 200
	LaunchCodeTestPin  = 10
	TestPinID          = "00-00-test"
	PinLayoutGeneric   = "genericPin"
	ActionOpenWatchApp = "openWatchApp"
	SystemIconPrefix   = "system://images/"
)

// Pin — запись таймлайна в формате публичного API.
type Pin struct {
	ID      string      `json:"id"`
	Time    string      `json:"time"`
	Layout  PinLayout   `json:"layout"`
	Actions []PinAction `json:"actions,omitempty"`
}

// PinLayout — отображаемая часть пина.
type PinLayout struct {
	Type            string `json:"type"`
	Title           string `json:"title"`
	Subtitle        string `json:"subtitle,omitempty"`
	Body            string `json:"body,omitempty"`
	PrimaryColor    string `json:"primaryColor,omitempty"`
	SecondaryColor  string `json:"secondaryColor,omitempty"`
	BackgroundColor string `json:"backgroundColor,omitempty"`
	TinyIcon        string `json:"tinyIcon"`
	LastUpdated     string `json:"lastUpdated"`
}

// PinAction — действие пина.
type PinAction struct {
	Title      string `json:"title"`
	Type       string `json:"type"`
	LaunchCode int    `json:"launchCode"`
}
