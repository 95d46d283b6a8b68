package retrieval

import "github.com/handiism/data-displayer/internal/model"

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// ProgressEvent represents a progress update for the user.
type ProgressEvent struct {
	Action  model.Action
	Message string
	Level   ProgressLevel
}

// Notification is a blocking, user-facing failure message.
type Notification struct {
	Action  model.Action
	Message string
	Kind    model.FailureKind
}

// Notifier shows notifications to the user.
type Notifier interface {
	Notify(Notification)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(Notification)

// Notify calls f(n).
func (f NotifierFunc) Notify(n Notification) {
	f(n)
}
