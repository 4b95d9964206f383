package entity

import "strings"

// NotificationEvent is the type of the events sent by the pipeline to the notification channel,
// which is accessible externally with Pipeline.NotifyChannel().
type NotificationEvent struct {

	// The nofication level
	Level string

	// Timestamp of the event on the format "2006-01-02T15:04:05.000000Z"
	Timestamp string

	// The entity type of the sender, e.g. "pipeline", "executor", etc
	Sender string

	// The unique instance ID of the sender, normally the invocation's request ID
	Instance string

	// The input object being processed, if applicable
	Object string

	Message string

	// Location and stack info, from where notification was sent.
	// Func is always provided.
	// File and Line are added when notification level is WARN or above.
	// StackTrace is added when notification level is ERROR.
	Func       string
	File       string
	Line       int
	StackTrace string
}

type NotifyChan chan NotificationEvent

const (
	NotifyLevelInvalid = iota
	NotifyLevelDebug
	NotifyLevelInfo
	NotifyLevelWarn
	NotifyLevelError
)

const (
	NotifyLevelStrInvalid = "INVALID"
	NotifyLevelStrDebug   = "DEBUG"
	NotifyLevelStrInfo    = "INFO"
	NotifyLevelStrWarn    = "WARN"
	NotifyLevelStrError   = "ERROR"
)

var notifyLevelName = map[int]string{
	NotifyLevelInvalid: NotifyLevelStrInvalid,
	NotifyLevelDebug:   NotifyLevelStrDebug,
	NotifyLevelInfo:    NotifyLevelStrInfo,
	NotifyLevelWarn:    NotifyLevelStrWarn,
	NotifyLevelError:   NotifyLevelStrError,
}

func NotifyLevelName(notifyLevel int) string {
	name, ok := notifyLevelName[notifyLevel]
	if !ok {
		name = NotifyLevelStrInvalid
	}
	return name
}

// NotifyLevel returns the level matching the (case insensitive) level name, or
// NotifyLevelInvalid if not a known name.
func NotifyLevel(name string) int {
	name = strings.ToUpper(strings.TrimSpace(name))
	for level, levelName := range notifyLevelName {
		if levelName == name && level != NotifyLevelInvalid {
			return level
		}
	}
	return NotifyLevelInvalid
}
