// Package notify sends operational events of an invocation to the pipeline's notify
// channel, and optionally to the logger.
package notify

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/teltech/logger"
	"github.com/zpiroux/orderlake/entity"
)

const (
	logLevelEnvName = "LOG_LEVEL"
	timestampLayout = "2006-01-02T15:04:05.000000Z"
	stackTraceSize  = 2048
)

// Notifier tags events with the sending component (sender), the invocation (instance) and
// the processed object. Events are dropped, never blocking, when the channel buffer is full.
type Notifier struct {
	ch             entity.NotifyChan
	minNotifyLevel int
	log            *logger.Log
	callerLevel    int
	sender         string
	instance       string
	object         string
	dropped        *int64
}

// New creates a new Notifier. callerLevel is the number of stack frames between the func
// reported as event origin and Notify(), i.e. 2 if that func calls Notify() directly.
//
// The minimum level is taken from the LOG_LEVEL env variable, defaulting to INFO, and can
// be changed with SetNotifyLevel().
func New(ch entity.NotifyChan, log *logger.Log, callerLevel int, sender, instance, object string) *Notifier {

	level := entity.NotifyLevel(os.Getenv(logLevelEnvName))
	if level == entity.NotifyLevelInvalid {
		level = entity.NotifyLevelInfo
	}

	return &Notifier{
		ch:             ch,
		minNotifyLevel: level,
		log:            log,
		callerLevel:    callerLevel,
		sender:         sender,
		instance:       instance,
		object:         object,
		dropped:        new(int64),
	}
}

func (n *Notifier) SetNotifyLevel(level int) {
	n.minNotifyLevel = level
}

// CountDropsIn makes the notifier count events not delivered, due to a full or missing
// channel, in the provided counter instead of its own. The counter is updated atomically,
// so it can be shared by notifiers of concurrent invocations.
func (n *Notifier) CountDropsIn(counter *int64) {
	n.dropped = counter
}

// Notify formats the message and sends it as an event. Origin details are added per level:
// the calling func for all levels, file and line from WARN, and the stack trace for ERROR.
func (n *Notifier) Notify(level int, message string, args ...any) {

	if level < n.minNotifyLevel {
		return
	}

	event := entity.NotificationEvent{
		Sender:   n.sender,
		Instance: n.instance,
		Object:   n.object,
		Message:  fmt.Sprintf(message, args...),
	}
	n.SendNotificationEvent(level, event)

	n.logEvent(level, event.Message)
}

// SendNotificationEvent adds origin details and a timestamp to the event and sends it to
// the channel. Must be called directly from Notify or from the reporting func itself for
// callerLevel to hold.
func (n *Notifier) SendNotificationEvent(level int, event entity.NotificationEvent) {

	pc, file, line, _ := runtime.Caller(n.callerLevel)
	event.Func = "unknown"
	if f := runtime.FuncForPC(pc); f != nil {
		_, event.Func = filepath.Split(f.Name())
	}

	event.Level = entity.NotifyLevelName(level)
	if event.Timestamp == "" {
		event.Timestamp = time.Now().UTC().Format(timestampLayout)
	}

	if level >= entity.NotifyLevelWarn {
		event.File = file
		event.Line = line
	}
	if level == entity.NotifyLevelError {
		stack := make([]byte, stackTraceSize)
		event.StackTrace = string(stack[:runtime.Stack(stack, false)])
	}

	select {
	case n.ch <- event:
	default:
		atomic.AddInt64(n.dropped, 1)
	}
}

func (n *Notifier) logEvent(level int, msg string) {
	if n.log == nil {
		return
	}
	const format = "%s %s"
	switch level {
	case entity.NotifyLevelDebug:
		n.log.Debugf(format, n.tag(), msg)
	case entity.NotifyLevelInfo:
		n.log.Infof(format, n.tag(), msg)
	case entity.NotifyLevelWarn:
		n.log.Warnf(format, n.tag(), msg)
	case entity.NotifyLevelError:
		n.log.Errorf(format, n.tag(), msg)
	}
}

// tag gives the log line prefix, e.g. "[executor:req-1](raw/orders.json)".
func (n *Notifier) tag() string {
	if n.object == "" {
		return fmt.Sprintf("[%s:%s]", n.sender, n.instance)
	}
	return fmt.Sprintf("[%s:%s](%s)", n.sender, n.instance, n.object)
}
