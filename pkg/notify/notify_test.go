package notify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/zpiroux/orderlake/entity"
)

func TestNotify(t *testing.T) {

	sender := "someSender"
	instance := "someId"
	object := "someObjectKey"
	expectedMessage := "some stuff happened, foo=11"
	fmtstr := "some stuff happened, foo=%d"
	fmtval := 11
	ch := make(entity.NotifyChan, 3)
	curLvl := os.Getenv(logLevelEnvName)
	os.Setenv(logLevelEnvName, entity.NotifyLevelStrDebug)

	notifier := New(ch, nil, 2, sender, instance, object)

	// Test DEBUG
	notifier.Notify(entity.NotifyLevelDebug, fmtstr, fmtval)
	event := <-ch
	expectedEvent := entity.NotificationEvent{
		Level:    "DEBUG",
		Sender:   sender,
		Instance: instance,
		Object:   object,
		Message:  expectedMessage,
		Func:     "notify.TestNotify",
	}
	event.Timestamp = ""
	assert.Equal(t, expectedEvent, event)

	// Test INFO
	notifier.Notify(entity.NotifyLevelInfo, fmtstr, fmtval)
	event = <-ch
	expectedEvent.Level = "INFO"
	event.Timestamp = ""
	assert.Equal(t, expectedEvent, event)

	// Test WARN
	notifier.Notify(entity.NotifyLevelWarn, fmtstr, fmtval)
	event = <-ch
	expectedEvent.Level = "WARN"
	expectedEvent.File = "notify_test.go"
	expectedEvent.Line = 48
	event.Timestamp = ""
	event.File = filepath.Base(expectedEvent.File)
	assert.Equal(t, expectedEvent, event)

	// Test ERROR
	notifier.Notify(entity.NotifyLevelError, fmtstr, fmtval)
	event = <-ch
	expectedEvent.Level = "ERROR"
	expectedEvent.Line = 58
	event.Timestamp = ""
	event.File = filepath.Base(expectedEvent.File)
	assert.NotEmpty(t, event.StackTrace)
	event.StackTrace = ""
	assert.Equal(t, expectedEvent, event)

	os.Setenv(logLevelEnvName, curLvl)
}

func TestMinLogLevel(t *testing.T) {

	sender := "someSender"
	instance := "someId"
	object := "someObjectKey"
	ch := make(entity.NotifyChan, 3)
	curLvl := os.Getenv(logLevelEnvName)

	// Empty os env var --> min level INFO
	os.Setenv(logLevelEnvName, "")
	notifier := New(ch, nil, 2, sender, instance, object)
	assert.Equal(t, entity.NotifyLevelInfo, notifier.minNotifyLevel)

	// Invalid os env var --> min level INFO
	os.Setenv(logLevelEnvName, "SOME_INVALID_LEVEL")
	notifier = New(ch, nil, 2, sender, instance, object)
	assert.Equal(t, entity.NotifyLevelInfo, notifier.minNotifyLevel)

	// Valid levels
	os.Setenv(logLevelEnvName, entity.NotifyLevelStrInfo)
	notifier = New(ch, nil, 2, sender, instance, object)
	assert.Equal(t, entity.NotifyLevelInfo, notifier.minNotifyLevel)

	os.Setenv(logLevelEnvName, entity.NotifyLevelStrWarn)
	notifier = New(ch, nil, 2, sender, instance, object)
	assert.Equal(t, entity.NotifyLevelWarn, notifier.minNotifyLevel)

	os.Setenv(logLevelEnvName, entity.NotifyLevelStrError)
	notifier = New(ch, nil, 2, sender, instance, object)
	assert.Equal(t, entity.NotifyLevelError, notifier.minNotifyLevel)

	os.Setenv(logLevelEnvName, curLvl)
}

func TestLevelFiltering(t *testing.T) {

	ch := make(entity.NotifyChan, 4)
	curLvl := os.Getenv(logLevelEnvName)
	os.Setenv(logLevelEnvName, entity.NotifyLevelStrInfo)
	defer os.Setenv(logLevelEnvName, curLvl)

	notifier := New(ch, nil, 2, "pipeline", "req-1", "raw/orders.json")

	// Below min level, nothing sent
	notifier.Notify(entity.NotifyLevelDebug, "row preview: %d rows", 2)
	assert.Len(t, ch, 0)

	notifier.SetNotifyLevel(entity.NotifyLevelDebug)
	notifier.Notify(entity.NotifyLevelDebug, "row preview: %d rows", 2)
	event := <-ch
	assert.Equal(t, "DEBUG", event.Level)
	assert.Equal(t, "raw/orders.json", event.Object)
	assert.Equal(t, "row preview: 2 rows", event.Message)

	// Level change on one notifier does not affect others
	New(ch, nil, 2, "pipeline", "req-1", "").Notify(entity.NotifyLevelDebug, "not sent")
	assert.Len(t, ch, 0)
}

func TestFullChannelDoesNotBlock(t *testing.T) {
	ch := make(entity.NotifyChan, 1)
	notifier := New(ch, nil, 2, "pipeline", "req-2", "")
	notifier.SetNotifyLevel(entity.NotifyLevelInfo)

	notifier.Notify(entity.NotifyLevelInfo, "first")
	notifier.Notify(entity.NotifyLevelInfo, "second")
	notifier.Notify(entity.NotifyLevelError, "third")

	assert.Len(t, ch, 1)
	assert.Equal(t, "first", (<-ch).Message)

	var nilChan entity.NotifyChan
	New(nilChan, nil, 2, "pipeline", "req-3", "").Notify(entity.NotifyLevelError, "dropped")
}

func TestSharedDropCounter(t *testing.T) {
	ch := make(entity.NotifyChan, 1)
	var dropped int64

	first := New(ch, nil, 2, "pipeline", "req-4", "")
	first.SetNotifyLevel(entity.NotifyLevelInfo)
	first.CountDropsIn(&dropped)
	second := New(ch, nil, 2, "pipeline", "req-5", "raw/orders.json")
	second.SetNotifyLevel(entity.NotifyLevelInfo)
	second.CountDropsIn(&dropped)

	first.Notify(entity.NotifyLevelInfo, "first")
	first.Notify(entity.NotifyLevelInfo, "second")
	second.Notify(entity.NotifyLevelWarn, "third")
	assert.Equal(t, int64(2), dropped)

	// Without a shared counter, drops are counted per notifier only
	own := New(ch, nil, 2, "pipeline", "req-6", "")
	own.Notify(entity.NotifyLevelError, "fourth")
	assert.Equal(t, int64(2), dropped)
	assert.Equal(t, int64(1), *own.dropped)

	assert.Equal(t, "[pipeline:req-5](raw/orders.json)", second.tag())
	assert.Equal(t, "[pipeline:req-4]", first.tag())
}
