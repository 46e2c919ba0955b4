package logger

import (
	"fmt"

	"go.uber.org/zap/zapcore"
)

// persistedKeys are the structured fields copied into the log sink.
var persistedKeys = map[string]bool{
	"report_id": true,
	"user_id":   true,
	"path":      true,
	"ip":        true,
}

// DBCore wraps an existing core and forwards each entry to the log sink.
type DBCore struct {
	zapcore.Core
	sink LogSink
}

// LogSink receives entries without blocking the caller.
type LogSink interface {
	AddLog(entry LogEntry)
}

func NewDBCore(baseCore zapcore.Core, sink LogSink) zapcore.Core {
	return &DBCore{
		Core: baseCore,
		sink: sink,
	}
}

func (c *DBCore) With(fields []zapcore.Field) zapcore.Core {
	return &DBCore{Core: c.Core.With(fields), sink: c.sink}
}

func (c *DBCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		f.AddTo(enc)
	}

	var kept map[string]string
	for k, v := range enc.Fields {
		if !persistedKeys[k] {
			continue
		}
		if kept == nil {
			kept = make(map[string]string)
		}
		kept[k] = fmt.Sprint(v)
	}

	c.sink.AddLog(LogEntry{
		Level:   entry.Level,
		Message: entry.Message,
		Caller:  entry.Caller.Function,
		Fields:  kept,
	})

	return c.Core.Write(entry, fields)
}

func (c *DBCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}
