package logger

import (
	"context"
	"fmt"
	"time"

	common_models "litterbugs/internal/common/models"
	"litterbugs/internal/config"
	"litterbugs/internal/database"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap/zapcore"
)

// LogEntry holds the data passed from Zap to the worker
type LogEntry struct {
	Level   zapcore.Level
	Message string
	Caller  string
	Fields  map[string]string
}

// DBLogWriter persists log entries from a bounded channel on its own goroutine.
type DBLogWriter struct {
	collection *mongo.Collection
	logChan    chan LogEntry
	appId      string
}

func NewDBLogWriter(mongodb *database.MongodbDB, cfg *config.Config) *DBLogWriter {
	writer := &DBLogWriter{
		collection: mongodb.DB.Collection("logs"),
		logChan:    make(chan LogEntry, 1000),
		appId:      cfg.AppId,
	}

	go writer.processLogs()

	return writer
}

// AddLog never blocks: when the buffer is full the entry is dropped.
func (w *DBLogWriter) AddLog(entry LogEntry) {
	select {
	case w.logChan <- entry:
	default:
		fmt.Println("DB Log Channel Full! Dropping log:", entry.Message)
	}
}

func (w *DBLogWriter) processLogs() {
	for entry := range w.logChan {
		record := toRecord(entry, w.appId)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_, _ = w.collection.InsertOne(ctx, record)
		cancel()
	}
}

func toRecord(entry LogEntry, appId string) common_models.Log {
	return common_models.Log{
		Message:      entry.Message,
		Caller:       entry.Caller,
		Fields:       entry.Fields,
		LogLevelId:   mapLevelToInt(entry.Level),
		AppId:        appId,
		CreatedOnUtc: time.Now().UTC(),
	}
}

func mapLevelToInt(l zapcore.Level) int {
	switch l {
	case zapcore.DebugLevel:
		return 10
	case zapcore.InfoLevel:
		return 20
	case zapcore.WarnLevel:
		return 30
	case zapcore.ErrorLevel:
		return 40
	case zapcore.FatalLevel:
		return 50
	default:
		return 20
	}
}
