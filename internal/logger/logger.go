package logger

import (
	"litterbugs/internal/config"
	"litterbugs/internal/database"

	"go.uber.org/zap"
)

// NewLogger builds the console logger and tees every entry into the MongoDB
// log sink.
func NewLogger(cfg *config.Config, mongodb *database.MongodbDB) (*zap.Logger, error) {
	baseLogger, err := NewConsoleLogger(cfg)
	if err != nil {
		return nil, err
	}

	dbWriter := NewDBLogWriter(mongodb, cfg)
	finalCore := NewDBCore(baseLogger.Core(), dbWriter)

	return zap.New(finalCore, zap.AddCaller()), nil
}

// NewConsoleLogger is the logger used by tools that have no database.
func NewConsoleLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapConfig zap.Config
	if cfg.IsProduction() {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	// Caller function name is persisted by the DB sink
	zapConfig.EncoderConfig.FunctionKey = "func"

	return zapConfig.Build()
}
