package logger

import (
	"go.uber.org/zap"
)

var Log *zap.Logger

// Init builds the global zap logger. Call once from main before anything logs.
func Init() {
	var err error
	Log, err = zap.NewProduction()
	if err != nil {
		panic("failed to initialize zap logger: " + err.Error())
	}
}
