// Package logging builds the service logger: an ectologger front sinking
// structured messages through zap.
package logging

import (
	"encoding/json"

	"github.com/Gobusters/ectologger"
	"go.uber.org/zap"
)

// NewLogger creates the service logger. The returned flush function should
// run on shutdown.
func NewLogger(level string, pretty bool) (ectologger.Logger, func(), error) {
	zcfg := zap.NewProductionConfig()
	if pretty {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = parseLevel(level)
	zcfg.DisableCaller = true
	zcfg.DisableStacktrace = true

	zl, err := zcfg.Build()
	if err != nil {
		return nil, nil, err
	}

	sink := func(msg ectologger.EctoLogMessage) {
		data, err := json.Marshal(msg)
		if err != nil {
			zl.Warn("failed to encode log message", zap.Error(err))
			return
		}
		zl.Info(string(data))
	}

	flush := func() { _ = zl.Sync() }
	return ectologger.NewEctoLogger(sink), flush, nil
}

func parseLevel(level string) zap.AtomicLevel {
	parsed, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return parsed
}
