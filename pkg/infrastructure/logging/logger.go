package logging

import (
	"fmt"

	"github.com/taechang/production-core/pkg/infrastructure/config"
	"go.uber.org/zap"
)

// New builds a zap logger: production (json) encoding when cfg.Format is
// "json", development (console) otherwise.
func New(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info", "":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		return nil, fmt.Errorf("unknown log level: %s", cfg.Level)
	}

	// CLI output goes to stdout; logs stay on stderr.
	zapCfg.OutputPaths = []string{"stderr"}
	return zapCfg.Build()
}
