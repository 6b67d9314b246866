package logging

import (
	"testing"

	"github.com/taechang/production-core/pkg/infrastructure/config"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.LogConfig
		enabled zap.AtomicLevel
		wantErr bool
	}{
		{"json info", config.LogConfig{Level: "info", Format: "json"}, zap.NewAtomicLevelAt(zap.InfoLevel), false},
		{"console debug", config.LogConfig{Level: "debug", Format: "console"}, zap.NewAtomicLevelAt(zap.DebugLevel), false},
		{"empty level", config.LogConfig{}, zap.NewAtomicLevelAt(zap.InfoLevel), false},
		{"unknown level", config.LogConfig{Level: "chatty"}, zap.AtomicLevel{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			level := tt.enabled.Level()
			if !logger.Core().Enabled(level) {
				t.Errorf("Expected level %s enabled", level)
			}
			if level > zap.DebugLevel && logger.Core().Enabled(level-1) {
				t.Errorf("Expected level %s disabled", level-1)
			}
		})
	}
}
