// Package logger configures structured logging for the game master.
// Every operator transition should be traceable through this.
package logger

import (
	"fmt"

	"go.uber.org/zap"
)

// Init builds the process-wide zap logger and installs it as the global,
// so library packages can reach it through zap.L(). Verbose selects debug
// level; otherwise info and above.
func Init(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if verbose {
		cfg.Level.SetLevel(zap.DebugLevel)
	} else {
		cfg.Level.SetLevel(zap.InfoLevel)
	}

	lgr, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	zap.ReplaceGlobals(lgr)
	return lgr, nil
}
