// Package msinet provides logging for the msinet package.
package msinet

import (
	"log/slog"
	"sync"

	"github.com/histolab/msinet-go/internal/logging"
)

var (
	serviceLogger *slog.Logger
	initOnce      sync.Once
)

// getLogger returns the package logger scoped to the msinet service.
// Uses sync.Once to ensure the logger is only initialized once.
func getLogger() *slog.Logger {
	initOnce.Do(func() {
		serviceLogger = logging.ForService("msinet")
		if serviceLogger == nil {
			serviceLogger = slog.Default()
		}
	})
	return serviceLogger
}
