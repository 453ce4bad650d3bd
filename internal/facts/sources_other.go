//go:build !linux && !windows

package facts

import "go.uber.org/zap"

// newNativeSources falls back to gopsutil on platforms without a dedicated backend
func newNativeSources(opts Options, logger *zap.Logger) Sources {
	return newGopsutilSources(opts, logger)
}
