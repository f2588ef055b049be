package application

import "log/slog"

const ModuleName = "battle-arena/battle-engine"

func ResolveLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}
