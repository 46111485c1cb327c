package logger

import (
	"fmt"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/heavens/lambdahttp/internal/constants"

	"github.com/lmittmann/tint"
)

// Initialize sets up the global slog logger based on the environment.
// Production logs are JSON, which CloudWatch indexes; everything else goes through a
// colored handler that flattens map attributes into key=value pairs.
func Initialize(env constants.Environment, level slog.Level) *slog.Logger {
	var handler slog.Handler

	if env == constants.Production {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = tint.NewHandler(os.Stderr, &tint.Options{
			Level:       level,
			TimeFormat:  time.Kitchen,
			ReplaceAttr: replaceAttrForDev,
			NoColor:     os.Getenv("NO_COLOR") != "",
		})
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("logger initialized", "env", env, "level", level)

	return logger
}

// replaceAttrForDev renders map attributes as sorted, dotted key=value pairs.
func replaceAttrForDev(_ []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() != slog.KindAny {
		return a
	}

	switch a.Value.Any().(type) {
	case map[string]string, map[string]any:
		return slog.String(a.Key, flattenMapAttr(a.Key, a.Value.Any()))
	default:
		return a
	}
}

func flattenMapAttr(prefix string, value any) string {
	var pairs []string

	switch m := value.(type) {
	case map[string]string:
		for _, key := range slices.Sorted(maps.Keys(m)) {
			pairs = append(pairs, joinKey(prefix, key)+"="+m[key])
		}
	case map[string]any:
		for _, key := range slices.Sorted(maps.Keys(m)) {
			switch nested := m[key].(type) {
			case map[string]string, map[string]any:
				pairs = append(pairs, flattenMapAttr(joinKey(prefix, key), nested))
			default:
				pairs = append(pairs, fmt.Sprintf("%s=%v", joinKey(prefix, key), nested))
			}
		}
	default:
		return fmt.Sprintf("%v", value)
	}

	return strings.Join(pairs, " ")
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
