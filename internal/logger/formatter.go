package logger

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// buildLogEntry wraps one line in the Loki push API envelope.
func buildLogEntry(level, message string, attrs []slog.Attr) map[string]any {
	return map[string]any{
		"streams": []map[string]any{
			{
				"stream": map[string]string{
					"level": level,
					"job":   serviceName(),
				},
				"values": [][]string{
					{
						fmt.Sprintf("%d", time.Now().UnixNano()),
						buildLogLine(level, message, attrs),
					},
				},
			},
		},
	}
}

func buildLogLine(level, message string, attrs []slog.Attr) string {
	logData := map[string]any{
		"level":   level,
		"message": message,
		"time":    time.Now().Format(time.RFC3339),
	}

	for _, attr := range attrs {
		logData[attr.Key] = attr.Value.Any()
	}

	jsonBytes, _ := json.Marshal(logData)
	return string(jsonBytes)
}
