package errors

import (
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
)

// UserMessage returns a user-friendly error message
func UserMessage(err error) string {
	if cErr, ok := As(err); ok {
		return formatUserError(cErr)
	}
	return err.Error()
}

func formatUserError(cErr *ConformError) string {
	switch cErr.Type {
	case ErrorTypeValidation:
		if field, ok := cErr.Context["field"]; ok {
			return fmt.Sprintf("Invalid %s: %s", field, cErr.Message)
		}
	case ErrorTypeNetwork:
		if url, ok := cErr.Context["url"]; ok {
			return fmt.Sprintf("Network error accessing %s: %s", url, cErr.Message)
		}
	case ErrorTypeConfig:
		if configType, ok := cErr.Context["config_type"]; ok {
			return fmt.Sprintf("Configuration error (%s): %s", configType, cErr.Message)
		}
	case ErrorTypeOpenAPI:
		if title, ok := cErr.Context["definition"]; ok {
			return fmt.Sprintf("Definition %s: %s", title, cErr.Message)
		}
	case ErrorTypeConformance:
		failed, hasFailed := cErr.Context["failed"]
		total, hasTotal := cErr.Context["total"]
		if hasFailed && hasTotal {
			return fmt.Sprintf("%v of %v cases failed", failed, total)
		}
	}
	return cErr.Message
}

// PresentError writes the user message and any suggestion to w. The full
// error detail goes to the global logger at debug level.
func PresentError(w io.Writer, err error) {
	if err == nil {
		return
	}

	fmt.Fprintf(w, "Error: %s\n", UserMessage(err))
	if cErr, ok := As(err); ok {
		if suggestion, ok := cErr.Context["suggestion"]; ok {
			fmt.Fprintf(w, "Hint: %v\n", suggestion)
		}
	}
	log.Debug().Fields(DebugInfo(err)).Msg("command failed")
}

// DebugInfo returns detailed error information for debugging
func DebugInfo(err error) map[string]interface{} {
	info := map[string]interface{}{
		"error":   err.Error(),
		"type":    "unknown",
		"context": map[string]interface{}{},
	}

	if cErr, ok := As(err); ok {
		info["type"] = string(cErr.Type)
		info["message"] = cErr.Message
		info["context"] = cErr.Context

		if cErr.Cause != nil {
			info["cause"] = cErr.Cause.Error()
		}
	}

	return info
}
