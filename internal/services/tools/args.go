package tools

import (
	"encoding/json"
	"fmt"

	"github.com/ternarybob/syllabus/internal/models"
)

// decodeArgs converts the model-supplied argument map into a typed struct and
// validates it.
func decodeArgs(args map[string]any, target any) error {
	raw, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("unreadable arguments: %w", err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("malformed arguments: %w", err)
	}
	if err := models.Validator().Struct(target); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// intValue reads a metadata number regardless of the width it was stored with.
func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
