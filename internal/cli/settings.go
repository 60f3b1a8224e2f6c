package cli

import (
	"fmt"
	"strconv"

	"github.com/heysagnik/chikki/internal/extension/protocol"
)

func applySetting(s *protocol.Settings, key, value string) error {
	switch key {
	case "tone":
		s.DefaultTone = value
	case "language":
		s.DefaultLanguage = value
	case "context":
		s.FindInfoContext = value
	case "min-loading":
		ms, err := strconv.Atoi(value)
		if err != nil || ms < 0 {
			return fmt.Errorf("min-loading must be a non-negative number of milliseconds, got %q", value)
		}
		s.MinLoadingMillis = ms
	case "show-icon":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("show-icon must be true or false, got %q", value)
		}
		s.ShowIcon = b
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	return nil
}
