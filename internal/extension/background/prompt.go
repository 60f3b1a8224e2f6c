package background

import (
	"fmt"

	"github.com/heysagnik/chikki/internal/extension/protocol"
)

// AI action kinds.
const (
	KindFixGrammar   = "fixGrammar"
	KindChangeTone   = "changeTone"
	KindFindInfo     = "findInfo"
	KindAutocomplete = "autocomplete"
	KindRewrite      = "rewrite"
	KindExplain      = "explain"
	KindTranslate    = "translate"
)

// Kinds lists every supported action kind.
var Kinds = []string{
	KindFixGrammar,
	KindChangeTone,
	KindFindInfo,
	KindAutocomplete,
	KindRewrite,
	KindExplain,
	KindTranslate,
}

const defaultFindInfoContext = "General writing"

// BuildPrompt renders the prompt for an action kind. Unknown kinds and a
// missing tone or language return ErrInvalidAction.
func BuildPrompt(kind string, d protocol.Data) (string, error) {
	text := d.Text
	switch kind {
	case KindFixGrammar:
		return "Correct the grammar and spelling errors in the following text. Only output the corrected text:\n\n" + quote(text), nil
	case KindChangeTone:
		if d.Tone == "" {
			return "", ErrInvalidAction
		}
		return fmt.Sprintf("Rewrite the following text in a %s tone. Only output the rewritten text:\n\n%s", d.Tone, quote(text)), nil
	case KindFindInfo:
		ctx := d.Context
		if ctx == "" {
			ctx = defaultFindInfoContext
		}
		return fmt.Sprintf("Based on the following text, provide relevant information, key concepts, or related case studies. If possible, suggest search terms to find detailed sources:\n\nContext: %s\n\nText: %s", ctx, quote(text)), nil
	case KindAutocomplete:
		return "Continue the following text naturally:\n\n" + quote(text), nil
	case KindRewrite:
		return "Rewrite the following text to improve clarity and flow. Only output the rewritten text:\n\n" + quote(text), nil
	case KindExplain:
		return "Explain the following text simply:\n\n" + quote(text), nil
	case KindTranslate:
		if d.Language == "" {
			return "", ErrInvalidAction
		}
		return fmt.Sprintf("Translate the following text to %s. Only output the translation:\n\n%s", d.Language, quote(text)), nil
	default:
		return "", ErrInvalidAction
	}
}

// quote wraps text in double quotes without escaping its contents.
func quote(text string) string {
	return `"` + text + `"`
}
