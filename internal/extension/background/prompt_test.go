package background

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heysagnik/chikki/internal/extension/protocol"
)

func TestBuildPrompt(t *testing.T) {
	tests := []struct {
		kind string
		data protocol.Data
		want string
	}{
		{
			kind: KindFixGrammar,
			data: protocol.Data{Text: "i has a apple"},
			want: "Correct the grammar and spelling errors in the following text. Only output the corrected text:\n\n\"i has a apple\"",
		},
		{
			kind: KindChangeTone,
			data: protocol.Data{Text: "hey", Tone: "formal"},
			want: "Rewrite the following text in a formal tone. Only output the rewritten text:\n\n\"hey\"",
		},
		{
			kind: KindFindInfo,
			data: protocol.Data{Text: "quantum"},
			want: "Based on the following text, provide relevant information, key concepts, or related case studies. If possible, suggest search terms to find detailed sources:\n\nContext: General writing\n\nText: \"quantum\"",
		},
		{
			kind: KindFindInfo,
			data: protocol.Data{Text: "quantum", Context: "Physics essay"},
			want: "Based on the following text, provide relevant information, key concepts, or related case studies. If possible, suggest search terms to find detailed sources:\n\nContext: Physics essay\n\nText: \"quantum\"",
		},
		{
			kind: KindAutocomplete,
			data: protocol.Data{Text: "Once upon"},
			want: "Continue the following text naturally:\n\n\"Once upon\"",
		},
		{
			kind: KindRewrite,
			data: protocol.Data{Text: "x"},
			want: "Rewrite the following text to improve clarity and flow. Only output the rewritten text:\n\n\"x\"",
		},
		{
			kind: KindExplain,
			data: protocol.Data{Text: "say \"hi\""},
			want: "Explain the following text simply:\n\n\"say \"hi\"\"",
		},
		{
			kind: KindTranslate,
			data: protocol.Data{Text: "hello", Language: "French"},
			want: "Translate the following text to French. Only output the translation:\n\n\"hello\"",
		},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			got, err := BuildPrompt(tt.kind, tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildPromptInvalid(t *testing.T) {
	tests := []struct {
		name string
		kind string
		data protocol.Data
	}{
		{"tone missing", KindChangeTone, protocol.Data{Text: "x"}},
		{"language missing", KindTranslate, protocol.Data{Text: "x"}},
		{"unknown kind", "summarize", protocol.Data{Text: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildPrompt(tt.kind, tt.data)
			assert.ErrorIs(t, err, ErrInvalidAction)
		})
	}
}

func TestClassifyHealth(t *testing.T) {
	tests := []struct {
		status string
		want   protocol.Health
	}{
		{"operational", protocol.HealthOnline},
		{"All systems Operational", protocol.HealthOnline},
		{"Ready to assist", protocol.HealthOnline},
		{"degraded", protocol.HealthWarning},
		{"Scheduled maintenance", protocol.HealthWarning},
		{"down", protocol.HealthOffline},
		{"", protocol.HealthOffline},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyHealth(tt.status))
		})
	}
}
