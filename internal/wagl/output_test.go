package wagl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   string
		wantOK bool
	}{
		{
			name:   "canonical and wrapped related",
			raw:    `{"canonical":{"name":"Alex"},"related":[{"item":{"text":"likes tea"}}]}`,
			want:   "**name:** Alex\n- likes tea",
			wantOK: true,
		},
		{
			name:   "canonical keeps key order",
			raw:    `{"canonical":{"zeta":"last letter","alpha":"first letter"}}`,
			want:   "**zeta:** last letter\n**alpha:** first letter",
			wantOK: true,
		},
		{
			name:   "canonical object values are compacted",
			raw:    `{"canonical":{"rules":{ "tabs" : false,  "lang": "go" }}}`,
			want:   `**rules:** {"tabs":false,"lang":"go"}`,
			wantOK: true,
		},
		{
			name:   "canonical string values are trimmed",
			raw:    `{"canonical":{"focus":"   shipping v2  "}}`,
			want:   "**focus:** shipping v2",
			wantOK: true,
		},
		{
			name:   "related prefers text then content then summary",
			raw:    `{"related":[{"item":{"content":"from content","summary":"from summary"}},{"summary":"flat summary"},{"text":"flat text","content":"ignored"}]}`,
			want:   "- from content\n- flat summary\n- flat text",
			wantOK: true,
		},
		{
			name:   "related entries without text are skipped",
			raw:    `{"related":[{"item":{"id":1}},{"score":0.3},"bare",{"item":{"text":"   "}},{"item":{"text":"kept"}}]}`,
			want:   "- kept",
			wantOK: true,
		},
		{
			name:   "related envelope falls back to flat fields",
			raw:    `{"related":[{"item":{"id":7},"text":"outside the envelope"}]}`,
			want:   "- outside the envelope",
			wantOK: true,
		},
		{
			name:   "structured with no lines is absent",
			raw:    `{"canonical":{},"related":[]}`,
			wantOK: false,
		},
		{
			name:   "unexpected shapes are absent",
			raw:    `{"canonical":"nope","related":{"text":"not a list"}}`,
			wantOK: false,
		},
		{
			name:   "empty output",
			raw:    "",
			wantOK: false,
		},
		{
			name:   "whitespace output",
			raw:    " \n\t ",
			wantOK: false,
		},
		{
			name:   "short plain text",
			raw:    "no match",
			wantOK: false,
		},
		{
			name:   "exactly ten characters",
			raw:    "0123456789",
			wantOK: false,
		},
		{
			name:   "eleven characters of plain text",
			raw:    "  01234567890\n",
			want:   "01234567890",
			wantOK: true,
		},
		{
			name:   "malformed json is plain text",
			raw:    `{"canonical": {"name": "Alex"`,
			want:   `{"canonical": {"name": "Alex"`,
			wantOK: true,
		},
		{
			name:   "prose output",
			raw:    "You prefer concise answers and work on the billing service.\n",
			want:   "You prefer concise answers and work on the billing service.",
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Normalize(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseOutput_Kinds(t *testing.T) {
	assert.Equal(t, OutputEmpty, ParseOutput("").Kind)
	assert.Equal(t, OutputText, ParseOutput("plain words here").Kind)
	assert.Equal(t, OutputStructured, ParseOutput(`{"related":[]}`).Kind)
	assert.Equal(t, OutputText, ParseOutput(`{"related": [ truncated`).Kind, "invalid JSON is treated as text")
}

func TestParseOutput_NonObjectJSONIsEmpty(t *testing.T) {
	for _, raw := range []string{
		`[{"text":"likes tea"}]`,
		`"just a json string value"`,
		`12345678901234`,
		`null`,
	} {
		out := ParseOutput(raw)
		assert.Equal(t, OutputEmpty, out.Kind, raw)

		_, ok := out.Render()
		assert.False(t, ok, raw)
	}
}

func TestNormalize_NullCanonicalValue(t *testing.T) {
	got, ok := Normalize(`{"canonical":{"a":null,"b":5,"c":" x "},"related":[{"text":"s"}]}`)
	require.True(t, ok)
	assert.Equal(t, "**a:** null\n**b:** 5\n**c:** x\n- s", got)
}

func TestParseOutput_DuplicateCanonicalKeys(t *testing.T) {
	out := ParseOutput(`{"canonical":{"a":"1","b":"2","a":"3"}}`)
	require.Equal(t, OutputStructured, out.Kind)
	require.Len(t, out.Document.Canonical, 2)

	got, ok := out.Render()
	require.True(t, ok)
	assert.Equal(t, "**a:** 3\n**b:** 2", got)
}
