package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderChat(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello", "hello"},
		{"bold", "a **b** c", "a <strong>b</strong> c"},
		{"newlines", "one\ntwo", "one<br>two"},
		{"blank line runs collapse", "one\n\n\n\n\ntwo", "one<br><br>two"},
		{"bullets", "Plan:\n- walk\n* lift\n• rest", "Plan:<ul><li>walk</li><li>lift</li><li>rest</li></ul>"},
		{"numbered", "1. warm up\n2) stretch", "<ul><li>warm up</li><li>stretch</li></ul>"},
		{"phase header alone", "**Phase 2:**\nIncrease load", "<strong>Phase 2:</strong><br>Increase load"},
		{"phase header bold title", "**Phase 3: Peak**", "<strong>Phase 3:</strong><br>Peak"},
		{"heading", "## Summary\ntext", "<strong>Summary</strong><br>text"},
		{"escapes markup", "<b>x</b>", "&lt;b&gt;x&lt;/b&gt;"},
		{"adjacent bold merges", "**a****b**", "<strong>ab</strong>"},
		{"stray markers dropped", "half **bold", "half bold"},
		{"list then text", "- a\nafter", "<ul><li>a</li></ul>after"},
		{"crlf", "a\r\nb", "a<br>b"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, RenderChat(tc.in))
		})
	}
}
