package conv

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdownToTelegramHTML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty input", input: "", expected: ""},
		{name: "plain text", input: "Hello world", expected: "Hello world\n"},
		{name: "bold text", input: "**bold**", expected: "<strong>bold</strong>\n"},
		{
			name:     "part marker keeps its slash",
			input:    "**[Part 2/5]**",
			expected: "<strong>[Part 2/5]</strong>\n",
		},
		{
			name:     "fractions and dashes untouched",
			input:    "use 1/2 of it -- or run --resume",
			expected: "use 1/2 of it -- or run --resume\n",
		},
		{name: "strikethrough", input: "~~gone~~", expected: "<del>gone</del>\n"},
		{
			name:     "code block with language",
			input:    "```go\nfunc main() {}\n```",
			expected: "<pre><code class=\"language-go\">func main() {}\n</code></pre>\n",
		},
		{
			name:     "link keeps only href",
			input:    "[link](https://example.com)",
			expected: "<a href=\"https://example.com\">link</a>\n",
		},
		{name: "header tags stripped", input: "# Info", expected: "Info\n"},
		{name: "script tags sanitized", input: "<script>alert(1)</script>", expected: "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MarkdownToTelegramHTML([]byte(tt.input)))
		})
	}
}

func TestMarkdownToPlain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    []string
		notWant []string
	}{
		{
			name:    "formatting removed",
			input:   "# Title\n\nSome **bold** text and `code`.\n\n- one\n- two",
			want:    []string{"Title", "bold", "code", "one", "two"},
			notWant: []string{"<", "`"},
		},
		{
			name:  "part marker survives",
			input: "**[Part 3/4]**\n\ntail of the reply",
			want:  []string{"[Part 3/4]", "tail of the reply"},
		},
		{
			name:  "flags are not turned into dashes",
			input: "run claude --print --resume",
			want:  []string{"--print --resume"},
		},
		{
			name:    "unclosed raw html",
			input:   "<b>unclosed",
			want:    []string{"unclosed"},
			notWant: []string{"<"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarkdownToPlain([]byte(tt.input))
			require.NoError(t, err)
			for _, w := range tt.want {
				assert.Contains(t, got, w)
			}
			for _, nw := range tt.notWant {
				assert.NotContains(t, got, nw)
			}
		})
	}
}

func TestHTMLToPlain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "unbalanced tags from a split", input: "<b>half of a <i>split</i> message", want: "half of a split message"},
		{name: "telegram piece with marker", input: "<strong>[Part 1/2]</strong>\n\nhello", want: "[Part 1/2]"},
		{name: "entities decoded", input: "a &lt; b &amp;&amp; c", want: "a < b && c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := HTMLToPlain(tt.input)
			require.NoError(t, err)
			assert.Contains(t, got, tt.want)
			assert.False(t, strings.Contains(got, "<strong>") || strings.Contains(got, "<b>"), "markup left in %q", got)
		})
	}
}
