package conv

import (
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/inbucket/html2text"
	"github.com/microcosm-cc/bluemonday"
)

var (
	extensions = parser.CommonExtensions | parser.NoEmptyLineBeforeBlock
	tgPolicy   = bluemonday.NewPolicy()

	// No Smartypants: it rewrites "1/2" into a fraction slash and "--" into
	// dashes, which mangles part markers and command lines.
	htmlFlags = html.HrefTargetBlank
)

func init() {
	// Allowed tags https://core.telegram.org/bots/api#html-style
	tgPolicy.AllowElements("b", "strong", "i", "em", "u", "ins", "s", "strike", "del", "code", "pre", "blockquote")
	tgPolicy.AllowAttrs("href").OnElements("a")
	tgPolicy.AllowAttrs("class").OnElements("code")
}

func renderHTML(md []byte) []byte {
	p := parser.NewWithExtensions(extensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: htmlFlags})
	return markdown.Render(p.Parse(md), renderer)
}

func MarkdownToTelegramHTML(md []byte) string {
	unsafeHTML := renderHTML(md)

	// Keep only tags Telegram accepts
	sanitized := tgPolicy.SanitizeBytes(unsafeHTML)

	return string(sanitized)
}

// MarkdownToPlain renders md as plain text for terminals and for chats that
// rejected the HTML version of a message.
func MarkdownToPlain(md []byte) (string, error) {
	return HTMLToPlain(string(renderHTML(md)))
}

// HTMLToPlain strips markup, including unbalanced tags left by splitting.
func HTMLToPlain(s string) (string, error) {
	text, err := html2text.FromString(s, html2text.Options{
		PrettyTables: true,
	})
	if err != nil {
		return "", err
	}
	return text, nil
}
