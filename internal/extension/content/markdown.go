package content

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var markdownChars = regexp.MustCompile("[#*_\\[\\]`]")

type rule struct {
	re   *regexp.Regexp
	repl string
}

// Applied in order; input is already HTML-escaped.
var (
	headerRules = []rule{
		{regexp.MustCompile(`(?m)^###### (.*)$`), "<h6>$1</h6>"},
		{regexp.MustCompile(`(?m)^##### (.*)$`), "<h5>$1</h5>"},
		{regexp.MustCompile(`(?m)^#### (.*)$`), "<h4>$1</h4>"},
		{regexp.MustCompile(`(?m)^### (.*)$`), "<h3>$1</h3>"},
		{regexp.MustCompile(`(?m)^## (.*)$`), "<h2>$1</h2>"},
		{regexp.MustCompile(`(?m)^# (.*)$`), "<h1>$1</h1>"},
	}
	inlineRules = []rule{
		{regexp.MustCompile(`\*\*(.*?)\*\*`), "<strong>$1</strong>"},
		{regexp.MustCompile(`__(.*?)__`), "<strong>$1</strong>"},
		{regexp.MustCompile(`\*(.*?)\*`), "<em>$1</em>"},
		{regexp.MustCompile(`\b_(.*?)_\b`), "<em>$1</em>"},
		{regexp.MustCompile(`\[([^\]]+)\]\(([^)\s]+)\)`), `<a href="$2" target="_blank" rel="noopener noreferrer">$1</a>`},
	}
	listRules = []rule{
		{regexp.MustCompile(`(?m)^[*-] (.*)$`), "<ul><li>$1</li></ul>"},
		{regexp.MustCompile(`(?m)^\d+\. (.*)$`), "<ol><li>$1</li></ol>"},
		{regexp.MustCompile(`</ul>\s*<ul>`), ""},
		{regexp.MustCompile(`</ol>\s*<ol>`), ""},
	}
	codeRules = []rule{
		{regexp.MustCompile("(?s)```[a-zA-Z0-9_-]*\\n?(.*?)```"), "<pre><code>$1</code></pre>"},
		{regexp.MustCompile("`([^`\\n]+)`"), "<code>$1</code>"},
	}
	blockRules = []rule{
		{regexp.MustCompile(`(?m)^&gt; (.*)$`), "<blockquote>$1</blockquote>"},
		{regexp.MustCompile(`(?m)^---+$`), "<hr>"},
	}
	paragraphSplit = regexp.MustCompile(`\n{2,}`)
	// Blocks led by one of these are already block-level and stay unwrapped.
	blockStart = regexp.MustCompile(`^<(h[1-6]|ul|ol|pre|blockquote|hr)[\s>]`)
)

var resultPolicy = newResultPolicy()

func newResultPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(
		"h1", "h2", "h3", "h4", "h5", "h6",
		"strong", "em", "ul", "ol", "li",
		"pre", "code", "blockquote", "hr", "p", "br",
	)
	p.RequireParseableURLs(true)
	p.AllowURLSchemes("http", "https", "mailto")
	p.AllowAttrs("href").OnElements("a")
	p.AllowAttrs("target").Matching(regexp.MustCompile(`^_blank$`)).OnElements("a")
	p.AllowAttrs("rel").Matching(regexp.MustCompile(`^noopener noreferrer$`)).OnElements("a")
	return p
}

// ContainsMarkdown reports whether text has any character the renderer
// treats as markup.
func ContainsMarkdown(text string) bool {
	return markdownChars.MatchString(text)
}

// RenderResult turns model output into HTML safe to show on a page. Text
// without markdown characters is only escaped.
func RenderResult(text string) string {
	if !ContainsMarkdown(text) {
		return html.EscapeString(text)
	}
	return RenderMarkdown(text)
}

// RenderMarkdown converts the small markdown subset models produce into
// sanitized HTML.
func RenderMarkdown(text string) string {
	out := html.EscapeString(strings.ReplaceAll(text, "\r\n", "\n"))

	for _, rules := range [][]rule{headerRules, inlineRules, listRules, codeRules, blockRules} {
		for _, r := range rules {
			out = r.re.ReplaceAllString(out, r.repl)
		}
	}

	out = paragraphs(out)
	return resultPolicy.Sanitize(out)
}

func paragraphs(s string) string {
	blocks := paragraphSplit.Split(s, -1)
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		b = strings.TrimSpace(b)
		if b == "" {
			continue
		}
		if blockStart.MatchString(b) {
			parts = append(parts, b)
			continue
		}
		parts = append(parts, "<p>"+strings.ReplaceAll(b, "\n", "<br>")+"</p>")
	}
	return strings.Join(parts, "")
}
