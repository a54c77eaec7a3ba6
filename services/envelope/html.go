package envelope

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jaytaylor/html2text"
	"github.com/microcosm-cc/bluemonday"
)

var sanitizer = bluemonday.NewPolicy().AllowElements(
	"p", "br", "div", "span", "a", "strong", "em", "b", "i", "ul", "ol", "li",
	"table", "tr", "td", "th", "thead", "tbody", "blockquote", "pre", "h1",
	"h2", "h3", "h4", "h5", "h6",
).AllowAttrs("href").OnElements("a")

// renderPlainText flattens an HTML body to plain text: strip script/style
// (never meaningful as text), sanitize the remaining markup, then render
// to plain text. Lines are not wrapped to a fixed column width.
func renderPlainText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err == nil {
		doc.Find("script, style").Remove()
		html, _ = doc.Html()
	}

	clean := sanitizer.Sanitize(html)

	// html2text neither wraps lines nor truncates wide tokens (long URLs,
	// emoji); each text block keeps its full length.
	text, err := html2text.FromString(clean, html2text.Options{PrettyTables: false})
	if err != nil {
		return "", err
	}
	return text, nil
}
