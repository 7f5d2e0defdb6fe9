package delivery

import (
	"html"
	"strings"
)

// RenderHTML converts a markdown-shaped newsletter body into simple email
// HTML. It handles the constructs the composer actually emits: headings,
// bullet lists, and paragraphs. Everything is escaped; generated content is
// not trusted markup.
func RenderHTML(body string) string {
	var b strings.Builder
	b.WriteString(`<div style="font-family: -apple-system, Helvetica, Arial, sans-serif; max-width: 640px; margin: 0 auto; line-height: 1.6;">`)

	inList := false
	closeList := func() {
		if inList {
			b.WriteString("</ul>")
			inList = false
		}
	}

	var paragraph []string
	flushParagraph := func() {
		if len(paragraph) == 0 {
			return
		}
		b.WriteString("<p>")
		b.WriteString(html.EscapeString(strings.Join(paragraph, " ")))
		b.WriteString("</p>")
		paragraph = paragraph[:0]
	}

	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)

		switch {
		case line == "":
			flushParagraph()
			closeList()
		case strings.HasPrefix(line, "## "):
			flushParagraph()
			closeList()
			b.WriteString("<h2>")
			b.WriteString(html.EscapeString(strings.TrimPrefix(line, "## ")))
			b.WriteString("</h2>")
		case strings.HasPrefix(line, "# "):
			flushParagraph()
			closeList()
			b.WriteString("<h1>")
			b.WriteString(html.EscapeString(strings.TrimPrefix(line, "# ")))
			b.WriteString("</h1>")
		case strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* "):
			flushParagraph()
			if !inList {
				b.WriteString("<ul>")
				inList = true
			}
			b.WriteString("<li>")
			b.WriteString(html.EscapeString(line[2:]))
			b.WriteString("</li>")
		default:
			paragraph = append(paragraph, line)
		}
	}

	flushParagraph()
	closeList()
	b.WriteString("</div>")

	return b.String()
}
