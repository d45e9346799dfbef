package preview

import (
	"regexp"
	"strings"
)

var (
	htmlBlockRegex = regexp.MustCompile("(?s)```html\n(.*?)```")
	cssBlockRegex  = regexp.MustCompile("(?s)```css\n(.*?)```")
)

// Extraction holds the code blocks pulled out of a model response.
type Extraction struct {
	HTML string
	CSS  string
}

// Empty reports whether no code blocks were found.
func (e Extraction) Empty() bool {
	return e.HTML == "" && e.CSS == ""
}

// Blocks lists the fence languages that matched, in document order.
func (e Extraction) Blocks() []string {
	blocks := make([]string, 0, 2)
	if e.HTML != "" {
		blocks = append(blocks, "html")
	}
	if e.CSS != "" {
		blocks = append(blocks, "css")
	}
	return blocks
}

// Extract pulls the first ```html and ```css fenced blocks out of a
// model response. Later blocks of the same language are ignored.
func Extract(content string) Extraction {
	var ex Extraction
	if m := htmlBlockRegex.FindStringSubmatch(content); m != nil {
		ex.HTML = m[1]
	}
	if m := cssBlockRegex.FindStringSubmatch(content); m != nil {
		ex.CSS = m[1]
	}
	return ex
}

// BuildDocument synthesizes a standalone HTML document from an extraction.
// Returns the empty string when there is nothing to preview.
func BuildDocument(ex Extraction) string {
	if ex.Empty() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html><html><head><meta charset='utf-8'><title>Preview</title>")
	if ex.CSS != "" {
		sb.WriteString("<style>")
		sb.WriteString(ex.CSS)
		sb.WriteString("</style>")
	}
	sb.WriteString("</head><body>")
	sb.WriteString(ex.HTML)
	sb.WriteString("</body></html>")
	return sb.String()
}
