package markdown

import (
	"html"
	"regexp"
	"strings"

	"github.com/russross/blackfriday/v2"
)

var (
	paragraphTags = regexp.MustCompile(`<p>(.*?)</p>`)
	codeBlockTags = regexp.MustCompile(`(?s)<pre><code(?: class="[^"]*")?>(.*?)</code></pre>`)
	anyTag        = regexp.MustCompile(`</?[a-zA-Z]+(?:\s[^>]*)?/?>`)
	manyNewlines  = regexp.MustCompile(`\n{3,}`)
)

// ToTerminalText converts the model's markdown reply to plain text
// suitable for a terminal: bullets kept, emphasis markers dropped.
func ToTerminalText(markdown string) string {
	if markdown == "" {
		return ""
	}

	out := string(blackfriday.Run([]byte(markdown), blackfriday.WithExtensions(blackfriday.CommonExtensions)))

	// Paragraphs become plain lines
	out = paragraphTags.ReplaceAllString(out, "$1\n")

	// Code blocks keep their content, indented
	out = codeBlockTags.ReplaceAllStringFunc(out, func(match string) string {
		inner := codeBlockTags.FindStringSubmatch(match)[1]
		lines := strings.Split(strings.TrimRight(inner, "\n"), "\n")
		for i, line := range lines {
			lines[i] = "    " + line
		}
		return strings.Join(lines, "\n") + "\n"
	})

	// List items become bullets
	out = strings.ReplaceAll(out, "<li>", "• ")
	out = strings.ReplaceAll(out, "</li>", "\n")

	// Everything else is decoration the terminal cannot use
	out = anyTag.ReplaceAllString(out, "")

	out = html.UnescapeString(out)
	out = manyNewlines.ReplaceAllString(out, "\n\n")

	return strings.TrimSpace(out)
}
