package components

import (
	"regexp"
	"strings"

	"github.com/Rorical/RoriBuddy/ui/styles"
)

var (
	orderedItem = regexp.MustCompile(`^(\d+)\.\s+(.*)`)
	inlineCode  = regexp.MustCompile("`[^`]+`")
	boldText    = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicText  = regexp.MustCompile(`(^|[^*])\*([^*\s][^*]*)\*`)
	linkText    = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
)

// RenderMarkdown applies the small subset of markdown chat replies use:
// fenced code, headings, lists, inline code, links, bold and *emotes*.
func RenderMarkdown(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	out := make([]string, 0, len(lines))
	inCode := false

	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inCode = !inCode
			continue
		}
		if inCode {
			out = append(out, styles.CodeStyle().Render(line))
			continue
		}

		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "#"):
			out = append(out, styles.BoldStyle().Render(inline(strings.TrimSpace(strings.TrimLeft(trimmed, "#")))))
		case strings.HasPrefix(trimmed, "- "), strings.HasPrefix(trimmed, "* "):
			out = append(out, styles.ListStyle().Render("• "+inline(trimmed[2:])))
		case orderedItem.MatchString(trimmed):
			m := orderedItem.FindStringSubmatch(trimmed)
			out = append(out, styles.ListStyle().Render(m[1]+". "+inline(m[2])))
		default:
			out = append(out, inline(line))
		}
	}
	return strings.Join(out, "\n")
}

func inline(line string) string {
	line = inlineCode.ReplaceAllStringFunc(line, func(m string) string {
		return styles.CodeStyle().Render(strings.Trim(m, "`"))
	})
	line = linkText.ReplaceAllString(line, "$1 ($2)")
	line = boldText.ReplaceAllStringFunc(line, func(m string) string {
		return styles.BoldStyle().Render(strings.Trim(m, "*"))
	})
	return italicText.ReplaceAllStringFunc(line, func(m string) string {
		sub := italicText.FindStringSubmatch(m)
		return sub[1] + styles.ItalicStyle().Render(sub[2])
	})
}
