package content

import (
	"html"
	"regexp"
	"strings"
)

var (
	boldPattern    = regexp.MustCompile(`\*\*(.+?)\*\*`)
	phasePattern   = regexp.MustCompile(`(?i)^\*{0,2}\s*(phase\s+\d+\s*:)\s*\*{0,2}\s*(.*)$`)
	headingPattern = regexp.MustCompile(`^#{1,6}\s+(.+)$`)
	bulletPattern  = regexp.MustCompile(`^(?:[-*•]|\d+[.)])\s+(.+)$`)
	breakRun       = regexp.MustCompile(`(?:<br>){3,}`)
)

// RenderChat converts the small markdown subset assistants emit into markup:
// **bold**, bullet and numbered lists, "Phase N:" headers, # headings and
// line breaks. Input text is HTML-escaped first.
func RenderChat(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")

	var b strings.Builder
	inList := false
	suppressBreak := true
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if m := bulletPattern.FindStringSubmatch(trimmed); m != nil && !phasePattern.MatchString(trimmed) {
			if !inList {
				b.WriteString("<ul>")
				inList = true
			}
			b.WriteString("<li>" + inline(m[1]) + "</li>")
			continue
		}
		if inList {
			b.WriteString("</ul>")
			inList = false
			suppressBreak = true
		}

		if !suppressBreak {
			b.WriteString("<br>")
		}
		suppressBreak = false

		if m := phasePattern.FindStringSubmatch(trimmed); m != nil {
			b.WriteString("<strong>" + html.EscapeString(strings.TrimSpace(m[1])) + "</strong><br>")
			rest := strings.TrimSpace(m[2])
			if rest == "" {
				suppressBreak = true
				continue
			}
			b.WriteString(inline(rest))
			continue
		}
		if m := headingPattern.FindStringSubmatch(trimmed); m != nil {
			b.WriteString("<strong>" + inline(m[1]) + "</strong><br>")
			suppressBreak = true
			continue
		}
		b.WriteString(inline(trimmed))
	}
	if inList {
		b.WriteString("</ul>")
	}
	return collapse(b.String())
}

func inline(s string) string {
	s = html.EscapeString(s)
	s = boldPattern.ReplaceAllString(s, "<strong>$1</strong>")
	// Unpaired markers left after substitution are noise.
	return strings.ReplaceAll(s, "**", "")
}

func collapse(s string) string {
	for _, r := range [][2]string{
		{"<strong><strong>", "<strong>"},
		{"</strong></strong>", "</strong>"},
		{"<strong></strong>", ""},
		{"</strong><strong>", ""},
		{"<br></li>", "</li>"},
		{"<li><br>", "<li>"},
		{"<ul></ul>", ""},
	} {
		s = strings.ReplaceAll(s, r[0], r[1])
	}
	s = breakRun.ReplaceAllString(s, "<br><br>")
	for strings.HasPrefix(s, "<br>") {
		s = strings.TrimPrefix(s, "<br>")
	}
	for strings.HasSuffix(s, "<br>") && !strings.HasSuffix(s, "</strong><br>") {
		s = strings.TrimSuffix(s, "<br>")
	}
	return s
}
