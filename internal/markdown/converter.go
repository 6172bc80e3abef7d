// Package markdown converts Markdown text to the Confluence storage format,
// an XHTML subset with a few service-specific macro elements.
//
// The conversion is a fixed pipeline of passes. The order is part of the
// contract: fenced code blocks are extracted first so nothing else touches
// their bodies, raw markup is escaped before any structural tags are
// generated, and longer emphasis delimiters run before shorter ones so the
// shorter rules cannot partially consume them.
package markdown

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	codeBlockPattern = regexp.MustCompile("(?s)```(\\w+)?\n(.*?)```")
	lineBreakPattern = regexp.MustCompile(`(?i)<br\s*/?\s*>`)
	entityPattern    = regexp.MustCompile(`&amp;([a-zA-Z][a-zA-Z0-9]*|#[0-9]+|#x[0-9a-fA-F]+);`)

	headingPatterns = [6]*regexp.Regexp{
		regexp.MustCompile(`(?m)^###### (.+)$`),
		regexp.MustCompile(`(?m)^##### (.+)$`),
		regexp.MustCompile(`(?m)^#### (.+)$`),
		regexp.MustCompile(`(?m)^### (.+)$`),
		regexp.MustCompile(`(?m)^## (.+)$`),
		regexp.MustCompile(`(?m)^# (.+)$`),
	}

	boldItalicStarPattern  = regexp.MustCompile(`\*\*\*(.+?)\*\*\*`)
	boldItalicUnderPattern = regexp.MustCompile(`___(.+?)___`)
	boldStarPattern        = regexp.MustCompile(`\*\*(.+?)\*\*`)
	boldUnderPattern       = regexp.MustCompile(`__(.+?)__`)
	italicStarPattern      = regexp.MustCompile(`\*(.+?)\*`)
	italicUnderPattern     = regexp.MustCompile(`_(.+?)_`)
	inlineCodePattern      = regexp.MustCompile("`(.+?)`")
	strikePattern          = regexp.MustCompile(`~~(.+?)~~`)
	linkPattern            = regexp.MustCompile(`\[(.+?)\]\((.+?)\)`)

	taskItemPattern  = regexp.MustCompile(`^[-*+] \[([ xX])\] (.+)$`)
	listItemPattern  = regexp.MustCompile(`^[-*+] (.+)$`)
	tableRulePattern = regexp.MustCompile(`^\|(?:\s*:?-+:?\s*\|)+\s*$`)

	paragraphSplitPattern = regexp.MustCompile(`\n{2,}`)
)

// Placeholder runes cannot occur in text and survive the escaping pass
// untouched, which is what protects the extracted blocks.
const breakPlaceholder = "\x00br\x00"

// Convert transforms Markdown text into Confluence storage format. It is a
// pure function: no I/O, deterministic, and it never fails — unrecognized
// constructs pass through as escaped text.
func Convert(markdownText string) string {
	c := &converter{}
	out := markdownText
	for _, pass := range c.pipeline() {
		out = pass(out)
	}
	return out
}

type converter struct {
	codeBlocks []string
}

// pipeline returns the ordered list of passes. Reordering these changes
// observable output; see the package comment.
func (c *converter) pipeline() []func(string) string {
	return []func(string) string{
		c.extractCodeBlocks,
		c.normalizeLineBreaks,
		c.escapeMarkup,
		c.convertHeadings,
		c.convertBoldItalic,
		c.convertBold,
		c.convertItalic,
		c.convertInlineCode,
		c.convertStrikethrough,
		c.convertLinks,
		c.convertTables,
		c.convertLists,
		c.wrapParagraphs,
		c.restoreCodeBlocks,
	}
}

// extractCodeBlocks replaces fenced code blocks with placeholders and stores
// the rendered code macros. Bodies are carried verbatim inside CDATA so no
// later pass can alter them.
func (c *converter) extractCodeBlocks(s string) string {
	return codeBlockPattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := codeBlockPattern.FindStringSubmatch(match)
		lang := groups[1]
		body := groups[2]

		macro := `<ac:structured-macro ac:name="code">` +
			`<ac:parameter ac:name="language">` + lang + `</ac:parameter>` +
			`<ac:plain-text-body><![CDATA[` + body + `]]></ac:plain-text-body>` +
			`</ac:structured-macro>`

		c.codeBlocks = append(c.codeBlocks, macro)
		return c.codePlaceholder(len(c.codeBlocks) - 1)
	})
}

func (c *converter) codePlaceholder(i int) string {
	return fmt.Sprintf("\x00code%d\x00", i)
}

// normalizeLineBreaks rewrites every <br> variant (case-insensitive, with
// optional space and trailing slash) to the canonical self-closing form.
// Code blocks were already extracted, so their bodies are untouched.
func (c *converter) normalizeLineBreaks(s string) string {
	return lineBreakPattern.ReplaceAllString(s, "<br/>")
}

// escapeMarkup escapes literal angle brackets and bare ampersands so that
// arbitrary embedded markup never parses as structural tags downstream. The
// canonical <br/> produced by the previous pass and existing entities are
// exempt.
func (c *converter) escapeMarkup(s string) string {
	s = strings.ReplaceAll(s, "<br/>", breakPlaceholder)

	s = strings.ReplaceAll(s, "&", "&amp;")
	s = entityPattern.ReplaceAllString(s, "&$1;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")

	return strings.ReplaceAll(s, breakPlaceholder, "<br/>")
}

// convertHeadings converts 1-6 leading hash marks to heading tags, longest
// prefix first so "######" is never consumed by the "#" rule.
func (c *converter) convertHeadings(s string) string {
	for i, pattern := range headingPatterns {
		level := 6 - i
		s = pattern.ReplaceAllString(s, fmt.Sprintf("<h%d>$1</h%d>", level, level))
	}
	return s
}

func (c *converter) convertBoldItalic(s string) string {
	s = boldItalicStarPattern.ReplaceAllString(s, "<strong><em>$1</em></strong>")
	return boldItalicUnderPattern.ReplaceAllString(s, "<strong><em>$1</em></strong>")
}

func (c *converter) convertBold(s string) string {
	s = boldStarPattern.ReplaceAllString(s, "<strong>$1</strong>")
	return boldUnderPattern.ReplaceAllString(s, "<strong>$1</strong>")
}

func (c *converter) convertItalic(s string) string {
	s = italicStarPattern.ReplaceAllString(s, "<em>$1</em>")
	return italicUnderPattern.ReplaceAllString(s, "<em>$1</em>")
}

func (c *converter) convertInlineCode(s string) string {
	return inlineCodePattern.ReplaceAllString(s, "<code>$1</code>")
}

func (c *converter) convertStrikethrough(s string) string {
	return strikePattern.ReplaceAllString(s, "<del>$1</del>")
}

func (c *converter) convertLinks(s string) string {
	return linkPattern.ReplaceAllString(s, `<a href="$2">$1</a>`)
}

// convertTables converts pipe tables (a header row, a --- separator row, and
// body rows) into table markup. Inline passes already ran, so cell content
// keeps its emphasis tags.
func (c *converter) convertTables(s string) string {
	lines := strings.Split(s, "\n")
	var result []string

	for i := 0; i < len(lines); i++ {
		header := strings.TrimSpace(lines[i])
		if !isTableRow(header) || i+1 >= len(lines) || !tableRulePattern.MatchString(strings.TrimSpace(lines[i+1])) {
			result = append(result, lines[i])
			continue
		}

		var rows []string
		rows = append(rows, "<tr>"+renderCells(header, "th")+"</tr>")

		j := i + 2
		for ; j < len(lines); j++ {
			row := strings.TrimSpace(lines[j])
			if !isTableRow(row) {
				break
			}
			rows = append(rows, "<tr>"+renderCells(row, "td")+"</tr>")
		}

		result = append(result, "<table>"+strings.Join(rows, "")+"</table>")
		i = j - 1
	}

	return strings.Join(result, "\n")
}

func isTableRow(line string) bool {
	return strings.HasPrefix(line, "|") && strings.HasSuffix(line, "|") && len(line) > 1
}

func renderCells(row, tag string) string {
	cells := strings.Split(row, "|")
	cells = cells[1 : len(cells)-1] // leading and trailing pipe produce empty fields

	var sb strings.Builder
	for _, cell := range cells {
		sb.WriteString("<" + tag + ">")
		sb.WriteString(strings.TrimSpace(cell))
		sb.WriteString("</" + tag + ">")
	}
	return sb.String()
}

// convertLists wraps contiguous runs of -, *, or + items in list markup.
// Task-list items keep their state as a checkbox glyph.
func (c *converter) convertLists(s string) string {
	lines := strings.Split(s, "\n")
	var result []string
	inList := false

	for _, line := range lines {
		var item string
		if m := taskItemPattern.FindStringSubmatch(line); m != nil {
			glyph := "&#9744;"
			if m[1] != " " {
				glyph = "&#9745;"
			}
			item = "<li>" + glyph + " " + m[2] + "</li>"
		} else if m := listItemPattern.FindStringSubmatch(line); m != nil {
			item = "<li>" + m[1] + "</li>"
		}

		if item != "" {
			if !inList {
				result = append(result, "<ul>")
				inList = true
			}
			result = append(result, item)
			continue
		}

		if inList {
			result = append(result, "</ul>")
			inList = false
		}
		result = append(result, line)
	}
	if inList {
		result = append(result, "</ul>")
	}

	return strings.Join(result, "\n")
}

// wrapParagraphs splits on blank lines and wraps any paragraph not already
// starting with generated markup (or an extracted code block) in <p> tags.
func (c *converter) wrapParagraphs(s string) string {
	paragraphs := paragraphSplitPattern.Split(s, -1)
	wrapped := make([]string, 0, len(paragraphs))

	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para != "" && !strings.HasPrefix(para, "<") && !strings.HasPrefix(para, "\x00") {
			para = "<p>" + para + "</p>"
		}
		wrapped = append(wrapped, para)
	}

	return strings.Join(wrapped, "\n")
}

func (c *converter) restoreCodeBlocks(s string) string {
	for i, macro := range c.codeBlocks {
		s = strings.Replace(s, c.codePlaceholder(i), macro, 1)
	}
	return s
}
