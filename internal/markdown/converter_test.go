package markdown

import (
	"encoding/xml"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertHeadings(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "h1",
			input:    "# Title",
			expected: "<h1>Title</h1>",
		},
		{
			name:     "h3",
			input:    "### Section",
			expected: "<h3>Section</h3>",
		},
		{
			name:     "h6",
			input:    "###### Deep",
			expected: "<h6>Deep</h6>",
		},
		{
			name:     "heading followed by paragraph",
			input:    "# Title\n\nSome text",
			expected: "<h1>Title</h1>\n<p>Some text</p>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Convert(tt.input))
		})
	}
}

func TestConvertEmphasis(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		// A paragraph that already starts with generated markup is not
		// wrapped in <p>, so bare emphasis comes back unwrapped.
		{
			name:     "bold stars",
			input:    "**bold**",
			expected: "<strong>bold</strong>",
		},
		{
			name:     "bold underscores",
			input:    "__bold__",
			expected: "<strong>bold</strong>",
		},
		{
			name:     "italic stars",
			input:    "*italic*",
			expected: "<em>italic</em>",
		},
		{
			name:     "italic underscores",
			input:    "_italic_",
			expected: "<em>italic</em>",
		},
		{
			name:     "bold italic stars",
			input:    "***both***",
			expected: "<strong><em>both</em></strong>",
		},
		{
			name:     "bold italic underscores",
			input:    "___both___",
			expected: "<strong><em>both</em></strong>",
		},
		{
			name:     "mixed emphasis in one line",
			input:    "a **b** and *c*",
			expected: "<p>a <strong>b</strong> and <em>c</em></p>",
		},
		{
			name:     "strikethrough",
			input:    "~~gone~~",
			expected: "<del>gone</del>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Convert(tt.input))
		})
	}
}

func TestConvertBoldItalicNotMisnested(t *testing.T) {
	out := Convert("***x***")
	assert.Contains(t, out, "<strong><em>x</em></strong>")
	assert.NotContains(t, out, "<em><strong>")
}

func TestConvertInlineCode(t *testing.T) {
	assert.Equal(t, "<p>run <code>confsync check</code> first</p>",
		Convert("run `confsync check` first"))
}

func TestConvertLinks(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple link",
			input:    "[docs](https://example.com/docs)",
			expected: `<a href="https://example.com/docs">docs</a>`,
		},
		{
			name:     "link inside sentence",
			input:    "see [the guide](https://example.com) for details",
			expected: `<p>see <a href="https://example.com">the guide</a> for details</p>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Convert(tt.input))
		})
	}
}

func TestConvertLists(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "dash items",
			input:    "- one\n- two",
			expected: "<ul>\n<li>one</li>\n<li>two</li>\n</ul>",
		},
		{
			name:     "star items",
			input:    "* one\n* two",
			expected: "<ul>\n<li>one</li>\n<li>two</li>\n</ul>",
		},
		{
			name:     "plus items",
			input:    "+ one\n+ two",
			expected: "<ul>\n<li>one</li>\n<li>two</li>\n</ul>",
		},
		{
			name:     "bold italic inside item",
			input:    "- ***hot*** item",
			expected: "<ul>\n<li><strong><em>hot</em></strong> item</li>\n</ul>",
		},
		{
			name:     "two lists split by text",
			input:    "- a\n\ntext\n\n- b",
			expected: "<ul>\n<li>a</li>\n</ul>\n<p>text</p>\n<ul>\n<li>b</li>\n</ul>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Convert(tt.input))
		})
	}
}

func TestConvertTaskLists(t *testing.T) {
	out := Convert("- [ ] open\n- [x] done\n- [X] also done")

	assert.Contains(t, out, "<li>&#9744; open</li>")
	assert.Contains(t, out, "<li>&#9745; done</li>")
	assert.Contains(t, out, "<li>&#9745; also done</li>")
	assert.True(t, strings.HasPrefix(out, "<ul>"))
	assert.True(t, strings.HasSuffix(out, "</ul>"))
}

func TestConvertTables(t *testing.T) {
	input := "| Name | Role |\n" +
		"| ---- | ---- |\n" +
		"| Ana | admin |\n" +
		"| Bob | viewer |"

	expected := "<table>" +
		"<tr><th>Name</th><th>Role</th></tr>" +
		"<tr><td>Ana</td><td>admin</td></tr>" +
		"<tr><td>Bob</td><td>viewer</td></tr>" +
		"</table>"

	assert.Equal(t, expected, Convert(input))
}

func TestConvertTableWithAlignmentRule(t *testing.T) {
	input := "| A | B |\n| :--- | ---: |\n| 1 | 2 |"
	out := Convert(input)

	assert.Contains(t, out, "<tr><th>A</th><th>B</th></tr>")
	assert.Contains(t, out, "<tr><td>1</td><td>2</td></tr>")
	assert.NotContains(t, out, "---")
}

func TestConvertPipeWithoutRuleIsNotATable(t *testing.T) {
	out := Convert("| just | text |")
	assert.NotContains(t, out, "<table>")
}

func TestConvertCodeBlocks(t *testing.T) {
	t.Run("language and verbatim body", func(t *testing.T) {
		input := "```go\nfunc main() {\n\tfmt.Println(\"hi\")\n}\n```"
		out := Convert(input)

		assert.Contains(t, out, `<ac:structured-macro ac:name="code">`)
		assert.Contains(t, out, `<ac:parameter ac:name="language">go</ac:parameter>`)
		assert.Contains(t, out, "<![CDATA[func main() {\n\tfmt.Println(\"hi\")\n}\n]]>")
	})

	t.Run("no language", func(t *testing.T) {
		out := Convert("```\nplain\n```")
		assert.Contains(t, out, `<ac:parameter ac:name="language"></ac:parameter>`)
		assert.Contains(t, out, "<![CDATA[plain\n]]>")
	})

	t.Run("markdown inside body untouched", func(t *testing.T) {
		out := Convert("```\n# not a heading\n**not bold**\n```")
		assert.Contains(t, out, "<![CDATA[# not a heading\n**not bold**\n]]>")
		assert.NotContains(t, out, "<h1>")
		assert.NotContains(t, out, "<strong>")
	})

	t.Run("br inside body untouched", func(t *testing.T) {
		out := Convert("```\nfoo<br>bar\n```")
		assert.Contains(t, out, "<![CDATA[foo<br>bar\n]]>")
	})

	t.Run("angle brackets inside body untouched", func(t *testing.T) {
		out := Convert("```xml\n<a>&</a>\n```")
		assert.Contains(t, out, "<![CDATA[<a>&</a>\n]]>")
	})

	t.Run("multiple blocks restored in order", func(t *testing.T) {
		out := Convert("```\nfirst\n```\n\nbetween\n\n```\nsecond\n```")
		firstIdx := strings.Index(out, "<![CDATA[first")
		secondIdx := strings.Index(out, "<![CDATA[second")
		require.GreaterOrEqual(t, firstIdx, 0)
		require.GreaterOrEqual(t, secondIdx, 0)
		assert.Less(t, firstIdx, secondIdx)
		assert.Contains(t, out, "<p>between</p>")
	})
}

func TestConvertLineBreaks(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "plain", input: "a<br>b"},
		{name: "self closing", input: "a<br/>b"},
		{name: "with spaces", input: "a<br />b"},
		{name: "upper case", input: "a<BR>b"},
		{name: "trailing space", input: "a<br >b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, "<p>a<br/>b</p>", Convert(tt.input))
		})
	}
}

func TestConvertEscaping(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "raw markup escaped and wrapped",
			input:    "use <xml> here",
			expected: "<p>use &lt;xml&gt; here</p>",
		},
		{
			name:     "bare ampersand",
			input:    "salt & pepper",
			expected: "<p>salt &amp; pepper</p>",
		},
		{
			name:     "existing named entity preserved",
			input:    "a &amp; b",
			expected: "<p>a &amp; b</p>",
		},
		{
			name:     "numeric entity preserved",
			input:    "check &#9745; done",
			expected: "<p>check &#9745; done</p>",
		},
		{
			name:     "hex entity preserved",
			input:    "arrow &#x2192; there",
			expected: "<p>arrow &#x2192; there</p>",
		},
		{
			name:     "br survives escaping",
			input:    "one<br>two & three",
			expected: "<p>one<br/>two &amp; three</p>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Convert(tt.input))
		})
	}
}

func TestConvertEmptyInput(t *testing.T) {
	assert.Equal(t, "", Convert(""))
}

func TestConvertParagraphs(t *testing.T) {
	out := Convert("first para\n\nsecond para\n\n\nthird para")
	assert.Equal(t, "<p>first para</p>\n<p>second para</p>\n<p>third para</p>", out)
}

// Paragraphs already starting with generated markup stay unwrapped; only
// plain text gets <p> tags.
func TestConvertParagraphsSkipMarkupLeading(t *testing.T) {
	out := Convert("**lead** then text\n\nplain text")
	assert.Equal(t, "<strong>lead</strong> then text\n<p>plain text</p>", out)
}

// TestConvertProducesWellFormedXML parses the output of a document touching
// every pipeline stage to make sure the generated markup always nests and
// closes properly.
func TestConvertProducesWellFormedXML(t *testing.T) {
	input := `# Guide

Intro with **bold**, *italic*, ***both***, ` + "`code`" + `, ~~old~~ and a [link](https://example.com).

A line<br>break and 5 < 6 & 7 > 2.

| Col | Col |
| --- | --- |
| *a* | b |

- item one
- [ ] todo
- [x] done

` + "```go\nif a < b && c > d {\n\treturn\n}\n```" + `

Closing para.`

	out := Convert(input)

	// The ac: prefixes have no namespace declaration in a fragment, so give
	// the decoder a wrapper and a permissive entity map.
	wrapped := `<div xmlns:ac="urn:x">` + out + `</div>`
	decoder := xml.NewDecoder(strings.NewReader(wrapped))
	decoder.Entity = xml.HTMLEntity

	for {
		_, err := decoder.Token()
		if err != nil {
			require.Equal(t, "EOF", err.Error(), "output is not well-formed XML: %s", out)
			break
		}
	}
}
