package extract

import (
	"bytes"
	"strings"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Section is a markdown heading and the raw lines beneath it, up to the next
// heading of any level.
type Section struct {
	Level int
	Title string
	Line  int
	Lines []string
}

var markdown = goldmark.New()

// Sections returns every ATX heading section of content in document order.
// Headings inside fenced code blocks and frontmatter are not sections.
func Sections(content string) []Section {
	lines := splitLines(content)
	src := []byte(blankFrontmatter(lines))

	type heading struct {
		level int
		title string
		line  int
	}
	var headings []heading

	doc := markdown.Parser().Parse(text.NewReader(src))
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok || h.Lines().Len() == 0 {
			continue
		}
		line := bytes.Count(src[:h.Lines().At(0).Start], []byte("\n"))
		if line >= len(lines) || !strings.HasPrefix(strings.TrimLeft(lines[line], " "), "#") {
			// setext heading
			continue
		}
		headings = append(headings, heading{
			level: h.Level,
			title: strings.TrimSpace(inlineText(h, src)),
			line:  line,
		})
	}

	sections := make([]Section, 0, len(headings))
	for i, h := range headings {
		end := len(lines)
		if i+1 < len(headings) {
			end = headings[i+1].line
		}
		sections = append(sections, Section{
			Level: h.level,
			Title: h.title,
			Line:  h.line,
			Lines: lines[h.line+1 : end],
		})
	}
	return sections
}

// FindSections returns the sections whose level lies in [minLevel, maxLevel]
// and whose normalized title starts with prefix.
func FindSections(content string, minLevel, maxLevel int, prefix string) []Section {
	prefix = strings.ToLower(prefix)
	var out []Section
	for _, s := range Sections(content) {
		if s.Level < minLevel || s.Level > maxLevel {
			continue
		}
		if strings.HasPrefix(NormalizeHeading(s.Title), prefix) {
			out = append(out, s)
		}
	}
	return out
}

// NormalizeHeading lowercases a heading title and drops any decorative glyphs
// in front of the first letter or digit.
func NormalizeHeading(title string) string {
	trimmed := strings.TrimLeftFunc(title, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.ToLower(strings.TrimSpace(trimmed))
}

// BulletItems returns the cleaned, non-empty, non-heading lines of a section
// with list markers removed.
func BulletItems(lines []string) []string {
	var items []string
	for _, line := range lines {
		item := strings.TrimSpace(line)
		if item == "" || strings.HasPrefix(item, "#") {
			continue
		}
		for _, marker := range []string{"- ", "* ", "+ "} {
			if strings.HasPrefix(item, marker) {
				item = strings.TrimSpace(item[len(marker):])
				break
			}
		}
		if item != "" && item != "-" {
			items = append(items, item)
		}
	}
	return items
}

func inlineText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

func splitLines(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	return strings.Split(content, "\n")
}

// blankFrontmatter joins lines back together with any leading frontmatter
// block replaced by empty lines, keeping line numbers stable.
func blankFrontmatter(lines []string) string {
	if end := frontmatterEnd(lines); end > 0 {
		masked := make([]string, len(lines))
		copy(masked[end+1:], lines[end+1:])
		return strings.Join(masked, "\n")
	}
	return strings.Join(lines, "\n")
}

// frontmatterEnd returns the index of the closing delimiter line of a leading
// frontmatter block, or -1 when content does not open with one.
func frontmatterEnd(lines []string) int {
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return -1
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return i
		}
	}
	return -1
}
