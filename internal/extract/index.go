package extract

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// RequiredIndexTags lists the tag prefixes every project index must carry.
var RequiredIndexTags = []string{"map/project", "p/", "type/", "domain/", "status/", "tech/"}

// RequiredIndexSections lists the headings every project index must contain.
var RequiredIndexSections = []string{"Key Components", "Status"}

var tagSeparators = regexp.MustCompile(`[\s,\[\]"']+`)

// IndexReport describes the structural validity of a project index document.
type IndexReport struct {
	Valid       bool
	ProjectType string
	Tags        []string
	Problems    []string
}

type frontmatter struct {
	Tags any `yaml:"tags"`
}

// SplitFrontmatter separates a leading "---" delimited block from the body.
// ok is false when content does not open with a complete block.
func SplitFrontmatter(content string) (front, body string, ok bool) {
	lines := splitLines(content)
	end := frontmatterEnd(lines)
	if end < 0 {
		return "", content, false
	}
	return strings.Join(lines[1:end], "\n"), strings.Join(lines[end+1:], "\n"), true
}

// FrontmatterTags reads the tags of a frontmatter block. Well-formed YAML is
// decoded; anything else falls back to scanning the raw text for tokens.
func FrontmatterTags(front string) []string {
	var fm frontmatter
	if err := yaml.Unmarshal([]byte(front), &fm); err == nil && fm.Tags != nil {
		switch v := fm.Tags.(type) {
		case []any:
			tags := make([]string, 0, len(v))
			for _, t := range v {
				tags = append(tags, normalizeTag(fmt.Sprint(t)))
			}
			return tags
		case string:
			return tokenizeTags(v)
		}
	}
	return tokenizeTags(front)
}

func tokenizeTags(s string) []string {
	var tags []string
	for _, tok := range tagSeparators.Split(s, -1) {
		tok = normalizeTag(strings.TrimPrefix(tok, "-"))
		if tok != "" {
			tags = append(tags, tok)
		}
	}
	return tags
}

func normalizeTag(tag string) string {
	return strings.TrimPrefix(strings.TrimSpace(tag), "#")
}

// ValidateIndex checks the frontmatter tags and body headings of an index
// document.
func ValidateIndex(content string) IndexReport {
	var report IndexReport

	front, body, ok := SplitFrontmatter(content)
	if !ok {
		report.Problems = append(report.Problems, "missing frontmatter")
	} else {
		report.Tags = FrontmatterTags(front)
		for _, prefix := range RequiredIndexTags {
			if !hasTagPrefix(report.Tags, prefix) {
				report.Problems = append(report.Problems, "missing tag "+prefix)
			}
		}
		for _, tag := range report.Tags {
			if v, found := strings.CutPrefix(tag, "type/"); found && v != "" {
				report.ProjectType = v
				break
			}
		}
	}

	sections := Sections(body)
	for _, required := range RequiredIndexSections {
		if !hasSection(sections, required) {
			report.Problems = append(report.Problems, "missing section "+required)
		}
	}

	report.Valid = len(report.Problems) == 0
	return report
}

func hasTagPrefix(tags []string, prefix string) bool {
	for _, t := range tags {
		if strings.HasPrefix(t, prefix) {
			return true
		}
	}
	return false
}

func hasSection(sections []Section, name string) bool {
	name = strings.ToLower(name)
	for _, s := range sections {
		if strings.HasPrefix(NormalizeHeading(s.Title), name) {
			return true
		}
	}
	return false
}
