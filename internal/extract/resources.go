package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// Service is an external service a project depends on.
type Service struct {
	Name        string   `json:"service_name"`
	Purpose     string   `json:"purpose,omitempty"`
	CostMonthly *float64 `json:"cost_monthly,omitempty"`
}

var (
	serviceLine  = regexp.MustCompile(`^([^(]+)(?:\(([^)]+)\))?`)
	serviceGlyph = regexp.MustCompile(`^[\x{2705}\x{26A0}\x{274C}\x{FE0F}\s]+`)
	dollarAmount = regexp.MustCompile(`\$(\d+(?:\.\d+)?)`)
)

var (
	localTools   = []string{"sqlite", "local", "rclone", "python"}
	notePrefixes = []string{"Provides", "Uses ", "May have"}
)

// Slug turns a project or directory name into its identifier.
func Slug(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "-")
}

// ParseResources reads the "Resources by Project" section of an external
// resources document and returns services keyed by project slug.
func ParseResources(content string) map[string][]Service {
	out := make(map[string][]Service)

	var inResources bool
	for _, s := range Sections(content) {
		switch {
		case s.Level <= 2:
			inResources = NormalizeHeading(s.Title) == "resources by project"
			continue
		case !inResources || s.Level != 3:
			continue
		}

		current := Slug(s.Title)
		for _, line := range s.Lines {
			if strings.Contains(line, "**Monthly cost:**") || strings.HasPrefix(line, "---") {
				break
			}
			if !strings.HasPrefix(strings.TrimSpace(line), "-") {
				continue
			}
			if svc, ok := parseServiceLine(line); ok {
				out[current] = append(out[current], svc)
			}
		}
	}
	return out
}

func parseServiceLine(line string) (Service, bool) {
	line = strings.TrimSpace(line)
	line = strings.TrimSpace(strings.TrimLeft(line, "-"))
	line = serviceGlyph.ReplaceAllString(line, "")
	if line == "" {
		return Service{}, false
	}
	for _, p := range notePrefixes {
		if strings.HasPrefix(line, p) {
			return Service{}, false
		}
	}

	m := serviceLine.FindStringSubmatch(line)
	if m == nil {
		return Service{}, false
	}
	name := strings.TrimSpace(strings.ReplaceAll(m[1], " API", ""))
	lower := strings.ToLower(name)
	for _, tool := range localTools {
		if strings.Contains(lower, tool) {
			return Service{}, false
		}
	}
	if name == "" {
		return Service{}, false
	}

	svc := Service{Name: name, Purpose: strings.TrimSpace(m[2])}
	if c := dollarAmount.FindStringSubmatch(svc.Purpose); c != nil {
		if v, err := strconv.ParseFloat(c[1], 64); err == nil {
			svc.CostMonthly = &v
		}
	}
	return svc, true
}
