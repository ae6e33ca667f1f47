package extract

import (
	"regexp"
	"strings"
	"time"
)

// ReviewStatus tracks how far a code review's action items have progressed.
type ReviewStatus string

const (
	ReviewPending    ReviewStatus = "pending"
	ReviewInProgress ReviewStatus = "in_progress"
	ReviewCompleted  ReviewStatus = "completed"
)

const maxReviewSummaryLen = 200

var (
	reviewerPattern  = regexp.MustCompile(`\*\*Reviewer:\*\*\s*(.+)`)
	reviewDate       = regexp.MustCompile(`\*\*Date:\*\*\s*(.+)`)
	verdictPattern   = regexp.MustCompile(`\*\*Verdict:\*\*\s*\*\*(.+?)\*\*`)
	reviewCheckbox   = regexp.MustCompile(`(?m)^- \[([ xX])\]\s*(.+)$`)
	numberedBoldItem = regexp.MustCompile(`^\d+\.\s*\*\*(.+?)\*\*`)
)

var reviewDateLayouts = []string{"January 2, 2006", "2006-01-02", "01/02/2006"}

// ActionItem is one follow-up from a code review.
type ActionItem struct {
	Text    string `json:"text"`
	Checked bool   `json:"checked"`
}

// CodeReview is the metadata of a CODE_REVIEW document.
type CodeReview struct {
	Reviewer      string       `json:"reviewer"`
	Date          string       `json:"date"`
	Verdict       string       `json:"verdict"`
	Status        ReviewStatus `json:"status"`
	Summary       string       `json:"summary,omitempty"`
	ActionItems   []ActionItem `json:"action_items,omitempty"`
	CompletionPct int          `json:"completion_pct"`
}

// ParseCodeReview extracts reviewer, verdict and action item progress from a
// code review document.
func ParseCodeReview(content string) CodeReview {
	review := CodeReview{
		Reviewer: "Unknown",
		Date:     "Unknown",
		Verdict:  "Unknown",
	}

	if m := reviewerPattern.FindStringSubmatch(content); m != nil {
		review.Reviewer = strings.TrimSpace(m[1])
	}
	if m := reviewDate.FindStringSubmatch(content); m != nil {
		review.Date = normalizeReviewDate(strings.TrimSpace(m[1]))
	}
	if m := verdictPattern.FindStringSubmatch(content); m != nil {
		review.Verdict = strings.TrimSpace(m[1])
	}

	sections := Sections(content)
	for _, s := range sections {
		if s.Level == 2 && NormalizeHeading(s.Title) == "the verdict" {
			review.Summary = truncate(firstParagraph(s.Lines), maxReviewSummaryLen)
			break
		}
	}

	for _, m := range reviewCheckbox.FindAllStringSubmatch(content, -1) {
		review.ActionItems = append(review.ActionItems, ActionItem{
			Text:    strings.TrimSpace(m[2]),
			Checked: strings.EqualFold(m[1], "x"),
		})
	}
	if len(review.ActionItems) == 0 {
		for _, s := range sections {
			if s.Level != 2 || NormalizeHeading(s.Title) != "what you should actually do" {
				continue
			}
			for _, line := range s.Lines {
				if m := numberedBoldItem.FindStringSubmatch(line); m != nil {
					review.ActionItems = append(review.ActionItems, ActionItem{Text: strings.TrimSpace(m[1])})
				}
			}
			break
		}
	}

	checked := 0
	for _, item := range review.ActionItems {
		if item.Checked {
			checked++
		}
	}
	review.CompletionPct = percent(checked, len(review.ActionItems))

	switch review.CompletionPct {
	case 100:
		review.Status = ReviewCompleted
	case 0:
		review.Status = ReviewPending
	default:
		review.Status = ReviewInProgress
	}
	return review
}

func normalizeReviewDate(raw string) string {
	for _, layout := range reviewDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return raw
}

func firstParagraph(lines []string) string {
	var para []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			if len(para) > 0 {
				break
			}
			continue
		}
		para = append(para, line)
	}
	return strings.Join(para, " ")
}
