package extract_test

import (
	"strings"
	"testing"

	"github.com/rpggio/projtrack/internal/extract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractStatus(t *testing.T) {
	cases := []struct {
		line string
		want extract.Status
	}{
		{"**Project Status:** Active", extract.StatusActive},
		{"Project Status: Development", extract.StatusDevelopment},
		{"Status: Complete", extract.StatusComplete},
		{"**Project Status:** ✅ Production Ready", extract.StatusComplete},
		{"Project Status: 🟡 Paused", extract.StatusPaused},
		{"Project Status: Stalled", extract.StatusStalled},
		{"Project Status: Shipped", extract.StatusComplete},
		{"random text", extract.StatusUnknown},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, extract.ExtractStatus(tc.line), tc.line)
	}
}

func TestHeaderFields_OnlyHeaderRegion(t *testing.T) {
	var b strings.Builder
	b.WriteString("# Project\n")
	for i := 0; i < 40; i++ {
		b.WriteString("filler\n")
	}
	b.WriteString("**Project Status:** Active\n")

	status, phase := extract.HeaderFields(b.String())
	require.Equal(t, extract.StatusUnknown, status)
	require.Empty(t, phase)
}

func TestHeaderFields_FirstMatchWins(t *testing.T) {
	content := "# Project\n**Project Status:** Paused\n**Current Phase:** Beta rollout ## notes\n**Project Status:** Active\n"

	status, phase := extract.HeaderFields(content)
	require.Equal(t, extract.StatusPaused, status)
	require.Equal(t, "Beta rollout", phase)
}

func TestExtractPhase(t *testing.T) {
	require.Equal(t, "MVP", extract.ExtractPhase("**Current phase:** MVP"))
	require.Empty(t, extract.ExtractPhase("Phase:   "))
	require.Empty(t, extract.ExtractPhase("no marker here"))
}

func TestCalculateCompletion(t *testing.T) {
	require.Equal(t, 50, extract.CalculateCompletion("- [x] a\n- [ ] b"))
	require.Equal(t, 100, extract.CalculateCompletion("- [x] a\n- [x] b"))
	require.Equal(t, 0, extract.CalculateCompletion("no tasks at all"))
	require.Equal(t, 0, extract.CalculateCompletion("- [ ] a\n- [ ] b"))
	require.Equal(t, 67, extract.CalculateCompletion("- [x] a\n- [x] b\n- [ ] c"))
}

func TestCalculateCompletion_Bounded(t *testing.T) {
	docs := []string{"", "- [x]", "- [ ]", strings.Repeat("- [x] a\n", 7) + strings.Repeat("- [ ] b\n", 3)}
	for _, doc := range docs {
		pct := extract.CalculateCompletion(doc)
		assert.GreaterOrEqual(t, pct, 0)
		assert.LessOrEqual(t, pct, 100)
	}
}

func TestExtractDescription(t *testing.T) {
	content := `# My Project

[![build](https://example.com/badge.svg)](https://example.com)
**Project Status:** Active

A tool that does things.
Second line.

## Next
more`

	require.Equal(t, "A tool that does things. Second line.", extract.ExtractDescription(content))
}

func TestExtractDescription_SkipsBadgeAndAdmonitionLines(t *testing.T) {
	content := `# My Project

[!NOTE] mirrored from upstream
![logo](logo.png)
Does the thing.`

	require.Equal(t, "Does the thing.", extract.ExtractDescription(content))
}

func TestExtractDescription_Truncates(t *testing.T) {
	content := "# Title\n\n" + strings.Repeat("a", 250)

	desc := extract.ExtractDescription(content)
	require.Len(t, desc, 200)
	require.True(t, strings.HasSuffix(desc, "..."))
}

func TestExtractDescription_Empty(t *testing.T) {
	require.Empty(t, extract.ExtractDescription("# Title\n\n## Section\n"))
}

func TestExtractAgents(t *testing.T) {
	content := `# Project

## AI Agents
- **Claude:** Architecture review
- Copilot
  - nested: ignored

## Other
- **Not:** an agent`

	agents := extract.ExtractAgents(content)
	require.Equal(t, []extract.Agent{
		{Name: "Claude", Role: "Architecture review"},
		{Name: "Copilot"},
	}, agents)
}

func TestExtractCronJobs(t *testing.T) {
	content := `# Project

### Cron Job
- **Schedule:** ` + "`0 9 * * *`" + ` (daily at 9)
- **Command:** ` + "`python run.py`" + `
- **Purpose:** Sends digest

### Cron Job: incomplete
- **Schedule:** @daily
`

	jobs := extract.ExtractCronJobs(content)
	require.Equal(t, []extract.CronJob{
		{Schedule: "0 9 * * *", Command: "python run.py", Description: "Sends digest"},
	}, jobs)
}

func TestExtractCronJobs_OnePerSection(t *testing.T) {
	content := `## Cron Jobs
- Schedule: @hourly
- Command: ./sync.sh
- Schedule: @daily
- Command: ./report.sh
`

	jobs := extract.ExtractCronJobs(content)
	require.Len(t, jobs, 1)
	require.Equal(t, "@hourly", jobs[0].Schedule)
	require.Equal(t, "./sync.sh", jobs[0].Command)
}

func TestIsInfrastructure(t *testing.T) {
	require.True(t, extract.IsInfrastructure("**Type:** Infrastructure"))
	require.True(t, extract.IsInfrastructure("intro\n**Type:** Infra\n"))
	require.False(t, extract.IsInfrastructure("# infra-tools\nType: Infrastructure"))
	require.False(t, extract.IsInfrastructure("**Type:** Infrared camera"))
}

func TestParseTodo_Defaults(t *testing.T) {
	data := extract.ParseTodo("")
	require.Equal(t, extract.StatusUnknown, data.Status)
	require.Zero(t, data.CompletionPct)
	require.Empty(t, data.Agents)
	require.Empty(t, data.CronJobs)
	require.Empty(t, data.Description)
}
