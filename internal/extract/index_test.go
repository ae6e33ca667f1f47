package extract_test

import (
	"testing"

	"github.com/rpggio/projtrack/internal/extract"
	"github.com/stretchr/testify/require"
)

const validIndex = `---
tags: [map/project, p/demo, type/cli, domain/tools, status/active, tech/go]
---
# Demo

## 🧩 Key Components
- scanner

## Status
Active
`

func TestValidateIndex_Valid(t *testing.T) {
	report := extract.ValidateIndex(validIndex)
	require.True(t, report.Valid, report.Problems)
	require.Equal(t, "cli", report.ProjectType)
	require.Empty(t, report.Problems)
}

func TestValidateIndex_BlockListTags(t *testing.T) {
	content := `---
title: Demo
tags:
  - map/project
  - p/demo
  - type/library
  - domain/tools
  - status/active
  - tech/go
---
## KEY COMPONENTS
## status
`
	report := extract.ValidateIndex(content)
	require.True(t, report.Valid, report.Problems)
	require.Equal(t, "library", report.ProjectType)
}

func TestValidateIndex_MissingSection(t *testing.T) {
	content := `---
tags: [map/project, p/demo, type/cli, domain/tools, status/active, tech/go]
---
# Demo

## Key Components
`
	report := extract.ValidateIndex(content)
	require.False(t, report.Valid)
	require.Contains(t, report.Problems, "missing section Status")
}

func TestValidateIndex_MissingTag(t *testing.T) {
	content := `---
tags: [map/project, p/demo, type/cli, status/active, tech/go]
---
## Key Components
## Status
`
	report := extract.ValidateIndex(content)
	require.False(t, report.Valid)
	require.Equal(t, []string{"missing tag domain/"}, report.Problems)
}

func TestValidateIndex_NoFrontmatter(t *testing.T) {
	report := extract.ValidateIndex("# Demo\n\n## Key Components\n\n## Status\n")
	require.False(t, report.Valid)
	require.Contains(t, report.Problems, "missing frontmatter")
}

func TestValidateIndex_MalformedYAMLFallsBack(t *testing.T) {
	content := `---
tags: map/project p/demo type/cli domain/tools status/active tech/go
title: [unclosed
---
## Key Components
## Status
`
	report := extract.ValidateIndex(content)
	require.True(t, report.Valid, report.Problems)
	require.Equal(t, "cli", report.ProjectType)
}

func TestSplitFrontmatter(t *testing.T) {
	front, body, ok := extract.SplitFrontmatter("---\na: 1\n---\nbody")
	require.True(t, ok)
	require.Equal(t, "a: 1", front)
	require.Equal(t, "body", body)

	_, body, ok = extract.SplitFrontmatter("---\nnever closed")
	require.False(t, ok)
	require.Equal(t, "---\nnever closed", body)
}
