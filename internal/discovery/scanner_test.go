package discovery_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rpggio/projtrack/internal/discovery"
	"github.com/rpggio/projtrack/internal/extract"
	"github.com/rpggio/projtrack/internal/sysexec/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const sampleTodo = `# Digest Bot

**Project Status:** Active Development
**Phase:** 2 - Delivery

Sends a morning digest of unread feeds.

## AI Agents
- **Claude**: implementation

## Cron Job
- **Schedule:** ` + "`0 9 * * *`" + `
- **Command:** ` + "`./run.sh`" + `

## Tasks
- [x] fetch feeds
- [ ] send email
`

const validIndex = `---
tags:
  - map/project
  - p/digest
  - type/tool
  - domain/email
  - status/active
  - tech/python
---
# Digest Bot

## Key Components
- fetcher

## Status
Active
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func touch(t *testing.T, path string, when time.Time) {
	t.Helper()
	require.NoError(t, os.Chtimes(path, when, when))
}

func newScanner(root string) (*discovery.Scanner, *mocks.Runner) {
	runner := &mocks.Runner{}
	return discovery.NewScanner(runner, discovery.DefaultConfig(root), nil), runner
}

func TestExcluded(t *testing.T) {
	for _, name := range []string{".git", "node_modules", "__pycache__", "venv", ".cache", "_archive"} {
		assert.True(t, discovery.Excluded(name), name)
	}
	for _, name := range []string{"digest", "my tool", "v2"} {
		assert.False(t, discovery.Excluded(name), name)
	}
}

func TestScan_AcceptsOnlyProjectDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "with-readme", "README.md"), "# With Readme\n\nHello.\n")
	writeFile(t, filepath.Join(root, "with-source", "src", "main.go"), "package main\n")
	writeFile(t, filepath.Join(root, "only-deps", "node_modules", "x", "index.js"), "")
	writeFile(t, filepath.Join(root, "notes", "ideas.txt"), "")
	writeFile(t, filepath.Join(root, "_archive", "README.md"), "# Old\n")
	writeFile(t, filepath.Join(root, ".hidden", "TODO.md"), "# Hidden\n")
	writeFile(t, filepath.Join(root, "loose-file.md"), "")

	scanner, runner := newScanner(root)
	projects, err := scanner.Scan(context.Background())
	require.NoError(t, err)

	var ids []string
	for _, p := range projects {
		ids = append(ids, p.ID)
	}
	require.Equal(t, []string{"with-readme", "with-source"}, ids)
	runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
}

func TestScan_MissingRoot(t *testing.T) {
	scanner, _ := newScanner(filepath.Join(t.TempDir(), "nope"))
	projects, err := scanner.Scan(context.Background())
	require.NoError(t, err)
	require.Empty(t, projects)
}

func TestScanProject_ExtractsTodoAndIndex(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "Digest Bot")
	writeFile(t, filepath.Join(dir, "TODO.md"), sampleTodo)
	writeFile(t, filepath.Join(dir, "00_Index_Digest.md"), validIndex)

	scanner, _ := newScanner(root)
	proj := scanner.ScanProject(context.Background(), dir)

	require.Equal(t, "digest-bot", proj.ID)
	require.Equal(t, "Digest Bot", proj.Name)
	require.Equal(t, extract.StatusActive, proj.Status)
	require.Equal(t, "2 - Delivery", proj.Phase)
	require.Equal(t, "Sends a morning digest of unread feeds.", proj.Description)
	require.Equal(t, 50, proj.CompletionPct)
	require.Len(t, proj.AIAgents, 1)
	require.Equal(t, "Claude", proj.AIAgents[0].Name)
	require.Len(t, proj.CronJobs, 1)
	require.Equal(t, "0 9 * * *", proj.CronJobs[0].Schedule)
	require.True(t, proj.HasIndex)
	require.True(t, proj.IndexIsValid)
	require.NotNil(t, proj.IndexUpdatedAt)
	require.Equal(t, "tool", proj.ProjectType)
	require.False(t, proj.IsInfrastructure)
}

func TestScanProject_ReadmeDescriptionFallback(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "plain")
	writeFile(t, filepath.Join(dir, "TODO.md"), "# Plain\n")
	writeFile(t, filepath.Join(dir, "README.md"), "# Plain\n\n[![ci](badge.svg)](x)\n\nA plain project.\n\nMore text.\n")
	writeFile(t, filepath.Join(dir, "00_Index_Plain.md"), "# Plain\n")

	scanner, _ := newScanner(root)
	proj := scanner.ScanProject(context.Background(), dir)

	require.Equal(t, extract.StatusUnknown, proj.Status)
	require.Equal(t, "A plain project.", proj.Description)
	require.True(t, proj.HasIndex)
	require.False(t, proj.IndexIsValid)
}

func TestScanProject_Infrastructure(t *testing.T) {
	root := t.TempDir()
	byName := filepath.Join(root, "agent-skills-library")
	writeFile(t, filepath.Join(byName, "README.md"), "# Skills\n")
	byReadme := filepath.Join(root, "gateway")
	writeFile(t, filepath.Join(byReadme, "README.md"), "# Gateway\n\n**Type:** Infra\n")
	byMarker := filepath.Join(root, "ops")
	writeFile(t, filepath.Join(byMarker, "TODO.md"), "# Ops\n\n**Type:** Infrastructure\n")

	scanner, _ := newScanner(root)
	require.False(t, scanner.ScanProject(context.Background(), byName).IsInfrastructure)
	require.True(t, scanner.ScanProject(context.Background(), byMarker).IsInfrastructure)
	require.True(t, scanner.ScanProject(context.Background(), byReadme).IsInfrastructure)
}

func TestActivityTime_LaterOfGitAndFiles(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "repo")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o755))
	writeFile(t, filepath.Join(dir, "main.py"), "print()\n")
	writeFile(t, filepath.Join(dir, "node_modules", "dep.js"), "")

	fileTime := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	touch(t, filepath.Join(dir, "main.py"), fileTime)
	touch(t, filepath.Join(dir, "node_modules", "dep.js"), fileTime.Add(240*time.Hour))

	scanner, runner := newScanner(root)
	runner.On("Run", mock.Anything, mocks.Named("git", "log")).
		Return([]byte("2026-02-01T10:00:00+00:00\n"), nil).Once()

	got := scanner.ActivityTime(context.Background(), dir)
	require.True(t, time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC).Equal(got), got)

	runner.On("Run", mock.Anything, mocks.Named("git", "log")).
		Return([]byte("2025-12-01T10:00:00+00:00\n"), nil).Once()

	got = scanner.ActivityTime(context.Background(), dir)
	require.True(t, fileTime.Equal(got), "dependency files must not count: %s", got)
}

func TestLatestModTime_SkipsExcludedDirectories(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.go"), "package main\n")
	writeFile(t, filepath.Join(dir, ".venv", "lib", "site.py"), "")
	writeFile(t, filepath.Join(dir, "_build", "out.bin"), "")

	fileTime := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fresh := fileTime.Add(90 * 24 * time.Hour)
	touch(t, filepath.Join(dir, "main.go"), fileTime)
	touch(t, filepath.Join(dir, ".venv", "lib", "site.py"), fresh)
	touch(t, filepath.Join(dir, "_build", "out.bin"), fresh)

	got, ok := discovery.LatestModTime(dir)
	require.True(t, ok)
	require.True(t, fileTime.Equal(got), "excluded directories must not count: %s", got)
}

func TestIsProjectDir_IgnoresSourceInExcludedDirectories(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "scratch")
	writeFile(t, filepath.Join(dir, ".venv", "lib", "site.py"), "")
	writeFile(t, filepath.Join(dir, "_build", "gen.go"), "package gen\n")

	scanner, _ := newScanner(root)
	require.False(t, scanner.IsProjectDir(dir))

	writeFile(t, filepath.Join(dir, "tool.py"), "print()\n")
	require.True(t, scanner.IsProjectDir(dir))
}

func TestActivityTime_GitFailureFallsBack(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "repo")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o755))
	writeFile(t, filepath.Join(dir, "a.go"), "package a\n")
	fileTime := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	touch(t, filepath.Join(dir, "a.go"), fileTime)

	scanner, runner := newScanner(root)
	runner.On("Run", mock.Anything, mock.Anything).Return(nil, errors.New("not a git repository"))

	got := scanner.ActivityTime(context.Background(), dir)
	require.True(t, fileTime.Equal(got))
}

func TestActivityTime_EmptyDirectoryUsesNow(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	scanner, _ := newScanner(dir)
	scanner.WithClock(func() time.Time { return now })
	require.Equal(t, now, scanner.ActivityTime(context.Background(), dir))
}

func TestFindIndex(t *testing.T) {
	dir := t.TempDir()
	_, ok := discovery.FindIndex(dir)
	require.False(t, ok)

	writeFile(t, filepath.Join(dir, "00_Index_B.md"), "")
	writeFile(t, filepath.Join(dir, "00_Index_A.md"), "")
	path, ok := discovery.FindIndex(dir)
	require.True(t, ok)
	require.Equal(t, filepath.Join(dir, "00_Index_A.md"), path)
}
