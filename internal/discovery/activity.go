package discovery

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rpggio/projtrack/internal/sysexec"
)

// ActivityTime returns the later of the last commit time and the newest
// file modification time under dir. When neither is available it returns
// the current time.
func (s *Scanner) ActivityTime(ctx context.Context, dir string) time.Time {
	var latest time.Time
	if commit, ok := s.LastCommit(ctx, dir); ok {
		latest = commit
	}
	if mtime, ok := LatestModTime(dir); ok && mtime.After(latest) {
		latest = mtime
	}
	if latest.IsZero() {
		return s.now()
	}
	return latest
}

// LastCommit returns the committer date of HEAD. Directories without a
// .git entry are not queried.
func (s *Scanner) LastCommit(ctx context.Context, dir string) (time.Time, bool) {
	if _, err := os.Stat(filepath.Join(dir, ".git")); err != nil {
		return time.Time{}, false
	}

	out, err := s.runner.Run(ctx, sysexec.Command{
		Name:    "git",
		Args:    []string{"log", "-1", "--format=%cI"},
		Dir:     dir,
		Timeout: s.cfg.GitTimeout,
	})
	if err != nil {
		s.logger.Debug("git log failed", "path", dir, "error", err)
		return time.Time{}, false
	}

	raw := strings.TrimSpace(string(out))
	if raw == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		s.logger.Debug("unparseable commit date", "path", dir, "value", raw)
		return time.Time{}, false
	}
	return t, true
}

// LatestModTime returns the newest modification time of any regular file
// under dir, skipping dependency and VCS directories.
func LatestModTime(dir string) (time.Time, bool) {
	var latest time.Time
	found := false
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != dir && Excluded(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if !found || info.ModTime().After(latest) {
			latest = info.ModTime()
			found = true
		}
		return nil
	})
	return latest, found
}
