package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/semmidev/custos/internal/domain"
)

// Logger is the subset of the application logger the backends need.
type Logger interface {
	Infof(template string, args ...interface{})
	Warnf(template string, args ...interface{})
	Errorf(template string, args ...interface{})
}

// Options tune behavior shared by every backend.
type Options struct {
	// KeepFailedArtifacts leaves a partially written dump on disk for
	// inspection instead of removing it after a failed run.
	KeepFailedArtifacts bool
	Logger              Logger
}

const timestampLayout = "20060102_150405"

// backupFilename embeds the database name and a second-resolution timestamp.
// Two runs of the same target within the same second collide; the dump
// tools' own overwrite semantics decide what happens then.
func backupFilename(database, ext string) string {
	return fmt.Sprintf("%s_%s%s", database, time.Now().Format(timestampLayout), ext)
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create backup directory: %w", err)
	}
	return nil
}

// runTool executes a dump command and folds the three failure shapes (could
// not start, timed out, non-zero exit) into one error carrying the captured
// output. Credentials are passed through the environment, never argv, so the
// output and the error text stay free of them.
func runTool(ctx context.Context, cmd *exec.Cmd) error {
	tool := filepath.Base(cmd.Path)
	output, err := cmd.CombinedOutput()
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return fmt.Errorf("%s interrupted: %w", tool, ctx.Err())
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Errorf("%s exited with status %d: %s", tool, exitErr.ExitCode(), trimOutput(output))
	}
	return fmt.Errorf("start %s: %w", tool, err)
}

func trimOutput(output []byte) string {
	const limit = 2048
	s := strings.TrimSpace(string(output))
	if s == "" {
		return "no output"
	}
	if len(s) > limit {
		s = s[:limit] + "..."
	}
	return s
}

// verifyArtifact enforces the post-condition that a successful run left a
// non-empty file on disk. A tool that reports success but writes nothing is
// an execution failure, not a success.
func verifyArtifact(path string, kind domain.EngineKind) (*domain.Artifact, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("backup file missing after reported success: %w", err)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("backup file %s is empty", filepath.Base(path))
	}
	return &domain.Artifact{
		FilePath:  path,
		SizeBytes: info.Size(),
		CreatedAt: info.ModTime(),
		Engine:    kind,
	}, nil
}

// removePartial cleans up a half-written dump after a failed run. Failures
// here are logged only; the backup outcome is already decided.
func (o Options) removePartial(path string) {
	if o.KeepFailedArtifacts {
		if o.Logger != nil {
			o.Logger.Warnf("keeping failed artifact for inspection: %s", path)
		}
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		if o.Logger != nil {
			o.Logger.Errorf("failed to remove partial artifact %s: %v", path, err)
		}
	}
}
