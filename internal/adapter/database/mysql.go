package database

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/semmidev/custos/internal/domain"
)

type MySQLBackend struct {
	target domain.Target
	opts   Options
}

func NewMySQL(target domain.Target, opts Options) *MySQLBackend {
	return &MySQLBackend{target: target, opts: opts}
}

func (m *MySQLBackend) Kind() domain.EngineKind { return domain.EngineMySQL }

func (m *MySQLBackend) Execute(ctx context.Context) (*domain.Artifact, error) {
	if err := ensureDir(m.target.BackupDir); err != nil {
		return nil, err
	}
	outputPath := filepath.Join(m.target.BackupDir, backupFilename(m.target.Database, ".sql"))

	cmd := exec.CommandContext(ctx, "mysqldump", m.args(outputPath)...)
	// MYSQL_PWD keeps the password out of the process listing; mysqldump
	// warns about --password on the command line for the same reason.
	cmd.Env = append(os.Environ(), "MYSQL_PWD="+m.target.Password)

	if err := runTool(ctx, cmd); err != nil {
		m.opts.removePartial(outputPath)
		return nil, err
	}

	artifact, err := verifyArtifact(outputPath, domain.EngineMySQL)
	if err != nil {
		m.opts.removePartial(outputPath)
		return nil, err
	}
	return artifact, nil
}

func (m *MySQLBackend) args(outputPath string) []string {
	return []string{
		fmt.Sprintf("--host=%s", m.target.Host),
		fmt.Sprintf("--port=%d", m.target.Port),
		fmt.Sprintf("--user=%s", m.target.Username),
		"--single-transaction",
		"--quick",
		"--routines",
		"--triggers",
		"--events",
		fmt.Sprintf("--result-file=%s", outputPath),
		m.target.Database,
	}
}
