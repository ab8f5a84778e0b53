package database

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/semmidev/custos/internal/domain"
)

type PostgresBackend struct {
	target domain.Target
	opts   Options
}

func NewPostgres(target domain.Target, opts Options) *PostgresBackend {
	return &PostgresBackend{target: target, opts: opts}
}

func (p *PostgresBackend) Kind() domain.EngineKind { return domain.EnginePostgres }

func (p *PostgresBackend) Execute(ctx context.Context) (*domain.Artifact, error) {
	if err := ensureDir(p.target.BackupDir); err != nil {
		return nil, err
	}
	outputPath := filepath.Join(p.target.BackupDir, backupFilename(p.target.Database, ".dump"))

	cmd := exec.CommandContext(ctx, "pg_dump", p.args(outputPath)...)
	cmd.Env = append(os.Environ(), "PGPASSWORD="+p.target.Password)

	if err := runTool(ctx, cmd); err != nil {
		p.opts.removePartial(outputPath)
		return nil, err
	}

	artifact, err := verifyArtifact(outputPath, domain.EnginePostgres)
	if err != nil {
		p.opts.removePartial(outputPath)
		return nil, err
	}
	return artifact, nil
}

func (p *PostgresBackend) args(outputPath string) []string {
	return []string{
		fmt.Sprintf("--host=%s", p.target.Host),
		fmt.Sprintf("--port=%d", p.target.Port),
		fmt.Sprintf("--username=%s", p.target.Username),
		"--format=custom",
		"--compress=9",
		fmt.Sprintf("--file=%s", outputPath),
		p.target.Database,
	}
}
