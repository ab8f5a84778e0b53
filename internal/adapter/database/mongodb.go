package database

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/semmidev/custos/internal/domain"
)

type MongoDBBackend struct {
	target domain.Target
	opts   Options
}

func NewMongoDB(target domain.Target, opts Options) *MongoDBBackend {
	return &MongoDBBackend{target: target, opts: opts}
}

func (m *MongoDBBackend) Kind() domain.EngineKind { return domain.EngineMongoDB }

func (m *MongoDBBackend) Execute(ctx context.Context) (*domain.Artifact, error) {
	if err := ensureDir(m.target.BackupDir); err != nil {
		return nil, err
	}
	outputPath := filepath.Join(m.target.BackupDir, backupFilename(m.target.Database, ".archive"))

	// mongodump has no password environment variable; a 0600 config file
	// keeps the credential out of argv instead.
	credFile, err := m.writeCredentialFile()
	if err != nil {
		return nil, err
	}
	defer os.Remove(credFile)

	cmd := exec.CommandContext(ctx, "mongodump", m.args(outputPath, credFile)...)

	if err := runTool(ctx, cmd); err != nil {
		m.opts.removePartial(outputPath)
		return nil, err
	}

	artifact, err := verifyArtifact(outputPath, domain.EngineMongoDB)
	if err != nil {
		m.opts.removePartial(outputPath)
		return nil, err
	}
	return artifact, nil
}

func (m *MongoDBBackend) writeCredentialFile() (string, error) {
	f, err := os.CreateTemp("", "custos-mongo-*.yaml")
	if err != nil {
		return "", fmt.Errorf("create credential file: %w", err)
	}
	defer f.Close()

	if err := f.Chmod(0o600); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("restrict credential file: %w", err)
	}
	if _, err := fmt.Fprintf(f, "password: %q\n", m.target.Password); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("write credential file: %w", err)
	}
	return f.Name(), nil
}

func (m *MongoDBBackend) args(outputPath, credFile string) []string {
	args := []string{
		"--host", m.target.Host,
		"--port", strconv.Itoa(m.target.Port),
		"--username", m.target.Username,
		"--db", m.target.Database,
		"--archive=" + outputPath,
		"--gzip",
		"--config=" + credFile,
	}
	if m.target.AuthDatabase != "" {
		args = append(args, "--authenticationDatabase", m.target.AuthDatabase)
	}
	return args
}
