package database

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/semmidev/custos/internal/domain"
)

type MSSQLBackend struct {
	target domain.Target
	opts   Options
}

func NewMSSQL(target domain.Target, opts Options) *MSSQLBackend {
	return &MSSQLBackend{target: target, opts: opts}
}

func (m *MSSQLBackend) Kind() domain.EngineKind { return domain.EngineMSSQL }

func (m *MSSQLBackend) Execute(ctx context.Context) (*domain.Artifact, error) {
	if err := ensureDir(m.target.BackupDir); err != nil {
		return nil, err
	}
	outputPath := filepath.Join(m.target.BackupDir, backupFilename(m.target.Database, ".bak"))

	cmd := exec.CommandContext(ctx, "sqlcmd", m.args(outputPath)...)
	// SQLCMDPASSWORD replaces -P so the password never shows up in argv.
	cmd.Env = append(os.Environ(), "SQLCMDPASSWORD="+m.target.Password)

	if err := runTool(ctx, cmd); err != nil {
		m.opts.removePartial(outputPath)
		return nil, err
	}

	artifact, err := verifyArtifact(outputPath, domain.EngineMSSQL)
	if err != nil {
		m.opts.removePartial(outputPath)
		return nil, err
	}
	return artifact, nil
}

// serverAddress renders host, named instance and port the way sqlcmd -S
// expects them: host\instance,port.
func (m *MSSQLBackend) serverAddress() string {
	server := m.target.Host
	if m.target.Instance != "" {
		server += `\` + m.target.Instance
	}
	if m.target.Port > 0 {
		server = fmt.Sprintf("%s,%d", server, m.target.Port)
	}
	return server
}

func (m *MSSQLBackend) args(outputPath string) []string {
	// -b makes sqlcmd exit non-zero when the BACKUP statement fails, so a
	// SQL-level error is not mistaken for success.
	return []string{
		"-S", m.serverAddress(),
		"-U", m.target.Username,
		"-b",
		"-Q", fmt.Sprintf("BACKUP DATABASE [%s] TO DISK='%s' WITH INIT, COMPRESSION", m.target.Database, outputPath),
	}
}
