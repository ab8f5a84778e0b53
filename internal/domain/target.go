package domain

import "fmt"

type EngineKind string

const (
	EnginePostgres EngineKind = "postgresql"
	EngineMSSQL    EngineKind = "mssql"
	EngineMySQL    EngineKind = "mysql"
	EngineMongoDB  EngineKind = "mongodb"
)

// Target describes one configured database to back up. It is built once by
// the config loader and never mutated during a run.
type Target struct {
	Name     string
	Engine   EngineKind
	Host     string
	Port     int
	Username string
	Password string
	Database string

	// Instance is the MSSQL named instance, empty for the default instance.
	Instance string

	// AuthDatabase is the MongoDB authentication database.
	AuthDatabase string

	BackupDir   string
	RetainCount int
}

func (t Target) Validate() error {
	if t.Engine == "" {
		return fmt.Errorf("target %q: engine type is required", t.Name)
	}
	if t.Database == "" {
		return fmt.Errorf("target %q: database is required", t.Name)
	}
	if t.BackupDir == "" {
		return fmt.Errorf("target %q: backup directory is required", t.Name)
	}
	if t.RetainCount < 0 {
		return fmt.Errorf("target %q: retain count must not be negative", t.Name)
	}
	return nil
}
