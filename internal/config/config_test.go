package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/semmidev/custos/internal/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const validConfig = `
app:
  name: custos-test
  log_level: debug

defaults:
  backup_dir: /backups
  retain_count: 7

backup:
  compress: true
  timeout: 10m
  workers: 2

databases:
  - name: orders
    type: postgresql
    host: pg.internal
    port: 5432
    username: backup
    password: pg-secret
    database: orders_db
    enabled: true

  - name: reports
    type: mssql
    host: mssql.internal
    port: 1433
    username: sa
    password: ms-secret
    database: reports_db
    instance: SQLEXPRESS
    backup_dir: /backups/reports
    retain_count: 0
    enabled: true

  - name: archive
    type: mysql
    host: mysql.internal
    port: 3306
    username: backup
    password: my-secret
    database: archive_db
    enabled: false

notification:
  email:
    enabled: true
    smtp_host: smtp.internal
    smtp_port: 587
    username: notifier
    password: smtp-secret
    from: backup@example.com
    recipients:
      - ops@example.com
      - dba@example.com
`

func TestConfig(t *testing.T) {
	Convey("Given a valid config file", t, func() {
		path := writeConfig(t, validConfig)

		Convey("When loading it", func() {
			cfg, err := Load(path)

			Convey("It should parse app and backup settings", func() {
				So(err, ShouldBeNil)
				So(cfg.App.Name, ShouldEqual, "custos-test")
				So(cfg.Backup.Compress, ShouldBeTrue)
				So(cfg.Backup.Timeout, ShouldEqual, 10*time.Minute)
				So(cfg.Backup.Workers, ShouldEqual, 2)
			})

			Convey("It should expose only enabled databases as targets", func() {
				targets := cfg.Targets()
				So(len(targets), ShouldEqual, 2)
				So(targets[0].Name, ShouldEqual, "orders")
				So(targets[1].Name, ShouldEqual, "reports")
			})

			Convey("Targets should apply the global defaults", func() {
				targets := cfg.Targets()
				So(targets[0].BackupDir, ShouldEqual, "/backups")
				So(targets[0].RetainCount, ShouldEqual, 7)
				So(targets[0].Engine, ShouldEqual, domain.EnginePostgres)
			})

			Convey("Per-target overrides should win, including a zero retain count", func() {
				targets := cfg.Targets()
				So(targets[1].BackupDir, ShouldEqual, "/backups/reports")
				So(targets[1].RetainCount, ShouldEqual, 0)
				So(targets[1].Instance, ShouldEqual, "SQLEXPRESS")
			})

			Convey("Every target should pass validation", func() {
				for _, target := range cfg.Targets() {
					So(target.Validate(), ShouldBeNil)
				}
			})
		})
	})

	Convey("Given malformed config files", t, func() {
		Convey("A config without databases should be rejected", func() {
			path := writeConfig(t, `
defaults:
  backup_dir: /backups
`)
			_, err := Load(path)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "at least one database")
		})

		Convey("A database without a host should be rejected", func() {
			path := writeConfig(t, `
databases:
  - name: orders
    type: postgresql
    port: 5432
    database: orders_db
`)
			_, err := Load(path)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "host is required")
		})

		Convey("A negative retain count should be rejected, not defaulted", func() {
			path := writeConfig(t, `
databases:
  - name: orders
    type: postgresql
    host: pg.internal
    port: 5432
    database: orders_db
    retain_count: -1
`)
			_, err := Load(path)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "retain_count")
		})

		Convey("Enabled email notification without recipients should be rejected", func() {
			path := writeConfig(t, `
databases:
  - name: orders
    type: postgresql
    host: pg.internal
    port: 5432
    database: orders_db

notification:
  email:
    enabled: true
    smtp_host: smtp.internal
    from: backup@example.com
`)
			_, err := Load(path)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "recipient")
		})

		Convey("A missing file should fail loading", func() {
			_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
			So(err, ShouldNotBeNil)
		})
	})
}
