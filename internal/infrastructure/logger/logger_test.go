package logger

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLogger(t *testing.T) {
	Convey("Given the logger package", t, func() {
		Convey("When creating a console-only logger", func() {
			log, err := New("info", "")

			Convey("It should log without panicking", func() {
				So(err, ShouldBeNil)
				So(log, ShouldNotBeNil)
				So(func() { log.Infof("backup of %s started", "appdb") }, ShouldNotPanic)
				So(func() { log.Close() }, ShouldNotPanic)
			})
		})

		Convey("When a log file is configured", func() {
			logFile := filepath.Join(t.TempDir(), "logs", "custos.log")
			log, err := New("debug", logFile)

			Convey("It should create the directory and write JSON log lines", func() {
				So(err, ShouldBeNil)
				So(log, ShouldNotBeNil)

				log.Debugf("pruned %d old backup(s)", 2)
				log.Sync()

				content, err := os.ReadFile(logFile)
				So(err, ShouldBeNil)
				So(string(content), ShouldContainSubstring, "pruned 2 old backup(s)")
				So(string(content), ShouldContainSubstring, `"timestamp"`)

				log.Close()
			})
		})

		Convey("When the log level is unknown", func() {
			log, err := New("chatty", "")

			Convey("It should fall back to info instead of failing", func() {
				So(err, ShouldBeNil)
				So(log, ShouldNotBeNil)
				So(func() { log.Warnf("unknown level in config") }, ShouldNotPanic)
			})
		})

		Convey("When the log directory cannot be created", func() {
			log, err := New("info", "/dev/null/custos.log")

			Convey("It should return an error", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "failed to create log directory")
				So(log, ShouldBeNil)
			})
		})
	})
}
