package usecase

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/semmidev/custos/internal/domain"
)

func writeNamedArtifact(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("dump"), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func dirNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestRetention(t *testing.T) {
	Convey("Given a backup directory with five artifacts for one database", t, func() {
		tempDir, err := os.MkdirTemp("", "retention_test")
		So(err, ShouldBeNil)
		defer os.RemoveAll(tempDir)

		log := &captureLogger{}
		retention := NewRetention(log)

		names := make([]string, 5)
		for i := range names {
			names[i] = fmt.Sprintf("appdb_2024010%d_120000.dump", i+1)
			writeNamedArtifact(t, tempDir, names[i])
		}
		current := &domain.Artifact{
			FilePath:  filepath.Join(tempDir, names[4]),
			SizeBytes: 4,
			CreatedAt: time.Now(),
			Engine:    domain.EnginePostgres,
		}

		Convey("When pruning with a retain count of 3", func() {
			deleted, err := retention.Prune(tempDir, "appdb", 3, current)

			Convey("It should delete exactly the two oldest artifacts", func() {
				So(err, ShouldBeNil)
				So(deleted, ShouldEqual, 2)

				remaining := dirNames(t, tempDir)
				So(len(remaining), ShouldEqual, 3)
				So(remaining, ShouldContain, names[2])
				So(remaining, ShouldContain, names[3])
				So(remaining, ShouldContain, names[4])
			})

			Convey("Pruning again with the same inputs should be a no-op", func() {
				So(err, ShouldBeNil)
				again, err := retention.Prune(tempDir, "appdb", 3, current)
				So(err, ShouldBeNil)
				So(again, ShouldEqual, 0)
				So(len(dirNames(t, tempDir)), ShouldEqual, 3)
			})
		})

		Convey("When the retain count is 0", func() {
			deleted, err := retention.Prune(tempDir, "appdb", 0, current)

			Convey("Nothing should ever be deleted", func() {
				So(err, ShouldBeNil)
				So(deleted, ShouldEqual, 0)
				So(len(dirNames(t, tempDir)), ShouldEqual, 5)
			})
		})

		Convey("When the current artifact sorts outside the retained window", func() {
			// Pretend the oldest file is the one just created, as could
			// happen with a skewed clock.
			skewed := &domain.Artifact{FilePath: filepath.Join(tempDir, names[0])}
			deleted, err := retention.Prune(tempDir, "appdb", 2, skewed)

			Convey("The current artifact must survive the prune", func() {
				So(err, ShouldBeNil)
				So(deleted, ShouldEqual, 2)

				remaining := dirNames(t, tempDir)
				So(remaining, ShouldContain, names[0])
				So(remaining, ShouldContain, names[3])
				So(remaining, ShouldContain, names[4])
			})
		})

		Convey("When the directory contains files of other databases", func() {
			foreign := writeNamedArtifact(t, tempDir, "otherdb_20240101_120000.dump")
			prefixed := writeNamedArtifact(t, tempDir, "appdb_staging_20240101_120000.dump")
			stray := writeNamedArtifact(t, tempDir, "notes.txt")

			deleted, err := retention.Prune(tempDir, "appdb", 1, current)

			Convey("Only this database's artifacts should be considered", func() {
				So(err, ShouldBeNil)
				So(deleted, ShouldEqual, 4)

				for _, path := range []string{foreign, prefixed, stray} {
					_, statErr := os.Stat(path)
					So(statErr, ShouldBeNil)
				}
			})
		})

		Convey("When the backup directory cannot be listed", func() {
			deleted, err := retention.Prune(filepath.Join(tempDir, "missing"), "appdb", 3, current)

			Convey("It should report the error without deleting anything", func() {
				So(err, ShouldNotBeNil)
				So(deleted, ShouldEqual, 0)
				So(len(dirNames(t, tempDir)), ShouldEqual, 5)
			})
		})
	})
}
