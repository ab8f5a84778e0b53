package compressor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGzipCompressor(t *testing.T) {
	Convey("Given a GzipCompressor", t, func() {
		compressor := NewGzip()
		tempDir := t.TempDir()

		dumpPath := filepath.Join(tempDir, "appdb_20240315_041500.sql")
		dumpContent := []byte("-- fake dump\nINSERT INTO orders VALUES (1);\n")
		So(os.WriteFile(dumpPath, dumpContent, 0o644), ShouldBeNil)

		Convey("When compressing an artifact", func() {
			gzPath := dumpPath + ".gz"
			err := compressor.Compress(dumpPath, gzPath)

			Convey("The gzip file should round-trip to the original content", func() {
				So(err, ShouldBeNil)

				f, err := os.Open(gzPath)
				So(err, ShouldBeNil)
				defer f.Close()

				reader, err := gzip.NewReader(f)
				So(err, ShouldBeNil)
				defer reader.Close()

				var restored []byte
				buf := make([]byte, 256)
				for {
					n, readErr := reader.Read(buf)
					restored = append(restored, buf[:n]...)
					if readErr != nil {
						break
					}
				}
				So(string(restored), ShouldEqual, string(dumpContent))
			})

			Convey("Decompress should restore the original file", func() {
				So(err, ShouldBeNil)

				restoredPath := filepath.Join(tempDir, "restored.sql")
				So(compressor.Decompress(gzPath, restoredPath), ShouldBeNil)

				restored, err := os.ReadFile(restoredPath)
				So(err, ShouldBeNil)
				So(string(restored), ShouldEqual, string(dumpContent))
			})
		})

		Convey("When the source file does not exist", func() {
			err := compressor.Compress(filepath.Join(tempDir, "missing.sql"), filepath.Join(tempDir, "out.gz"))

			Convey("It should return an error", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "failed to open source file")
			})
		})

		Convey("When the destination path is not writable", func() {
			err := compressor.Compress(dumpPath, filepath.Join(tempDir, "no", "such", "dir", "out.gz"))

			Convey("It should return an error", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "failed to create dest file")
			})
		})

		Convey("When decompressing a file that is not gzip", func() {
			err := compressor.Decompress(dumpPath, filepath.Join(tempDir, "restored.sql"))

			Convey("It should return an error", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "failed to create gzip reader")
			})
		})
	})
}
