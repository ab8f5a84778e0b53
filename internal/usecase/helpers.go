package usecase

import (
	"fmt"
	"strings"
	"time"
)

const timestampLayout = "20060102_150405"

var artifactExtensions = []string{".gz", ".dump", ".sql", ".bak", ".archive"}

// artifactTimestamp parses the timestamp the backends embed in artifact
// filenames ({database}_{20060102_150405}{ext}). Database names may contain
// underscores, so the date and time are taken from the end.
func artifactTimestamp(filename string) (time.Time, error) {
	name := trimArtifactExt(filename)

	parts := strings.Split(name, "_")
	if len(parts) < 3 {
		return time.Time{}, fmt.Errorf("invalid artifact filename: no timestamp found")
	}

	timestampStr := parts[len(parts)-2] + "_" + parts[len(parts)-1]
	return time.Parse(timestampLayout, timestampStr)
}

func trimArtifactExt(filename string) string {
	for changed := true; changed; {
		changed = false
		for _, ext := range artifactExtensions {
			if strings.HasSuffix(filename, ext) {
				filename = strings.TrimSuffix(filename, ext)
				changed = true
			}
		}
	}
	return filename
}

// belongsToDatabase reports whether filename follows the artifact naming
// convention for the given database.
func belongsToDatabase(filename, database string) bool {
	if !strings.HasPrefix(filename, database+"_") {
		return false
	}
	rest := strings.TrimPrefix(filename, database+"_")
	if _, err := artifactTimestamp(database + "_" + rest); err != nil {
		return false
	}
	// Guard against one database name being a prefix of another
	// (app vs app_staging): everything after the prefix must be the
	// timestamp and extension, nothing else.
	return len(strings.Split(trimArtifactExt(rest), "_")) == 2
}
