package usecase

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/semmidev/custos/internal/domain"
)

// Retention deletes surplus artifacts after a successful backup. It is
// best-effort end to end: no retention problem ever turns a successful
// backup into a reported failure.
type Retention struct {
	logger Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewRetention(logger Logger) *Retention {
	return &Retention{
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}
}

// dirLock serializes list-then-delete per backup directory; concurrent
// workers may otherwise prune the same directory at once.
func (r *Retention) dirLock(dir string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.locks[dir]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[dir] = lock
	}
	return lock
}

// Prune keeps the newest retain artifacts for database in dir, counting the
// one just created, and deletes the rest. retain == 0 means unlimited
// retention. Files that do not follow the artifact naming convention for
// this database are never touched. Individual deletion failures are logged
// and skipped.
func (r *Retention) Prune(dir, database string, retain int, current *domain.Artifact) (int, error) {
	if retain <= 0 {
		return 0, nil
	}

	lock := r.dirLock(dir)
	lock.Lock()
	defer lock.Unlock()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("list backup directory: %w", err)
	}

	type artifact struct {
		name string
		ts   time.Time
	}
	var artifacts []artifact
	for _, entry := range entries {
		if entry.IsDir() || !belongsToDatabase(entry.Name(), database) {
			continue
		}
		ts, err := artifactTimestamp(entry.Name())
		if err != nil {
			r.logger.Warnf("skipping %s: %v", entry.Name(), err)
			continue
		}
		artifacts = append(artifacts, artifact{name: entry.Name(), ts: ts})
	}

	sort.Slice(artifacts, func(i, j int) bool {
		if artifacts[i].ts.Equal(artifacts[j].ts) {
			return artifacts[i].name > artifacts[j].name
		}
		return artifacts[i].ts.After(artifacts[j].ts)
	})

	if len(artifacts) <= retain {
		return 0, nil
	}

	currentName := ""
	if current != nil {
		currentName = filepath.Base(current.FilePath)
	}

	deleted := 0
	for _, a := range artifacts[retain:] {
		if a.name == currentName {
			// Never delete the artifact that triggered this prune,
			// however the ordering turned out.
			continue
		}
		path := filepath.Join(dir, a.name)
		if err := os.Remove(path); err != nil {
			r.logger.Errorf("failed to delete old backup %s: %v", path, err)
			continue
		}
		r.logger.Infof("deleted old backup: %s", path)
		deleted++
	}

	return deleted, nil
}
