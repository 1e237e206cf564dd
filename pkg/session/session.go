// Package session manages the durable per-session storage layout: one
// directory per session pairing an upload area with a vector-index
// area. The layout is deterministic from the id alone, so resolution
// is a path computation plus an existence check.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xhad/docchat/internal/models"
)

const (
	uploadDirName = "uploads"
	indexDirName  = "index"
)

var idPattern = regexp.MustCompile(`^session_\d{8}_\d{6}_[0-9a-f]{8}$`)

// Store roots all session directories under a single data directory.
type Store struct {
	root string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore creates a session store rooted at dir, creating the root if
// needed.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		dir = "./data/sessions"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating session root: %v", models.ErrStorage, err)
	}
	return &Store{root: dir, locks: make(map[string]*sync.Mutex)}, nil
}

// Create generates a fresh session with a time-ordered,
// collision-resistant id and empty upload and index directories.
func (s *Store) Create() (models.Session, error) {
	now := time.Now()
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	id := fmt.Sprintf("session_%s_%s_%s", now.Format("20060102"), now.Format("150405"), suffix)

	sess := s.pathsFor(id)
	sess.CreatedAt = now
	for _, dir := range []string{sess.UploadDir, sess.IndexDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return models.Session{}, fmt.Errorf("%w: creating %s: %v", models.ErrStorage, dir, err)
		}
	}
	return sess, nil
}

// Resolve maps an existing id back to its storage paths. A session
// whose index directory does not exist was never ingested into; that
// is the condition surfaced when a client queries before indexing.
func (s *Store) Resolve(id string) (models.Session, error) {
	if !idPattern.MatchString(id) {
		return models.Session{}, fmt.Errorf("%w: malformed session id %q", models.ErrSessionNotFound, id)
	}
	sess := s.pathsFor(id)
	info, err := os.Stat(sess.IndexDir)
	if err != nil || !info.IsDir() {
		return models.Session{}, fmt.Errorf("%w: %s", models.ErrSessionNotFound, id)
	}
	return sess, nil
}

// SaveUpload persists the raw uploaded blob into the session's upload
// area so every indexed chunk traces back to a real stored file.
func (s *Store) SaveUpload(sess models.Session, filename string, data []byte) error {
	path := filepath.Join(sess.UploadDir, filepath.Base(filename))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: saving upload %s: %v", models.ErrStorage, filename, err)
	}
	return nil
}

// Lock acquires the per-session advisory lock serializing writers.
// Concurrent ingestion calls against the same session take turns;
// reads never lock.
func (s *Store) Lock(id string) {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	s.mu.Unlock()
	l.Lock()
}

// Unlock releases the per-session advisory lock.
func (s *Store) Unlock(id string) {
	s.mu.Lock()
	l := s.locks[id]
	s.mu.Unlock()
	if l != nil {
		l.Unlock()
	}
}

func (s *Store) pathsFor(id string) models.Session {
	base := filepath.Join(s.root, id)
	return models.Session{
		ID:        id,
		UploadDir: filepath.Join(base, uploadDirName),
		IndexDir:  filepath.Join(base, indexDirName),
	}
}
