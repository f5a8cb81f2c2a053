package channel

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const slotSuffix = ".json"

// FileStore keeps one JSON file per slot under a state directory. The
// directory is the synchronization scope: every process opened on the same
// directory observes the same slots. Writes go through a temp file and a
// rename so readers never see partial content.
type FileStore struct {
	dir string
}

// NewFileStore creates the state directory if needed and returns a store
// over it.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+slotSuffix)
}

// Read returns the slot file's contents, or ok=false when it does not exist.
func (s *FileStore) Read(name string) ([]byte, bool, error) {
	data, err := os.ReadFile(s.path(name))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read slot %q: %w", name, err)
	}
	return data, true, nil
}

// Write replaces the slot file atomically.
func (s *FileStore) Write(name string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, name+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for slot %q: %w", name, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write slot %q: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file for slot %q: %w", name, err)
	}
	if err := os.Rename(tmpName, s.path(name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace slot %q: %w", name, err)
	}
	return nil
}

// Watch reports slot-file changes through fsnotify until ctx is cancelled.
// Rename-based writes surface as Create events for the final filename. The
// writer's own process receives its events too; the channel layer's
// last-seen comparison makes that harmless.
func (s *FileStore) Watch(ctx context.Context, onChange func(name string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fs watcher: %w", err)
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch state directory: %w", err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
					continue
				}
				base := filepath.Base(event.Name)
				if !strings.HasSuffix(base, slotSuffix) {
					continue
				}
				onChange(strings.TrimSuffix(base, slotSuffix))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				zap.L().Warn("state directory watcher error", zap.Error(err))
			}
		}
	}()

	return nil
}

func (s *FileStore) Close() error {
	return nil
}
