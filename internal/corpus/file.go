package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/urbansearch/internal/domain"
)

// FileSource reads destinations from a YAML or JSON file. The file holds
// either a list of records or an object with a "destinations" list.
type FileSource struct {
	path   string
	logger *zap.Logger
}

// NewFileSource creates a file-backed source.
func NewFileSource(path string, logger *zap.Logger) *FileSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileSource{path: filepath.Clean(path), logger: logger}
}

// Ping checks that the corpus file is readable.
func (f *FileSource) Ping(context.Context) error {
	st, err := os.Stat(f.path)
	if err != nil {
		return fmt.Errorf("stat corpus file: %w", err)
	}
	if st.IsDir() {
		return fmt.Errorf("corpus path %s is a directory", f.path)
	}
	return nil
}

type fileDocument struct {
	Destinations []domain.Destination `json:"destinations" yaml:"destinations"`
}

// ListDestinations reads and filters the file. Records without slug or name are skipped.
func (f *FileSource) ListDestinations(_ context.Context, filter *domain.ListFilter) ([]domain.Destination, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read corpus file: %w", err)
	}

	records, err := decodeRecords(f.path, data)
	if err != nil {
		return nil, fmt.Errorf("decode corpus file %s: %w", f.path, err)
	}

	out := make([]domain.Destination, 0, len(records))
	for i, d := range records {
		if strings.TrimSpace(d.Slug) == "" || strings.TrimSpace(d.Name) == "" {
			f.logger.Warn("skipping malformed destination",
				zap.Int("index", i), zap.String("slug", d.Slug),
				zap.Error(domain.ErrMalformedRecord))
			continue
		}
		if !matchesFilter(&d, filter) {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func decodeRecords(path string, data []byte) ([]domain.Destination, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		var list []domain.Destination
		if err := json.Unmarshal(data, &list); err == nil {
			return list, nil
		}
		var doc fileDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, err //nolint:wrapcheck // wrapped by caller
		}
		return doc.Destinations, nil
	}

	var list []domain.Destination
	if err := yaml.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var doc fileDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err //nolint:wrapcheck // wrapped by caller
	}
	return doc.Destinations, nil
}

// Watch calls onChange whenever the file is written, created, renamed or
// removed. The parent directory is watched so editors that replace the file
// atomically are covered. Watch returns once the watcher is running; it stops
// when ctx is done.
func (f *FileSource) Watch(ctx context.Context, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(f.path)); err != nil {
		_ = w.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(f.path), err)
	}

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != f.path {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
					continue
				}
				f.logger.Info("Corpus file changed", zap.String("path", ev.Name), zap.String("op", ev.Op.String()))
				onChange()
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				f.logger.Warn("Corpus watcher error", zap.Error(err))
			}
		}
	}()
	return nil
}

func matchesFilter(d *domain.Destination, f *domain.ListFilter) bool {
	if f == nil {
		return true
	}
	if f.City != "" && !strings.Contains(strings.ToLower(d.City), strings.ToLower(f.City)) {
		return false
	}
	if f.Category != "" && !strings.Contains(strings.ToLower(d.Category), strings.ToLower(f.Category)) {
		return false
	}
	return true
}
