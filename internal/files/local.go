package files

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"retentionpulse/internal/infrastructure"
)

// LocalSource reads workbooks from a directory
type LocalSource struct {
	dir    string
	logger *slog.Logger
}

// NewLocalSource creates a source over dir
func NewLocalSource(dir string, logger *slog.Logger) *LocalSource {
	return &LocalSource{dir: dir, logger: infrastructure.WithComponent(logger, "local_source")}
}

func (s *LocalSource) Descriptor() string {
	return "local:" + s.dir
}

// Dir returns the directory the source reads from
func (s *LocalSource) Dir() string {
	return s.dir
}

// List returns the workbook names of the directory sorted by name. A missing
// directory lists as empty.
func (s *LocalSource) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		s.logger.DebugContext(ctx, "Data directory does not exist", slog.String("dir", s.dir))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", s.dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !isWorkbook(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Fetch reads one workbook by base name
func (s *LocalSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}

// Save writes data as name inside the directory, replacing any file with
// the same name. The write goes through a temp file so readers never see
// a partial workbook.
func (s *LocalSource) Save(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", s.dir, err)
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("failed to store %s: %w", name, err)
	}

	s.logger.InfoContext(ctx, "Survey workbook saved", slog.String("file", name), slog.Int("bytes", len(data)))
	return nil
}

func (s *LocalSource) resolve(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(s.dir, name), nil
}
