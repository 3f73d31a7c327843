package files

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"retentionpulse/internal/config"
)

// ErrInvalidName is returned for names that are empty or escape the source root.
var ErrInvalidName = errors.New("invalid file name")

// Source yields named workbook buffers.
type Source interface {
	Descriptor() string
	List(ctx context.Context) ([]string, error)
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// Writable is a Source that also accepts uploads.
type Writable interface {
	Source
	Save(ctx context.Context, name string, data []byte) error
}

// SpreadsheetExt is the only extension the sources list.
const SpreadsheetExt = ".xlsx"

// isWorkbook reports whether name looks like a survey workbook. Office lock
// files ("~$name.xlsx") are excluded here as well as in the ingestor.
func isWorkbook(name string) bool {
	base := path.Base(strings.ReplaceAll(name, `\`, "/"))
	return strings.HasSuffix(strings.ToLower(base), SpreadsheetExt) && !strings.HasPrefix(base, "~$")
}

// CleanUploadName reduces an uploaded file name to a safe base name.
func CleanUploadName(name string) (string, error) {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	if base == "." || base == "/" || base == ".." || base == "" {
		return "", ErrInvalidName
	}
	if !isWorkbook(base) {
		return "", fmt.Errorf("%w: %s is not an %s workbook", ErrInvalidName, base, SpreadsheetExt)
	}
	return base, nil
}

// New builds the source selected by cfg.
func New(ctx context.Context, cfg config.SourceConfig, logger *slog.Logger) (Writable, error) {
	switch cfg.Kind {
	case config.SourceKindS3:
		return NewS3Source(ctx, cfg, logger)
	case config.SourceKindLocal, "":
		return NewLocalSource(cfg.DataDir, logger), nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Kind)
	}
}
