package mailsource

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// DirSource reads .eml files from a local directory. Files that cannot be
// parsed are reported as unreadable items.
type DirSource struct {
	dir string
	log *zap.Logger
}

// NewDirSource creates a DirSource for dir.
func NewDirSource(dir string, log *zap.Logger) *DirSource {
	if log == nil {
		log = zap.NewNop()
	}
	return &DirSource{dir: dir, log: log}
}

// Items parses every .eml file and returns them newest first.
func (s *DirSource) Items(ctx context.Context) (Iterator, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, eris.Wrapf(err, "dir: read %s", s.dir)
	}

	var items []Item
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".eml") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "dir: list")
		}
		path := filepath.Join(s.dir, e.Name())
		item, err := parseFile(path)
		if err != nil {
			s.log.Warn("dir: unreadable message file", zap.String("path", path), zap.Error(err))
			items = append(items, brokenItem{err: err})
			continue
		}
		items = append(items, item)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].ReceivedTime().After(items[j].ReceivedTime())
	})
	return NewSliceIterator(items), nil
}

// Close is a no-op.
func (s *DirSource) Close() error { return nil }

func parseFile(path string) (*MIMEItem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "dir: open")
	}
	defer f.Close() //nolint:errcheck
	return ParseMIME(f)
}
