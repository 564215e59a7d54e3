// Package asset resolves named game assets across zip archives and data
// directories and keeps the table of loaded resources.
package asset

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/yagago/host/internal/config"
	"go.uber.org/zap"
)

var (
	ErrNotFound    = errors.New("asset not found")
	ErrTooManyOpen = errors.New("too many open resources")
)

type archive struct {
	name string // file name, e.g. "interface.he"
	zr   *zip.ReadCloser
}

// Store looks assets up in this order: an archive whose name matches the
// first path segment, the path as given, the path under the data directory,
// and a case-insensitive match among the indexed directories.
type Store struct {
	dataPath string
	archives []archive
	index    map[string]string // lower-case relative path -> real relative path
	log      *zap.Logger

	mu        sync.Mutex
	resources []*Resource
	free      []int
}

// Open scans cfg.DataPath for archives and indexes cfg.IndexDirs.
func Open(cfg config.AssetsConfig, log *zap.Logger) (*Store, error) {
	s := &Store{
		dataPath:  cfg.DataPath,
		index:     make(map[string]string),
		log:       log,
		resources: make([]*Resource, cfg.MaxOpen),
	}
	for i := cfg.MaxOpen - 1; i >= 0; i-- {
		s.free = append(s.free, i)
	}

	entries, err := os.ReadDir(cfg.DataPath)
	if err != nil {
		return nil, fmt.Errorf("read data path %s: %w", cfg.DataPath, err)
	}
	for _, de := range entries {
		name := de.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		ext := strings.TrimPrefix(filepath.Ext(name), ".")
		if !de.IsDir() && strings.EqualFold(ext, cfg.ArchiveExt) {
			zr, err := zip.OpenReader(filepath.Join(cfg.DataPath, name))
			if err != nil {
				s.Close()
				return nil, fmt.Errorf("open archive %s: %w", name, err)
			}
			s.archives = append(s.archives, archive{name: name, zr: zr})
			continue
		}
		if de.IsDir() && containsFold(cfg.IndexDirs, name) {
			if err := s.indexDir(name); err != nil {
				s.Close()
				return nil, err
			}
		}
	}
	sort.Slice(s.archives, func(i, j int) bool { return s.archives[i].name < s.archives[j].name })

	log.Info("asset store ready",
		zap.String("data_path", cfg.DataPath),
		zap.Int("archives", len(s.archives)),
		zap.Int("indexed_files", len(s.index)),
	)
	return s, nil
}

func (s *Store) indexDir(dir string) error {
	root := filepath.Join(s.dataPath, dir)
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") && p != root {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.dataPath, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		s.index[strings.ToLower(rel)] = rel
		return nil
	})
}

// Close releases the archives.
func (s *Store) Close() error {
	var errs []error
	for _, a := range s.archives {
		errs = append(errs, a.zr.Close())
	}
	s.archives = nil
	return errors.Join(errs...)
}

// normalize turns both separators into '/' and collapses repeats.
func normalize(name string) string {
	var b strings.Builder
	sep := false
	for _, r := range name {
		if r == '\\' || r == '/' {
			if sep {
				continue
			}
			b.WriteByte('/')
			sep = true
			continue
		}
		b.WriteRune(r)
		sep = false
	}
	return b.String()
}

// Open returns a stream over the named asset.
func (s *Store) Open(name string) (io.ReadCloser, error) {
	name = normalize(name)
	if rc, ok := s.openArchived(name); ok {
		return rc, nil
	}
	if f, err := os.Open(filepath.FromSlash(name)); err == nil {
		return f, nil
	}
	if f, err := os.Open(filepath.Join(s.dataPath, filepath.FromSlash(name))); err == nil {
		return f, nil
	}
	if real, ok := s.index[strings.ToLower(name)]; ok {
		if f, err := os.Open(filepath.Join(s.dataPath, filepath.FromSlash(real))); err == nil {
			return f, nil
		}
	}
	s.log.Debug("asset open failed", zap.String("name", name))
	return nil, fmt.Errorf("open %s: %w", name, ErrNotFound)
}

// openArchived looks in the archive named by the first path segment. The
// segment is compared against the start of the archive file name, so
// "interface/x" matches "interface.he". Empty entries count as missing.
func (s *Store) openArchived(name string) (io.ReadCloser, bool) {
	first, rest, ok := strings.Cut(name, "/")
	if !ok {
		return nil, false
	}
	for _, a := range s.archives {
		if len(a.name) < len(first) || !strings.EqualFold(a.name[:len(first)], first) {
			continue
		}
		for _, f := range a.zr.File {
			if !strings.EqualFold(path.Clean(f.Name), rest) || f.UncompressedSize64 == 0 {
				continue
			}
			rc, err := f.Open()
			if err != nil {
				s.log.Debug("archive entry open failed", zap.String("archive", a.name), zap.Error(err))
				return nil, false
			}
			return rc, true
		}
		return nil, false
	}
	return nil, false
}

// Exists reports whether name resolves to an asset.
func (s *Store) Exists(name string) bool {
	rc, err := s.Open(name)
	if err != nil {
		return false
	}
	rc.Close()
	return true
}

// ReadAll returns the full contents of the named asset.
func (s *Store) ReadAll(name string) ([]byte, error) {
	rc, err := s.Open(name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
