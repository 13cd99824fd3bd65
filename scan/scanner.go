// Package scan finds class files in directories and archives, analyzes them
// in parallel and hands the results to a Sink.
package scan

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"

	"github.com/dhamidi/classxref/index"
	"github.com/dhamidi/classxref/xref"
)

var log = commonlog.GetLogger("classxref.scan")

// DefaultMaxEntrySize bounds the bytes read from one archive entry,
// nested archives included.
const DefaultMaxEntrySize = 64 << 20

var ErrEntryTooLarge = errors.New("archive entry too large")

// Sink receives every successfully analyzed unit. *index.Store is a Sink.
type Sink interface {
	Put(doc *index.Document) error
}

type SinkFunc func(doc *index.Document) error

func (f SinkFunc) Put(doc *index.Document) error {
	return f(doc)
}

// Unit is one class file to analyze. Name is the document path; Data holds
// the bytes, or is nil when they are to be read from Path.
type Unit struct {
	Name string
	Path string
	Data []byte
}

func (u Unit) read() ([]byte, error) {
	if u.Data != nil {
		return u.Data, nil
	}
	return os.ReadFile(u.Path)
}

// UnitError records why one unit could not be indexed.
type UnitError struct {
	Name string
	Kind xref.Kind
	Err  error
}

func (e UnitError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Name, e.Kind, e.Err)
}

// Stats summarizes a run.
type Stats struct {
	Units    int
	Indexed  int
	Cached   int
	Failures map[xref.Kind]int
	Errors   []UnitError
}

func (s *Stats) Failed() int {
	n := 0
	for _, c := range s.Failures {
		n += c
	}
	return n
}

type Scanner struct {
	analyzer *xref.Analyzer
	sink     Sink
	workers  int
	cache    *lru.Cache[string, *xref.Result]
	maxEntry int64

	mu    sync.Mutex
	stats Stats
}

// New returns a Scanner running up to workers analyses at once. Results are
// cached by content digest, cacheSize entries deep, so identical class
// files are analyzed once.
func New(analyzer *xref.Analyzer, sink Sink, workers, cacheSize int) (*Scanner, error) {
	if workers <= 0 {
		workers = 1
	}
	cache, err := lru.New[string, *xref.Result](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("result cache: %w", err)
	}
	return &Scanner{
		analyzer: analyzer,
		sink:     sink,
		workers:  workers,
		cache:    cache,
		maxEntry: DefaultMaxEntrySize,
		stats:    Stats{Failures: make(map[xref.Kind]int)},
	}, nil
}

// Run indexes every class under root, which may be a directory, a .jar or
// .zip archive, or a single .class file. Analysis failures are counted in
// the returned Stats; a Sink failure or cancellation of ctx stops the run
// and is returned.
func (s *Scanner) Run(ctx context.Context, root string) (*Stats, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}

	s.reset()
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	switch {
	case info.IsDir():
		err = s.walkDir(ctx, g, root)
	case isArchive(root):
		err = s.walkArchive(ctx, g, root, root)
	case isClass(root):
		err = s.submit(ctx, g, Unit{Name: filepath.ToSlash(root), Path: root})
	default:
		err = fmt.Errorf("unsupported file type: %s", filepath.Ext(root))
	}

	if werr := g.Wait(); werr != nil && err == nil {
		err = werr
	}
	stats := s.snapshot()
	log.Infof("scanned %s: %d units, %d indexed, %d cached, %d failed",
		root, stats.Units, stats.Indexed, stats.Cached, stats.Failed())
	return stats, err
}

// Process analyzes a single unit synchronously and passes it to the sink.
// Analysis failures are returned as UnitError. Process adds to the running
// totals that Stats reports until the next Run.
func (s *Scanner) Process(u Unit) error {
	s.mu.Lock()
	s.stats.Units++
	s.mu.Unlock()
	doc, uerr := s.analyze(u)
	if uerr != nil {
		return *uerr
	}
	return s.sink.Put(doc)
}

func (s *Scanner) walkDir(ctx context.Context, g *errgroup.Group, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warningf("walk %s: %v", path, err)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		name, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		name = filepath.ToSlash(name)
		switch {
		case isClass(path):
			return s.submit(ctx, g, Unit{Name: name, Path: path})
		case isArchive(path):
			return s.walkArchive(ctx, g, name, path)
		}
		return nil
	})
}

func (s *Scanner) walkArchive(ctx context.Context, g *errgroup.Group, name, path string) error {
	r, err := zip.OpenReader(path)
	if err != nil {
		s.fail(name, err)
		return nil
	}
	defer r.Close()
	return s.walkZip(ctx, g, name, &r.Reader)
}

// walkZip submits the class entries of r. Archives nested in r are read
// into memory and walked in turn; entry names take the form
// "outer.jar!/inner.jar!/p/C.class".
func (s *Scanner) walkZip(ctx context.Context, g *errgroup.Group, name string, r *zip.Reader) error {
	for _, f := range r.File {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if f.FileInfo().IsDir() || !(isClass(f.Name) || isArchive(f.Name)) {
			continue
		}
		entry := name + "!/" + f.Name
		data, err := readZipFile(f, s.maxEntry)
		if err != nil {
			s.fail(entry, err)
			continue
		}
		if isArchive(f.Name) {
			nested, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
			if err != nil {
				s.fail(entry, err)
				continue
			}
			if err := s.walkZip(ctx, g, entry, nested); err != nil {
				return err
			}
			continue
		}
		if err := s.submit(ctx, g, Unit{Name: entry, Data: data}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scanner) submit(ctx context.Context, g *errgroup.Group, u Unit) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.stats.Units++
	s.mu.Unlock()
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		doc, uerr := s.analyze(u)
		if uerr != nil {
			return nil
		}
		if err := s.sink.Put(doc); err != nil {
			return fmt.Errorf("store %s: %w", u.Name, err)
		}
		return nil
	})
	return nil
}

// analyze runs one fresh analysis of u, or reuses the cached result for
// byte-identical input. Failures are recorded in the stats.
func (s *Scanner) analyze(u Unit) (*index.Document, *UnitError) {
	data, err := u.read()
	if err != nil {
		return nil, s.fail(u.Name, err)
	}
	sum := sha256.Sum256(data)
	digest := hex.EncodeToString(sum[:])

	res, cached := s.cache.Get(digest)
	if !cached {
		res, err = s.analyzer.AnalyzeReader(bytes.NewReader(data))
		if err != nil {
			return nil, s.fail(u.Name, err)
		}
		s.cache.Add(digest, res)
	}

	s.mu.Lock()
	s.stats.Indexed++
	if cached {
		s.stats.Cached++
	}
	s.mu.Unlock()
	log.Debugf("analyzed %s (%s)", u.Name, digest[:12])
	return index.NewDocument(u.Name, digest, res), nil
}

func (s *Scanner) fail(name string, err error) *UnitError {
	uerr := UnitError{Name: name, Kind: xref.KindOf(err), Err: err}
	log.Errorf("%s", uerr.Error())
	s.mu.Lock()
	s.stats.Failures[uerr.Kind]++
	s.stats.Errors = append(s.stats.Errors, uerr)
	s.mu.Unlock()
	return &uerr
}

// Stats returns a copy of the current totals.
func (s *Scanner) Stats() *Stats {
	return s.snapshot()
}

func (s *Scanner) reset() {
	s.mu.Lock()
	s.stats = Stats{Failures: make(map[xref.Kind]int)}
	s.mu.Unlock()
}

func (s *Scanner) snapshot() *Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.stats
	out.Failures = make(map[xref.Kind]int, len(s.stats.Failures))
	for k, v := range s.stats.Failures {
		out.Failures[k] = v
	}
	out.Errors = append([]UnitError(nil), s.stats.Errors...)
	return &out
}

// readZipFile reads f, refusing entries that declare or inflate to more
// than limit bytes.
func readZipFile(f *zip.File, limit int64) ([]byte, error) {
	if f.UncompressedSize64 > uint64(limit) {
		return nil, fmt.Errorf("%w: %d bytes declared", ErrEntryTooLarge, f.UncompressedSize64)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: over %d bytes", ErrEntryTooLarge, limit)
	}
	return data, nil
}

func isClass(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".class")
}

func isArchive(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".jar" || ext == ".zip"
}
