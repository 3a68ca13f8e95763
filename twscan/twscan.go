// Package twscan scans content files for class names and reports which
// screens they use, so the extraction config can be limited to screens
// that actually produce output.
package twscan

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gotailwindcss/screens"
)

// Scanner accumulates the screens referenced by variant prefixes such as
// "md:" in class names. It is safe for concurrent use.
type Scanner struct {
	order         []string            // screen names in table order
	names         map[string]struct{} // screen names to look for
	tokenizerFunc func(r io.Reader) Tokenizer
	limit         int
	log           *zap.Logger

	mu   sync.Mutex
	used map[string]struct{}
}

// New returns a Scanner looking for the screens of t.
func New(t *screens.Table) *Scanner {
	s := &Scanner{
		order: t.Names(),
		names: make(map[string]struct{}, t.Len()),
		used:  make(map[string]struct{}),
		limit: runtime.GOMAXPROCS(0),
		log:   zap.NewNop(),
	}
	for _, n := range s.order {
		s.names[n] = struct{}{}
	}
	return s
}

// SetTokenizerFunc replaces the tokenizer used for each file, the
// default is NewDefaultTokenizer.
func (s *Scanner) SetTokenizerFunc(f func(r io.Reader) Tokenizer) {
	s.tokenizerFunc = f
}

// SetLogger sets the logger used to report scanned files.
func (s *Scanner) SetLogger(l *zap.Logger) {
	if l != nil {
		s.log = l
	}
}

// SetConcurrency limits how many files ScanContent reads at once.
func (s *Scanner) SetConcurrency(n int) {
	if n > 0 {
		s.limit = n
	}
}

// ParseReader reads tokens from r and records the screens they use.
func (s *Scanner) ParseReader(r io.Reader) error {
	var tz Tokenizer
	if s.tokenizerFunc != nil {
		tz = s.tokenizerFunc(r)
	} else {
		tz = NewDefaultTokenizer(r)
	}

	found := make(map[string]struct{})
	for {
		tok, err := tz.NextToken()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		for _, name := range s.screensOf(tok) {
			found[name] = struct{}{}
		}
	}

	if len(found) == 0 {
		return nil
	}
	s.mu.Lock()
	for n := range found {
		s.used[n] = struct{}{}
	}
	s.mu.Unlock()
	return nil
}

// screensOf returns the variants of tok that name a screen. Only the
// segments before the last colon are variants: in "md:hover:px-1" those
// are "md" and "hover".
func (s *Scanner) screensOf(tok []byte) []string {
	i := bytes.LastIndexByte(tok, ':')
	if i <= 0 {
		return nil
	}
	var ret []string
	for _, v := range bytes.Split(tok[:i], []byte{':'}) {
		if _, ok := s.names[string(v)]; ok {
			ret = append(ret, string(v))
		}
	}
	return ret
}

// ParseFile runs ParseReader on the file at fpath.
func (s *Scanner) ParseFile(fpath string) error {
	f, err := os.Open(fpath)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := s.ParseReader(f); err != nil {
		return fmt.Errorf("%s: %w", fpath, err)
	}
	return nil
}

// ScanContent expands the content patterns relative to root and parses
// every matching file. Patterns starting with "!" exclude files. It
// returns the number of files parsed.
func (s *Scanner) ScanContent(ctx context.Context, root string, patterns []string) (int, error) {
	files, err := ExpandContent(root, patterns)
	if err != nil {
		return 0, err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limit)
	for _, f := range files {
		fpath := filepath.FromSlash(f)
		if !filepath.IsAbs(fpath) {
			fpath = filepath.Join(root, fpath)
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s.log.Debug("Scanning content file", zap.String("file", fpath))
			return s.ParseFile(fpath)
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(files), nil
}

// ExpandContent returns the files matched by patterns, as slash separated
// paths relative to root, sorted and without duplicates. Patterns may
// reach outside of root ("../shared/**/*.html") or be absolute.
func ExpandContent(root string, patterns []string) ([]string, error) {
	var include, exclude []string
	for _, p := range patterns {
		if strings.HasPrefix(p, "!") {
			exclude = append(exclude, path.Clean(strings.TrimPrefix(p, "!")))
		} else {
			include = append(include, p)
		}
	}

	seen := make(map[string]struct{})
	var ret []string
	for _, p := range include {
		// globbing happens below the static prefix, os.DirFS does not accept ".."
		base, pat := doublestar.SplitPattern(p)
		dir := filepath.FromSlash(base)
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(root, dir)
		}
		matches, err := doublestar.Glob(os.DirFS(dir), pat, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("content pattern %q: %w", p, err)
		}
	nextMatch:
		for _, m := range matches {
			rel, err := filepath.Rel(root, filepath.Join(dir, filepath.FromSlash(m)))
			if err != nil {
				return nil, fmt.Errorf("content pattern %q: %w", p, err)
			}
			rel = filepath.ToSlash(rel)
			if _, ok := seen[rel]; ok {
				continue
			}
			for _, x := range exclude {
				if hit, _ := doublestar.Match(x, rel); hit {
					continue nextMatch
				}
			}
			seen[rel] = struct{}{}
			ret = append(ret, rel)
		}
	}
	sort.Strings(ret)
	return ret, nil
}

// Used returns the screens seen so far, in table order.
func (s *Scanner) Used() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ret := make([]string, 0, len(s.used))
	for _, n := range s.order {
		if _, ok := s.used[n]; ok {
			ret = append(ret, n)
		}
	}
	return ret
}
