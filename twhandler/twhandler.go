// Package twhandler provides an HTTP handler that reads Tailwind
// configuration files and serves the derived media-query extraction config as JSON.
package twhandler

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash"
	"go.uber.org/zap"

	"github.com/gotailwindcss/screens"
	"github.com/gotailwindcss/screens/twconfig"
	"github.com/gotailwindcss/screens/twextract"
)

// ConfigFunc derives the plugin configuration from a loaded Tailwind configuration.
type ConfigFunc func(cfg *twconfig.Config) (*twextract.Config, error)

// New returns a Handler serving configuration files from fs under
// pathPrefix. The plugin output path of every response is outputPath.
// The internal cache is enabled on the Handler returned.
func New(fs http.FileSystem, pathPrefix, outputPath string) *Handler {
	return NewFromFunc(fs, pathPrefix, func(cfg *twconfig.Config) (*twextract.Config, error) {
		qm, err := screens.NewTranslator().Translate(cfg.ResolveScreens())
		if err != nil {
			return nil, err
		}
		return twextract.New(qm, outputPath), nil
	})
}

// NewFromFunc is like New but lets the caller decide how the plugin
// configuration is derived, e.g. with a strict collision policy.
func NewFromFunc(fs http.FileSystem, pathPrefix string, configFunc ConfigFunc) *Handler {
	return &Handler{
		configFunc: configFunc,
		fs:         fs,
		pathPrefix: pathPrefix,
		cache:      make(map[string]cacheValue),
		headerFunc: defaultHeaderFunc,
		log:        zap.NewNop(),
	}
}

func defaultHeaderFunc(w http.ResponseWriter, r *http.Request) {
	cc := w.Header().Get("Cache-Control")
	if cc == "" {
		// Force the client to check each time, but 304 still works.
		w.Header().Set("Cache-Control", "no-cache")
	}
}

// Handler serves the extraction plugin configuration for a Tailwind config file.
type Handler struct {
	configFunc ConfigFunc
	fs         http.FileSystem
	notFound   http.Handler
	pathPrefix string
	cache      map[string]cacheValue
	rwmu       sync.RWMutex
	headerFunc func(w http.ResponseWriter, r *http.Request)
	log        *zap.Logger
}

// SetMaxAge calls SetHeaderFunc with a function that sets the Cache-Control header (if not already set)
// with a corresponding maximum timeout specified in seconds.
func (h *Handler) SetMaxAge(n int) {
	h.SetHeaderFunc(func(w http.ResponseWriter, r *http.Request) {
		cc := w.Header().Get("Cache-Control")
		if cc == "" {
			w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", n))
		}
	})
}

// SetHeaderFunc assigns a function that gets called immediately before a valid response is served.
// By default, the Cache-Control header will be set to "no-cache" if it was not set earlier.
func (h *Handler) SetHeaderFunc(f func(w http.ResponseWriter, r *http.Request)) {
	h.headerFunc = f
}

// SetNotFoundHandler assigns the handler that gets called when something is not found.
func (h *Handler) SetNotFoundHandler(nfh http.Handler) {
	h.notFound = nfh
}

// SetCache with false will disable the cache.
func (h *Handler) SetCache(enabled bool) {
	h.rwmu.Lock()
	defer h.rwmu.Unlock()
	if enabled {
		h.cache = make(map[string]cacheValue)
	} else {
		h.cache = nil
	}
}

// SetLogger sets the logger used to report processing failures.
func (h *Handler) SetLogger(l *zap.Logger) {
	if l != nil {
		h.log = l
	}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {

	p := path.Clean(r.URL.Path)
	p = path.Clean("/" + strings.TrimPrefix(p, h.pathPrefix))

	f, err := h.fs.Open(p)
	if err != nil {
		code := 500
		if os.IsPermission(err) {
			code = 403
		} else if os.IsNotExist(err) {
			if h.notFound != nil {
				h.notFound.ServeHTTP(w, r)
				return
			}
			code = 404
		}
		http.Error(w, fmt.Sprintf("error opening %s: %v", r.URL.Path, err), code)
		return
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		http.Error(w, fmt.Sprintf("stat failed for %s: %v", r.URL.Path, err), 500)
		return
	}
	if st.IsDir() {
		http.Error(w, fmt.Sprintf("%s is a directory", r.URL.Path), 404)
		return
	}

	h.rwmu.RLock()
	cv, ok := h.cache[p]
	caching := h.cache != nil
	h.rwmu.RUnlock()

	if !ok || cv.size != st.Size() || cv.tsnano != st.ModTime().UnixNano() {
		cv, err = h.process(p, f, st.Size(), st.ModTime())
		if err != nil {
			h.log.Warn("Unable to derive extraction config", zap.String("path", p), zap.Error(err))
			http.Error(w, fmt.Sprintf("processing failed on %s: %v", r.URL.Path, err), http.StatusUnprocessableEntity)
			return
		}
		if caching {
			h.rwmu.Lock()
			if h.cache != nil {
				h.cache[p] = cv
			}
			h.rwmu.Unlock()
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("ETag", fmt.Sprintf(`"%016x"`, cv.hash))
	if h.headerFunc != nil {
		h.headerFunc(w, r)
	}

	// handles 304s for both If-None-Match and If-Modified-Since
	http.ServeContent(w, r, p, st.ModTime(), bytes.NewReader(cv.content))
}

func (h *Handler) process(name string, f http.File, size int64, mod time.Time) (cacheValue, error) {
	cfg, err := twconfig.Parse(f, name)
	if err != nil {
		return cacheValue{}, err
	}
	if err := cfg.Validate(); err != nil {
		return cacheValue{}, err
	}
	xc, err := h.configFunc(cfg)
	if err != nil {
		return cacheValue{}, err
	}
	b, err := xc.MarshalIndent()
	if err != nil {
		return cacheValue{}, err
	}
	return cacheValue{
		size:    size,
		tsnano:  mod.UnixNano(),
		content: b,
		hash:    xxhash.Sum64(b),
	}, nil
}

type cacheValue struct {
	size    int64  // in bytes
	tsnano  int64  // file mod time
	content []byte // output
	hash    uint64 // for e-tag
}
