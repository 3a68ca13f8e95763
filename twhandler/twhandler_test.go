package twhandler_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"
	"time"

	"github.com/gotailwindcss/screens/twhandler"
)

const demoConfig = `
content: ["./src/**/*.rs"]
screens:
  sm: "576px"
  lg: {min: "992px", max: "1199px"}
  print: {raw: "print"}
`

func TestHandler(t *testing.T) {

	mt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	fsys := fstest.MapFS{
		"demo1.yaml": &fstest.MapFile{Data: []byte(demoConfig), ModTime: mt},
		"bad.yaml":   &fstest.MapFile{Data: []byte("screens: {lg: {}}"), ModTime: mt},
	}
	h := twhandler.New(http.FS(fsys), "/td1", "/srv/dist")

	get := func(p string, hdr map[string]string) *http.Response {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", p, nil)
		for k, v := range hdr {
			r.Header.Set(k, v)
		}
		h.ServeHTTP(w, r)
		return w.Result()
	}

	res := get("/td1/demo1.yaml", nil)
	defer res.Body.Close()
	b, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal(err)
	}
	if res.StatusCode != 200 {
		t.Fatalf("status %d: %s", res.StatusCode, b)
	}
	if ct := res.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cc := res.Header.Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("Cache-Control = %q", cc)
	}

	var out struct {
		Plugins map[string]struct {
			Output  struct{ Path string }
			Queries map[string]string
		}
	}
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, b)
	}
	opts := out.Plugins["postcss-extract-media-query"]
	if opts.Output.Path != "/srv/dist" {
		t.Errorf("output path = %q", opts.Output.Path)
	}
	if opts.Queries["(min-width: 992px) and (max-width: 1199px)"] != "lg" || opts.Queries["print"] != "print" {
		t.Errorf("unexpected queries: %v", opts.Queries)
	}

	etag := res.Header.Get("ETag")
	if etag == "" {
		t.Fatalf("missing ETag")
	}

	// served from cache, with a matching ETag the client gets a 304
	res2 := get("/td1/demo1.yaml", map[string]string{"If-None-Match": etag})
	res2.Body.Close()
	if res2.StatusCode != http.StatusNotModified {
		t.Errorf("expected 304, got %d", res2.StatusCode)
	}

	res3 := get("/td1/missing.yaml", nil)
	res3.Body.Close()
	if res3.StatusCode != 404 {
		t.Errorf("expected 404, got %d", res3.StatusCode)
	}

	res4 := get("/td1/bad.yaml", nil)
	res4.Body.Close()
	if res4.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", res4.StatusCode)
	}

}

func TestHandlerMaxAgeNoCache(t *testing.T) {

	fsys := fstest.MapFS{"a.json": &fstest.MapFile{Data: []byte(`{"screens": {"tablet": "640px"}}`)}}
	h := twhandler.New(http.FS(fsys), "", "dist")
	h.SetCache(false)
	h.SetMaxAge(60)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest("GET", "/a.json", nil))
		res := w.Result()
		if res.StatusCode != 200 {
			t.Fatalf("status %d", res.StatusCode)
		}
		if cc := res.Header.Get("Cache-Control"); cc != "public, max-age=60" {
			t.Errorf("Cache-Control = %q", cc)
		}
	}

}
