package twextract_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gotailwindcss/screens"
	"github.com/gotailwindcss/screens/twextract"
)

func testQueries() *screens.QueryMap {
	tbl := screens.NewTable().
		MustSet("sm", screens.MinWidth("576px")).
		MustSet("lg", screens.Range{Min: "992px", Max: "1199px"}).
		MustSet("print", screens.Raw("print"))
	return screens.BuildQueryMap(tbl)
}

func TestWriteJSON(t *testing.T) {

	var buf bytes.Buffer
	if err := twextract.New(testQueries(), "/srv/app/dist").WriteJSON(&buf); err != nil {
		t.Fatal(err)
	}

	want := `{
  "plugins": {
    "postcss-extract-media-query": {
      "output": {
        "path": "/srv/app/dist"
      },
      "queries": {
        "(min-width: 576px)": "sm",
        "(min-width: 992px) and (max-width: 1199px)": "lg",
        "print": "print"
      }
    }
  }
}
`
	if buf.String() != want {
		t.Errorf("unexpected output:\n%s", buf.String())
	}

	var back struct {
		Plugins map[string]struct {
			Output  struct{ Path string }
			Queries map[string]string
		}
	}
	if err := json.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatal(err)
	}
	if got := back.Plugins[twextract.PluginName].Queries["print"]; got != "print" {
		t.Errorf("queries did not round trip: %+v", back)
	}

}

func TestWriteJS(t *testing.T) {
	var buf bytes.Buffer
	if err := twextract.New(testQueries(), "dist").WriteJS(&buf); err != nil {
		t.Fatal(err)
	}
	s := buf.String()
	if !strings.HasPrefix(s, "module.exports = {\n") || !strings.HasSuffix(s, "};\n") {
		t.Errorf("unexpected module:\n%s", s)
	}
}

func TestWriteFile(t *testing.T) {

	dir := t.TempDir()
	c := twextract.New(testQueries(), "dist")

	p := filepath.Join(dir, "sub", "postcss.config.js")
	wrote, err := c.WriteFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if !wrote {
		t.Errorf("expected the first write to happen")
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(b, []byte("module.exports = ")) {
		t.Errorf(".js file should be a module: %s", b)
	}

	wrote, err = c.WriteFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if wrote {
		t.Errorf("unchanged content must not be rewritten")
	}

	jp := filepath.Join(dir, "queries.json")
	if _, err := c.WriteFile(jp); err != nil {
		t.Fatal(err)
	}
	jb, _ := os.ReadFile(jp)
	if !json.Valid(jb) {
		t.Errorf("json output is not valid: %s", jb)
	}

}

func TestFingerprint(t *testing.T) {
	a, err := twextract.New(testQueries(), "dist").Fingerprint()
	if err != nil {
		t.Fatal(err)
	}
	b, _ := twextract.New(testQueries(), "dist").Fingerprint()
	c, _ := twextract.New(testQueries(), "other").Fingerprint()
	if a != b {
		t.Errorf("equal configs must hash equal")
	}
	if a == c {
		t.Errorf("different output paths must hash differently")
	}
}
