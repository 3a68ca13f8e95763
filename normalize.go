package screens

import (
	"strings"

	"github.com/tdewolff/minify/v2"
	mincss "github.com/tdewolff/minify/v2/css"
)

var minifier = func() *minify.M {
	m := minify.New()
	m.AddFunc("text/css", mincss.Minify)
	return m
}()

// Normalize returns a canonical form of a media query so that queries
// differing only in insignificant whitespace compare equal. If the query
// cannot be minified, its whitespace runs are collapsed instead.
func Normalize(query string) string {
	// a dummy rule keeps the minifier from dropping the empty block
	out, err := minifier.String("text/css", "@media "+query+"{a{b:c}}")
	if err != nil || !strings.HasPrefix(out, "@media") {
		return collapseWs(query)
	}
	out = strings.TrimPrefix(out, "@media")
	i := strings.IndexByte(out, '{')
	if i < 0 {
		return collapseWs(query)
	}
	return strings.TrimSpace(out[:i])
}

func collapseWs(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
