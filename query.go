package screens

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// BuildQuery renders e as a CSS media query.
//
//	MinWidth("576px")                    -> (min-width: 576px)
//	Range{Min: "992px", Max: "1199px"}   -> (min-width: 992px) and (max-width: 1199px)
//	RangeList{{Max: "767px"}, {Min: "868px"}} -> (max-width: 767px), (min-width: 868px)
//	Raw("print")                         -> print
//
// e is expected to be valid, as entries held by a Table are. An empty Range
// or RangeList renders as an empty query, use BuildQueryChecked for entries
// built by hand.
func BuildQuery(e Entry) string {
	switch v := e.(type) {
	case MinWidth:
		return "(min-width: " + string(v) + ")"
	case RangeList:
		parts := make([]string, len(v))
		for i, r := range v {
			parts[i] = BuildQuery(r)
		}
		return strings.Join(parts, ", ")
	case Range:
		parts := make([]string, 0, 2)
		if v.Min != "" {
			parts = append(parts, "(min-width: "+v.Min+")")
		}
		if v.Max != "" {
			parts = append(parts, "(max-width: "+v.Max+")")
		}
		return strings.Join(parts, " and ")
	case Raw:
		return string(v)
	}
	return ""
}

// BuildQueryChecked validates e and renders it with BuildQuery.
func BuildQueryChecked(e Entry) (string, error) {
	if err := Validate(e); err != nil {
		return "", err
	}
	return BuildQuery(e), nil
}

// BuildQueryMap translates every screen of t. When two screens produce the
// same query the later one wins.
func BuildQueryMap(t *Table) *QueryMap {
	qm, _ := NewTranslator().Translate(t)
	return qm
}

// CollisionPolicy decides what happens when two screens produce the same query.
type CollisionPolicy int

const (
	// CollisionOverwrite keeps the screen processed last and logs a warning.
	CollisionOverwrite CollisionPolicy = iota
	// CollisionError makes Translate fail with ErrDuplicateQuery.
	CollisionError
)

// Option configures a Translator.
type Option func(*Translator)

// WithLogger sets the logger used to report collisions.
func WithLogger(l *zap.Logger) Option {
	return func(tr *Translator) {
		if l != nil {
			tr.log = l
		}
	}
}

// WithCollisionPolicy sets the collision policy, CollisionOverwrite by default.
func WithCollisionPolicy(p CollisionPolicy) Option {
	return func(tr *Translator) { tr.policy = p }
}

// WithNormalize makes collision detection compare queries in their
// Normalize form. The generated keys themselves are left as rendered.
func WithNormalize(enabled bool) Option {
	return func(tr *Translator) { tr.normalize = enabled }
}

// Translator turns a Table into a QueryMap.
type Translator struct {
	log       *zap.Logger
	policy    CollisionPolicy
	normalize bool
}

// NewTranslator returns a Translator with the given options applied.
func NewTranslator(opts ...Option) *Translator {
	tr := &Translator{log: zap.NewNop()}
	for _, o := range opts {
		o(tr)
	}
	return tr
}

// Translate builds the query map for t. Errors are only possible under
// CollisionError.
func (tr *Translator) Translate(t *Table) (*QueryMap, error) {
	qm := NewQueryMap()
	seen := make(map[string]string, t.Len()) // comparison key -> stored query

	var err error
	t.Each(func(name string, e Entry) {
		if err != nil {
			return
		}
		q := BuildQuery(e)
		key := q
		if tr.normalize {
			key = Normalize(q)
		}

		if prevQuery, ok := seen[key]; ok {
			prev, _ := qm.Get(prevQuery)
			if tr.policy == CollisionError {
				err = fmt.Errorf("%w %q: screens %q and %q", ErrDuplicateQuery, q, prev, name)
				return
			}
			tr.log.Warn("Screens produce the same media query, keeping the last one",
				zap.String("query", q), zap.String("dropped", prev), zap.String("kept", name))
			qm.Set(prevQuery, name)
			return
		}

		seen[key] = q
		qm.Set(q, name)
		tr.log.Debug("Screen translated", zap.String("screen", name), zap.Stringer("kind", e.Kind()), zap.String("query", q))
	})
	if err != nil {
		return nil, err
	}
	return qm, nil
}

// QueryMap maps media queries to screen names and remembers the order in
// which queries were first added.
type QueryMap struct {
	queries []string
	names   map[string]string
}

// NewQueryMap returns an empty QueryMap.
func NewQueryMap() *QueryMap {
	return &QueryMap{names: make(map[string]string)}
}

// Set maps query to name. An existing query keeps its position.
func (m *QueryMap) Set(query, name string) {
	if m.names == nil {
		m.names = make(map[string]string)
	}
	if _, ok := m.names[query]; !ok {
		m.queries = append(m.queries, query)
	}
	m.names[query] = name
}

// Get returns the screen name for query.
func (m *QueryMap) Get(query string) (string, bool) {
	if m == nil {
		return "", false
	}
	n, ok := m.names[query]
	return n, ok
}

// Len returns the number of queries.
func (m *QueryMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.queries)
}

// Queries returns the queries in order.
func (m *QueryMap) Queries() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.queries...)
}

// Names returns the screen names in query order.
func (m *QueryMap) Names() []string {
	if m == nil {
		return nil
	}
	ret := make([]string, len(m.queries))
	for i, q := range m.queries {
		ret[i] = m.names[q]
	}
	return ret
}

// Each calls fn for every query in order.
func (m *QueryMap) Each(fn func(query, name string)) {
	if m == nil {
		return
	}
	for _, q := range m.queries {
		fn(q, m.names[q])
	}
}

// Filter returns a new QueryMap holding only queries whose screen is
// one of names.
func (m *QueryMap) Filter(names ...string) *QueryMap {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	ret := NewQueryMap()
	m.Each(func(q, n string) {
		if want[n] {
			ret.Set(q, n)
		}
	})
	return ret
}

// MarshalJSON implements json.Marshaler, writing an object whose keys
// keep the map order.
func (m *QueryMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, q := range m.Queries() {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(q)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(m.names[q])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML implements yaml.Marshaler, writing an ordered mapping.
func (m *QueryMap) MarshalYAML() (interface{}, error) {
	n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	m.Each(func(q, name string) {
		n.Content = append(n.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: q},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name},
		)
	})
	return n, nil
}
