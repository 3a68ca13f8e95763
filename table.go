package screens

import (
	"fmt"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Table is an ordered set of named screens. Iteration follows insertion
// order, which in turn decides the order of the generated queries.
// The zero value is an empty table ready to use.
type Table struct {
	names   []string
	entries map[string]Entry
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{}
}

// DefaultTable returns the screens Tailwind uses when a configuration
// declares none.
func DefaultTable() *Table {
	t := NewTable()
	t.MustSet("sm", MinWidth("640px"))
	t.MustSet("md", MinWidth("768px"))
	t.MustSet("lg", MinWidth("1024px"))
	t.MustSet("xl", MinWidth("1280px"))
	t.MustSet("2xl", MinWidth("1536px"))
	return t
}

// Set validates e and stores it under name. Setting an existing name
// replaces its entry but keeps its position.
func (t *Table) Set(name string, e Entry) error {
	if name == "" {
		return ErrEmptyName
	}
	if err := Validate(e); err != nil {
		return fmt.Errorf("screen %q: %w", name, err)
	}
	if t.entries == nil {
		t.entries = make(map[string]Entry)
	}
	if _, ok := t.entries[name]; !ok {
		t.names = append(t.names, name)
	}
	t.entries[name] = e
	return nil
}

// MustSet is like Set but panics on error. It returns t so calls can be chained.
func (t *Table) MustSet(name string, e Entry) *Table {
	if err := t.Set(name, e); err != nil {
		panic(err)
	}
	return t
}

// Get returns the entry stored under name.
func (t *Table) Get(name string) (Entry, bool) {
	if t == nil {
		return nil, false
	}
	e, ok := t.entries[name]
	return e, ok
}

// Len returns the number of screens.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.names)
}

// Names returns the screen names in order.
func (t *Table) Names() []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.names...)
}

// Each calls fn for every screen in order.
func (t *Table) Each(fn func(name string, e Entry)) {
	if t == nil {
		return
	}
	for _, name := range t.names {
		fn(name, t.entries[name])
	}
}

// Subset returns a new table holding only the named screens, in the
// order of t. Unknown names are ignored.
func (t *Table) Subset(names ...string) *Table {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	ret := NewTable()
	t.Each(func(name string, e Entry) {
		if want[name] {
			ret.names = append(ret.names, name)
			if ret.entries == nil {
				ret.entries = make(map[string]Entry)
			}
			ret.entries[name] = e
		}
	})
	return ret
}

// Extend returns a copy of t with the screens of other applied on top:
// existing names are replaced in place, new names are appended.
func (t *Table) Extend(other *Table) *Table {
	ret := t.Subset(t.Names()...)
	other.Each(func(name string, e Entry) {
		if _, ok := ret.entries[name]; !ok {
			ret.names = append(ret.names, name)
		}
		if ret.entries == nil {
			ret.entries = make(map[string]Entry)
		}
		ret.entries[name] = e
	})
	return ret
}

// UnmarshalYAML implements yaml.Unmarshaler. The value must be a mapping
// from screen name to one of the accepted shapes:
//
//	sm: 576px
//	lg: {min: 992px, max: 1199px}
//	md: [{min: 668px, max: 767px}, {min: 868px}]
//	print: {raw: print}
//
// Since JSON is valid YAML, JSON tables decode the same way. All invalid
// entries are reported, not just the first.
func (t *Table) UnmarshalYAML(value *yaml.Node) error {
	value = resolveAlias(value)
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: screens must be a mapping", value.Line)
	}

	var ret Table
	var errs error
	for i := 0; i+1 < len(value.Content); i += 2 {
		k, v := value.Content[i], value.Content[i+1]
		name := k.Value
		if _, dup := ret.entries[name]; dup {
			errs = multierr.Append(errs, fmt.Errorf("line %d: duplicate screen %q", k.Line, name))
			continue
		}
		e, err := decodeEntry(v)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("line %d: screen %q: %w", v.Line, name, err))
			continue
		}
		if err := ret.Set(name, e); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("line %d: %w", v.Line, err))
		}
	}
	if errs != nil {
		return errs
	}

	*t = ret
	return nil
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

// decodeEntry picks the Entry variant from the node shape.
func decodeEntry(n *yaml.Node) (Entry, error) {
	n = resolveAlias(n)

	switch n.Kind {

	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return nil, fmt.Errorf("%w: null", ErrInvalidWidth)
		}
		return MinWidth(n.Value), nil

	case yaml.SequenceNode:
		list := make(RangeList, 0, len(n.Content))
		for i, item := range n.Content {
			item = resolveAlias(item)
			switch item.Kind {
			case yaml.ScalarNode:
				list = append(list, Range{Min: item.Value})
			case yaml.MappingNode:
				f, err := decodeFields(item)
				if err != nil {
					return nil, fmt.Errorf("range %d: %w", i, err)
				}
				if f.hasRaw {
					return nil, fmt.Errorf("range %d: raw is not allowed inside a list", i)
				}
				list = append(list, Range{Min: f.min, Max: f.max})
			default:
				return nil, fmt.Errorf("range %d: expected a width or {min, max}", i)
			}
		}
		return list, nil

	case yaml.MappingNode:
		f, err := decodeFields(n)
		if err != nil {
			return nil, err
		}
		if f.hasRaw {
			if f.min != "" || f.max != "" {
				return nil, fmt.Errorf("raw cannot be combined with min or max")
			}
			return Raw(f.raw), nil
		}
		return Range{Min: f.min, Max: f.max}, nil

	}

	return nil, fmt.Errorf("unexpected YAML node kind %v", n.Kind)
}

type entryFields struct {
	min, max, raw string
	hasRaw        bool
}

func decodeFields(n *yaml.Node) (f entryFields, err error) {
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], resolveAlias(n.Content[i+1])
		if v.Kind != yaml.ScalarNode {
			return f, fmt.Errorf("%s: expected a string", k.Value)
		}
		switch k.Value {
		case "min":
			f.min = v.Value
		case "max":
			f.max = v.Value
		case "raw":
			f.raw = v.Value
			f.hasRaw = true
		default:
			return f, fmt.Errorf("unknown field %q", k.Value)
		}
	}
	return f, nil
}
