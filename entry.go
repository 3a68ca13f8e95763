package screens

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyName        = errors.New("screen name is empty")
	ErrInvalidWidth     = errors.New("invalid width")
	ErrEmptyRange       = errors.New("range has neither min nor max")
	ErrEmptyRangeList   = errors.New("range list is empty")
	ErrInvalidCondition = errors.New("invalid media condition")
	ErrDuplicateQuery   = errors.New("duplicate media query")
)

// Kind identifies which shape an Entry has.
type Kind int

const (
	KindMinWidth Kind = iota + 1
	KindRange
	KindRangeList
	KindRaw
)

func (k Kind) String() string {
	switch k {
	case KindMinWidth:
		return "min-width"
	case KindRange:
		return "range"
	case KindRangeList:
		return "range-list"
	case KindRaw:
		return "raw"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Entry is the value of a single screen. It is implemented only by
// MinWidth, Range, RangeList and Raw.
type Entry interface {
	Kind() Kind
	isEntry()
}

// MinWidth is a bare width like "576px", meaning the screen applies from
// that width upwards.
type MinWidth string

// Range is a bounded width range. Either side may be empty but not both.
type Range struct {
	Min string `yaml:"min,omitempty" json:"min,omitempty"`
	Max string `yaml:"max,omitempty" json:"max,omitempty"`
}

// RangeList is a disjunction of ranges, rendered as a comma separated
// media query list.
type RangeList []Range

// Raw is a media condition used verbatim, e.g. "print".
type Raw string

func (MinWidth) Kind() Kind  { return KindMinWidth }
func (Range) Kind() Kind     { return KindRange }
func (RangeList) Kind() Kind { return KindRangeList }
func (Raw) Kind() Kind       { return KindRaw }

func (MinWidth) isEntry()  {}
func (Range) isEntry()     {}
func (RangeList) isEntry() {}
func (Raw) isEntry()       {}

// Validate checks that e is well formed. Tables call it for every entry
// they accept, so BuildQuery never sees a degenerate entry coming from a Table.
func Validate(e Entry) error {
	switch v := e.(type) {
	case MinWidth:
		return ValidateWidth(string(v))
	case Range:
		return v.validate()
	case RangeList:
		if len(v) == 0 {
			return ErrEmptyRangeList
		}
		for i, r := range v {
			if err := r.validate(); err != nil {
				return fmt.Errorf("range %d: %w", i, err)
			}
		}
		return nil
	case Raw:
		return ValidateCondition(string(v))
	case nil:
		return fmt.Errorf("%w: nil entry", ErrInvalidCondition)
	}
	return fmt.Errorf("unsupported entry type %T", e)
}

func (r Range) validate() error {
	if r.Min == "" && r.Max == "" {
		return ErrEmptyRange
	}
	if r.Min != "" {
		if err := ValidateWidth(r.Min); err != nil {
			return fmt.Errorf("min: %w", err)
		}
	}
	if r.Max != "" {
		if err := ValidateWidth(r.Max); err != nil {
			return fmt.Errorf("max: %w", err)
		}
	}
	return nil
}
