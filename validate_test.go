package screens_test

import (
	"errors"
	"testing"

	"github.com/gotailwindcss/screens"
)

func TestValidateWidth(t *testing.T) {

	good := []string{"576px", "40em", "62.5rem", "0", "100vw"}
	for _, w := range good {
		if err := screens.ValidateWidth(w); err != nil {
			t.Errorf("ValidateWidth(%q): unexpected error %v", w, err)
		}
	}

	bad := []string{"", "576", "px", "-1px", "576px 600px", " 576px", "576px)", "calc(1px + 2px)"}
	for _, w := range bad {
		if err := screens.ValidateWidth(w); !errors.Is(err, screens.ErrInvalidWidth) {
			t.Errorf("ValidateWidth(%q): expected ErrInvalidWidth, got %v", w, err)
		}
	}

}

func TestValidateCondition(t *testing.T) {

	good := []string{
		"print",
		"(prefers-color-scheme: dark)",
		"screen and (min-width: 576px)",
		"(min-width: 668px) and (max-width: 767px), (min-width: 868px)",
		"not all and (monochrome)",
	}
	for _, c := range good {
		if err := screens.ValidateCondition(c); err != nil {
			t.Errorf("ValidateCondition(%q): unexpected error %v", c, err)
		}
	}

	bad := []string{
		"",
		"   ",
		"(min-width: 576px",
		"min-width: 576px)",
		"screen; a { color: red }",
		"print{}",
		"print} .x {",
	}
	for _, c := range bad {
		if err := screens.ValidateCondition(c); !errors.Is(err, screens.ErrInvalidCondition) {
			t.Errorf("ValidateCondition(%q): expected ErrInvalidCondition, got %v", c, err)
		}
	}

}
