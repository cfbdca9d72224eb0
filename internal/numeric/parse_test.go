package numeric

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDigits(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`"123"`, "123"},
		{`null`, ""},
		{`""`, ""},
		{`250657`, "250657"},
		{`"1,000,000"`, "1000000"},
		{` "-42" `, "42"},
	}
	for _, tt := range tests {
		got := Digits(tt.input)
		if got != tt.want {
			t.Errorf("Digits(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`"9896440"`, "9896440"},
		{`250657`, "250657"},
		{`"1000000"`, "1000000"},
		{`"0"`, "0"},
	}
	for _, tt := range tests {
		got, err := Parse(tt.input)
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", tt.input, err)
		}
		if got.String() != tt.want {
			t.Errorf("Parse(%q) = %s, want %s", tt.input, got, tt.want)
		}
	}
}

func TestParseNotNumeric(t *testing.T) {
	for _, input := range []string{``, `null`, `"abc"`, `{}`} {
		if _, err := Parse(input); !errors.Is(err, ErrNotNumeric) {
			t.Errorf("Parse(%q) error = %v, want ErrNotNumeric", input, err)
		}
	}
}

func TestParseRaw(t *testing.T) {
	got, err := ParseRaw(json.RawMessage(`"261026"`))
	if err != nil {
		t.Fatalf("ParseRaw error: %v", err)
	}
	if got.IntPart() != 261026 {
		t.Errorf("ParseRaw = %s, want 261026", got)
	}
}

func TestParseUint(t *testing.T) {
	got, err := ParseUint(`"5757663"`)
	if err != nil {
		t.Fatalf("ParseUint error: %v", err)
	}
	if got != 5757663 {
		t.Errorf("ParseUint = %d, want 5757663", got)
	}

	if _, err := ParseUint(`"99999999999999999999999"`); !errors.Is(err, ErrNotNumeric) {
		t.Errorf("ParseUint overflow error = %v, want ErrNotNumeric", err)
	}
}
