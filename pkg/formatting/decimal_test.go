package formatting_test

import (
	"errors"
	"testing"

	"github.com/vermlab/laudo/pkg/formatting"
)

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"dot separator", "12.5", "12.5"},
		{"comma separator", "12,5", "12.5"},
		{"integer", "42", "42"},
		{"negative comma", "-0,25", "-0.25"},
		{"surrounding whitespace", "  3,14  ", "3.14"},
		{"high precision preserved", "0.123456789", "0.123456789"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := formatting.ParseDecimal(tt.input)
			if err != nil {
				t.Fatalf("ParseDecimal(%q) error: %v", tt.input, err)
			}
			if got.String() != tt.want {
				t.Errorf("ParseDecimal(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDecimalInvalid(t *testing.T) {
	for _, input := range []string{"", "abc", "1,2,3", "1.2.3", "12,5.3"} {
		_, err := formatting.ParseDecimal(input)
		if err == nil {
			t.Errorf("ParseDecimal(%q) expected error, got nil", input)
			continue
		}
		if !errors.Is(err, formatting.ErrInvalidDecimal) {
			t.Errorf("ParseDecimal(%q) error = %v, want ErrInvalidDecimal", input, err)
		}
	}
}

func TestParseDecimalSeparatorsEquivalent(t *testing.T) {
	comma, err := formatting.ParseDecimal("7,25")
	if err != nil {
		t.Fatalf("ParseDecimal error: %v", err)
	}
	dot, err := formatting.ParseDecimal("7.25")
	if err != nil {
		t.Fatalf("ParseDecimal error: %v", err)
	}
	if !comma.Equal(dot) {
		t.Errorf("ParseDecimal(7,25) = %s, ParseDecimal(7.25) = %s, want equal", comma, dot)
	}
}

func TestFormatDecimal(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		precision int
		want      string
	}{
		{"pads to precision", "12.5", 3, "12.500"},
		{"truncating precision rounds", "12.555", 2, "12.56"},
		{"zero precision", "12.5", 0, "13"},
		{"negative precision keeps natural scale", "12.55", -1, "12.55"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := formatting.ParseDecimal(tt.input)
			if err != nil {
				t.Fatalf("ParseDecimal error: %v", err)
			}
			if got := formatting.FormatDecimal(d, tt.precision); got != tt.want {
				t.Errorf("FormatDecimal(%s, %d) = %q, want %q", tt.input, tt.precision, got, tt.want)
			}
		})
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	// A value entered with a comma and re-exported at its declared precision
	// must re-parse to the same decimal.
	d, err := formatting.ParseDecimal("4,70")
	if err != nil {
		t.Fatalf("ParseDecimal error: %v", err)
	}

	out := formatting.FormatDecimal(d, 2)
	back, err := formatting.ParseDecimal(out)
	if err != nil {
		t.Fatalf("ParseDecimal(%q) error: %v", out, err)
	}
	if !back.Equal(d) {
		t.Errorf("round trip: %s -> %s -> %s", d, out, back)
	}
}
