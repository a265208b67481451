package classify_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vermlab/laudo/internal/classify"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func ptr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestClassifyBoundaries(t *testing.T) {
	limits := &classify.Limits{
		LSL:    ptr("2.0"),
		USL:    ptr("8.0"),
		Active: true,
	}

	tests := []struct {
		name  string
		value string
		want  classify.Verdict
	}{
		{"below lower limit", "1.99", classify.VerdictRejected},
		{"exactly lower limit", "2.0", classify.VerdictApproved},
		{"inside limits", "5.0", classify.VerdictApproved},
		{"exactly upper limit", "8.0", classify.VerdictApproved},
		{"above upper limit", "8.01", classify.VerdictRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify.Classify(dec(tt.value), limits)
			if got != tt.want {
				t.Errorf("Classify(%s) = %s, want %s", tt.value, got, tt.want)
			}
		})
	}
}

func TestClassifyWarnBand(t *testing.T) {
	limits := &classify.Limits{
		LSL:       ptr("2.0"),
		LowerWarn: ptr("3.0"),
		UpperWarn: ptr("7.0"),
		USL:       ptr("8.0"),
		Active:    true,
	}

	tests := []struct {
		name  string
		value string
		want  classify.Verdict
	}{
		{"in lower warn band", "2.5", classify.VerdictAlert},
		{"exactly lower warn", "3.0", classify.VerdictApproved},
		{"comfortably inside", "5.0", classify.VerdictApproved},
		{"exactly upper warn", "7.0", classify.VerdictApproved},
		{"in upper warn band", "7.5", classify.VerdictAlert},
		{"below lower limit still rejects", "1.0", classify.VerdictRejected},
		{"above upper limit still rejects", "9.0", classify.VerdictRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify.Classify(dec(tt.value), limits)
			if got != tt.want {
				t.Errorf("Classify(%s) = %s, want %s", tt.value, got, tt.want)
			}
		})
	}
}

func TestClassifyOneSidedLimits(t *testing.T) {
	lowerOnly := &classify.Limits{LSL: ptr("10"), Active: true}
	if got := classify.Classify(dec("1000000"), lowerOnly); got != classify.VerdictApproved {
		t.Errorf("no upper limit: Classify = %s, want APPROVED", got)
	}
	if got := classify.Classify(dec("9.99"), lowerOnly); got != classify.VerdictRejected {
		t.Errorf("below lower-only limit: Classify = %s, want REJECTED", got)
	}

	upperOnly := &classify.Limits{USL: ptr("10"), Active: true}
	if got := classify.Classify(dec("-50"), upperOnly); got != classify.VerdictApproved {
		t.Errorf("no lower limit: Classify = %s, want APPROVED", got)
	}
}

func TestClassifyWithoutSpecification(t *testing.T) {
	if got := classify.Classify(dec("5"), nil); got != classify.VerdictUnspecified {
		t.Errorf("nil limits: Classify = %s, want UNSPECIFIED", got)
	}

	inactive := &classify.Limits{LSL: ptr("2"), USL: ptr("8"), Active: false}
	if got := classify.Classify(dec("100"), inactive); got != classify.VerdictUnspecified {
		t.Errorf("inactive limits: Classify = %s, want UNSPECIFIED", got)
	}
}

func TestClassifyDeterminism(t *testing.T) {
	limits := &classify.Limits{
		LSL:       ptr("2.0"),
		LowerWarn: ptr("3.0"),
		USL:       ptr("8.0"),
		Active:    true,
	}

	value := dec("2.5")
	first := classify.Classify(value, limits)
	for i := 0; i < 100; i++ {
		if got := classify.Classify(value, limits); got != first {
			t.Fatalf("iteration %d: Classify = %s, want %s", i, got, first)
		}
	}
}

func TestRollup(t *testing.T) {
	tests := []struct {
		name     string
		verdicts []classify.Verdict
		want     classify.Verdict
	}{
		{"empty is pending", nil, classify.VerdictPending},
		{"all approved", []classify.Verdict{classify.VerdictApproved, classify.VerdictApproved}, classify.VerdictApproved},
		{"alert dominates approved", []classify.Verdict{classify.VerdictApproved, classify.VerdictAlert}, classify.VerdictAlert},
		{"rejected dominates alert", []classify.Verdict{classify.VerdictAlert, classify.VerdictRejected, classify.VerdictApproved}, classify.VerdictRejected},
		{"unspecified counts as approved", []classify.Verdict{classify.VerdictUnspecified}, classify.VerdictApproved},
		{"unspecified does not mask alert", []classify.Verdict{classify.VerdictUnspecified, classify.VerdictAlert}, classify.VerdictAlert},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify.Rollup(tt.verdicts); got != tt.want {
				t.Errorf("Rollup = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParseVerdict(t *testing.T) {
	if _, err := classify.ParseVerdict("APPROVED"); err != nil {
		t.Errorf("ParseVerdict(APPROVED) error: %v", err)
	}
	if _, err := classify.ParseVerdict("fine"); err == nil {
		t.Error("ParseVerdict(fine) expected error, got nil")
	}
}

func TestAcceptable(t *testing.T) {
	acceptable := []classify.Verdict{classify.VerdictApproved, classify.VerdictAlert}
	for _, v := range acceptable {
		if !v.Acceptable() {
			t.Errorf("%s.Acceptable() = false, want true", v)
		}
	}

	unacceptable := []classify.Verdict{classify.VerdictRejected, classify.VerdictPending, classify.VerdictUnspecified}
	for _, v := range unacceptable {
		if v.Acceptable() {
			t.Errorf("%s.Acceptable() = true, want false", v)
		}
	}
}
