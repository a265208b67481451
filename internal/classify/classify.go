package classify

import "github.com/shopspring/decimal"

// Limits is the specification snapshot a value is evaluated against.
// Any bound may be absent; an absent bound places no constraint on that side.
// LowerWarn and UpperWarn bound the optional warning band: values inside
// [LSL, LowerWarn) or (UpperWarn, USL] classify as ALERT. When the warn
// columns are absent the classifier never emits ALERT on its own.
type Limits struct {
	LSL       *decimal.Decimal
	LowerWarn *decimal.Decimal
	UpperWarn *decimal.Decimal
	USL       *decimal.Decimal
	Active    bool
}

// Classify evaluates a measured value against a specification snapshot.
// Both interval ends are closed: value == LSL and value == USL approve.
// A nil or inactive specification yields UNSPECIFIED.
func Classify(value decimal.Decimal, limits *Limits) Verdict {
	if limits == nil || !limits.Active {
		return VerdictUnspecified
	}

	if limits.LSL != nil && value.LessThan(*limits.LSL) {
		return VerdictRejected
	}
	if limits.USL != nil && value.GreaterThan(*limits.USL) {
		return VerdictRejected
	}

	if limits.LowerWarn != nil && value.LessThan(*limits.LowerWarn) {
		return VerdictAlert
	}
	if limits.UpperWarn != nil && value.GreaterThan(*limits.UpperWarn) {
		return VerdictAlert
	}

	return VerdictApproved
}
