// Package classify implements the measurement classification rule and the
// verdict rollup. Both are pure functions of their inputs: wall clock, user
// identity, and database state never influence the outcome.
package classify

import "fmt"

// Verdict is the quality judgement attached to a result or a sample.
type Verdict string

const (
	// VerdictApproved means the value lies inside the specification limits.
	VerdictApproved Verdict = "APPROVED"
	// VerdictAlert means the value is acceptable but inside the warning band,
	// or was flagged by a reviewer.
	VerdictAlert Verdict = "ALERT"
	// VerdictRejected means the value violates a specification limit.
	VerdictRejected Verdict = "REJECTED"
	// VerdictUnspecified means no active specification covers the measurement.
	// Treated as approved for rollup purposes: there is no evidence to reject.
	VerdictUnspecified Verdict = "UNSPECIFIED"
	// VerdictPending is a sample-level verdict for samples without results.
	VerdictPending Verdict = "PENDING"
)

// ParseVerdict validates a verdict string received from a caller.
func ParseVerdict(s string) (Verdict, error) {
	switch Verdict(s) {
	case VerdictApproved, VerdictAlert, VerdictRejected, VerdictUnspecified, VerdictPending:
		return Verdict(s), nil
	}
	return "", fmt.Errorf("unknown verdict %q", s)
}

// Acceptable reports whether a sample with this verdict may be cited by an
// approved certificate.
func (v Verdict) Acceptable() bool {
	return v == VerdictApproved || v == VerdictAlert
}

// Rollup derives a sample verdict from its result verdicts: any rejection
// rejects the sample, otherwise any alert flags it, an empty result set is
// pending, and everything else approves. Unspecified results count as approved.
func Rollup(verdicts []Verdict) Verdict {
	if len(verdicts) == 0 {
		return VerdictPending
	}

	rolled := VerdictApproved
	for _, v := range verdicts {
		switch v {
		case VerdictRejected:
			return VerdictRejected
		case VerdictAlert:
			rolled = VerdictAlert
		}
	}

	return rolled
}
