package certificates

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/vermlab/laudo/internal/classify"
	"github.com/vermlab/laudo/internal/samples"
)

func draftCertificate(status Status) Certificate {
	return Certificate{
		ID:        uuid.New(),
		Status:    status,
		CreatedBy: "joana",
		Samples: []SampleRef{
			{Kind: samples.KindPoint, ID: uuid.New()},
		},
	}
}

func TestApproveDecision(t *testing.T) {
	tests := []struct {
		name      string
		cert      Certificate
		actor     string
		wantIssue bool
		wantErr   error
	}{
		{"draft by reviewer", draftCertificate(StatusDraft), "carlos", true, nil},
		{"pending by reviewer", draftCertificate(StatusPending), "carlos", true, nil},
		{"rejected cannot approve", draftCertificate(StatusRejected), "carlos", false, ErrInvalidTransition},
		{"cancelled cannot approve", draftCertificate(StatusCancelled), "carlos", false, ErrInvalidTransition},
		{"author cannot approve own work", draftCertificate(StatusPending), "joana", false, ErrSeparationOfDuty},
		{"anonymous actor rejected", draftCertificate(StatusPending), "", false, ErrSeparationOfDuty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issue, err := approveDecision(tt.cert, tt.actor)
			if issue != tt.wantIssue {
				t.Errorf("issue = %v, want %v", issue, tt.wantIssue)
			}
			if tt.wantErr == nil && err != nil {
				t.Errorf("err = %v, want nil", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestApproveDecisionIdempotent(t *testing.T) {
	number := "CQ2026030007"
	cert := draftCertificate(StatusApproved)
	cert.ReportNumber = &number

	// Re-approving an approved certificate is a no-op: no error, and no new
	// number may be issued.
	issue, err := approveDecision(cert, "carlos")
	if err != nil {
		t.Fatalf("approveDecision error: %v", err)
	}
	if issue {
		t.Error("issue = true for an already approved certificate")
	}
	if *cert.ReportNumber != number {
		t.Errorf("ReportNumber = %s, want %s retained", *cert.ReportNumber, number)
	}
}

func TestApproveDecisionRequiresSamples(t *testing.T) {
	cert := draftCertificate(StatusPending)
	cert.Samples = nil

	if _, err := approveDecision(cert, "carlos"); !errors.Is(err, ErrNoSamples) {
		t.Errorf("err = %v, want ErrNoSamples", err)
	}
}

func TestRequireApprovable(t *testing.T) {
	tests := []struct {
		name     string
		verdicts []classify.Verdict
		wantErr  bool
	}{
		{"all approved", []classify.Verdict{classify.VerdictApproved, classify.VerdictApproved}, false},
		{"alert is acceptable", []classify.Verdict{classify.VerdictApproved, classify.VerdictAlert}, false},
		{"no verdicts", nil, false},
		{"rejected blocks", []classify.Verdict{classify.VerdictApproved, classify.VerdictRejected}, true},
		{"pending blocks", []classify.Verdict{classify.VerdictPending}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := requireApprovable(tt.verdicts)
			if tt.wantErr && !errors.Is(err, ErrSamplesNotApprovable) {
				t.Errorf("err = %v, want ErrSamplesNotApprovable", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("err = %v, want nil", err)
			}
		})
	}
}
