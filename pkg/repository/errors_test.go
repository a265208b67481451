package repository_test

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vermlab/laudo/pkg/repository"
)

var (
	errNotFound  = errors.New("not found")
	errDuplicate = errors.New("duplicate")
)

func pgError(code string) error {
	return &pgconn.PgError{Code: code}
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil passes through", nil, nil},
		{"no rows maps to not found", sql.ErrNoRows, errNotFound},
		{"wrapped no rows maps to not found", fmt.Errorf("query: %w", sql.ErrNoRows), errNotFound},
		{"unique violation maps to duplicate", pgError("23505"), errDuplicate},
		{"other errors pass through", errors.New("boom"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := repository.MapError(tt.err, errNotFound, errDuplicate)
			if tt.want != nil && !errors.Is(got, tt.want) {
				t.Errorf("MapError(%v) = %v, want %v", tt.err, got, tt.want)
			}
			if tt.want == nil && got != tt.err {
				t.Errorf("MapError(%v) = %v, want the error unchanged", tt.err, got)
			}
		})
	}
}

func TestIsLockTimeout(t *testing.T) {
	if !repository.IsLockTimeout(pgError("55P03")) {
		t.Error("IsLockTimeout(55P03) = false, want true")
	}
	if !repository.IsLockTimeout(fmt.Errorf("lock number sequence: %w", pgError("55P03"))) {
		t.Error("IsLockTimeout(wrapped 55P03) = false, want true")
	}
	if repository.IsLockTimeout(pgError("23505")) {
		t.Error("IsLockTimeout(23505) = true, want false")
	}
	if repository.IsLockTimeout(errors.New("boom")) {
		t.Error("IsLockTimeout(non-pg error) = true, want false")
	}
}

func TestIsDuplicate(t *testing.T) {
	if !repository.IsDuplicate(pgError("23505")) {
		t.Error("IsDuplicate(23505) = false, want true")
	}
	if repository.IsDuplicate(sql.ErrNoRows) {
		t.Error("IsDuplicate(ErrNoRows) = true, want false")
	}
}
