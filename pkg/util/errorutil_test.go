package util_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"

	apperrors "github.com/aniketverma031/helpdesk-project/pkg/util"
)

func TestToDomainError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{"validation", apperrors.NewValidationError("bad", nil), apperrors.CodeValidation, http.StatusBadRequest},
		{"not found", apperrors.NewNotFound("ticket", nil), apperrors.CodeNotFound, http.StatusNotFound},
		{"conflict", apperrors.NewConflict("conflict", nil), apperrors.CodeConflict, http.StatusConflict},
		{"forbidden", apperrors.NewForbidden("no"), apperrors.CodeForbidden, http.StatusForbidden},
		{"protected account", apperrors.NewProtectedAccount("root"), apperrors.CodeProtectedAccount, http.StatusConflict},
		{"pgx no rows", pgx.ErrNoRows, apperrors.CodeNotFound, http.StatusNotFound},
		{"wrapped pgx no rows", fmt.Errorf("lookup: %w", pgx.ErrNoRows), apperrors.CodeNotFound, http.StatusNotFound},
		{"opaque", errors.New("boom"), apperrors.CodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := apperrors.ToDomainError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.HTTPStatus != tt.wantStatus {
				t.Errorf("HTTPStatus = %d, want %d", got.HTTPStatus, tt.wantStatus)
			}
		})
	}
}

func TestHasCode(t *testing.T) {
	err := apperrors.NewConflict("conflict", nil)
	if !apperrors.HasCode(err, apperrors.CodeConflict) {
		t.Error("HasCode() missed the conflict code")
	}
	if apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Error("HasCode() matched the wrong code")
	}
	if apperrors.HasCode(errors.New("plain"), apperrors.CodeConflict) {
		t.Error("HasCode() matched a non-domain error")
	}
}

func TestProtectedAccountMessage(t *testing.T) {
	err := apperrors.ToDomainError(apperrors.NewProtectedAccount("root"))
	want := "Cannot change the role of Superuser root from the front-end."
	if err.Message != want {
		t.Errorf("Message = %q, want %q", err.Message, want)
	}
}
