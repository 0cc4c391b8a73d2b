package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"sales-dashboard/internal/dataset"
)

func TestFromError(t *testing.T) {
	formatErr := &dataset.DataFormatError{Row: 7, Column: dataset.ColRating, Value: "great", Err: stderrors.New("invalid syntax")}

	tests := []struct {
		name       string
		err        error
		wantCode   ErrorCode
		wantStatus int
	}{
		{"app error", BadRequest("bad start date"), CodeBadRequest, http.StatusBadRequest},
		{"data format", formatErr, CodeDataFormat, http.StatusUnprocessableEntity},
		{"wrapped data format", fmt.Errorf("load: %w", formatErr), CodeDataFormat, http.StatusUnprocessableEntity},
		{"not found", NotFound("page not found"), CodeNotFound, http.StatusNotFound},
		{"other", io.ErrUnexpectedEOF, CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := FromError(tt.err)
			if appErr.Code != tt.wantCode || appErr.StatusCode != tt.wantStatus {
				t.Errorf("got %s/%d, want %s/%d", appErr.Code, appErr.StatusCode, tt.wantCode, tt.wantStatus)
			}
		})
	}

	if appErr := FromError(formatErr); appErr.Details != formatErr.Error() {
		t.Errorf("expected the format error as details, got %q", appErr.Details)
	}
}

func TestWriteError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rr := httptest.NewRecorder()

	WriteError(rr, logger, BadRequest("bad start date"), "req-1")

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}

	var resp struct {
		Success bool `json:"success"`
		Error   struct {
			Code      string `json:"code"`
			Message   string `json:"message"`
			RequestID string `json:"request_id"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Success || resp.Error.Code != string(CodeBadRequest) || resp.Error.RequestID != "req-1" {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestWriteSuccessWithHeaders(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteSuccessWithHeaders(rr, map[string]int{"rows": 3}, map[string]string{"Cache-Control": "no-store"})

	if rr.Header().Get("Cache-Control") != "no-store" {
		t.Error("expected the extra header")
	}
	if rr.Header().Get("Content-Type") != "application/json" {
		t.Error("expected a JSON response")
	}
}
