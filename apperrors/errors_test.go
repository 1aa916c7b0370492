package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestLimitMessages(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"too long", AudioTooLong(612.34, 600), "Audio is 612.3s but the limit is 600.0s"},
		{"too large", AudioTooLarge(51.26, 50), "File is 51.3 MB but the limit is 50 MB"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
			if !IsLimitExceeded(tt.err) {
				t.Error("expected limit exceeded code")
			}
		})
	}
}

func TestIsThroughWrapping(t *testing.T) {
	base := Load("file not found: a.wav", errors.New("stat a.wav: no such file"))
	wrapped := fmt.Errorf("render: %w", base)

	if !IsLoad(wrapped) {
		t.Error("IsLoad should see through fmt.Errorf wrapping")
	}
	if IsValidation(wrapped) {
		t.Error("load error must not match validation")
	}
	if CodeOf(wrapped) != CodeLoad {
		t.Errorf("CodeOf = %v", CodeOf(wrapped))
	}
	if CodeOf(errors.New("plain")) != CodeInternal {
		t.Error("plain errors map to CodeInternal")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validation("bad stride %d", 0), http.StatusBadRequest},
		{"too large", AudioTooLarge(60, 50), http.StatusRequestEntityTooLarge},
		{"too long", AudioTooLong(700, 600), http.StatusBadRequest},
		{"load", Load("empty", nil), http.StatusUnprocessableEntity},
		{"fetch", URLFetch("timeout", nil), http.StatusBadGateway},
		{"plain", errors.New("x"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.want {
				t.Errorf("HTTPStatus = %d, want %d", got, tt.want)
			}
		})
	}
}
