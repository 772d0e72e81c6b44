package apierr

import (
	"net/http"
	"testing"
)

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		err  *Error
		want int
	}{
		{NotFoundf("x"), http.StatusNotFound},
		{BadRequestf("x"), http.StatusBadRequest},
		{Conflictf("x"), http.StatusConflict},
		{Unprocessablef("x"), http.StatusUnprocessableEntity},
		{Internalf("x"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := tt.err.HTTPStatus(); got != tt.want {
			t.Errorf("Kind %q: HTTPStatus() = %d, want %d", tt.err.Kind, got, tt.want)
		}
	}
}

func TestErrorMessageRoundTrips(t *testing.T) {
	e := BadRequestf("malformed payload")
	if e.Error() != "malformed payload" {
		t.Errorf("Error() = %q, want %q", e.Error(), "malformed payload")
	}
}
