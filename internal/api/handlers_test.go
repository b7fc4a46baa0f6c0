package api

import (
	"net/http"
	"testing"

	"github.com/sceneindex/markerd/internal/models"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		kind models.ErrKind
		want int
	}{
		{models.ErrBadRequest, http.StatusBadRequest},
		{models.ErrBadTarget, http.StatusBadRequest},
		{models.ErrNotFound, http.StatusNotFound},
		{models.ErrOverlap, http.StatusConflict},
		{models.ErrConflict, http.StatusConflict},
		{models.ErrOverflow, http.StatusUnprocessableEntity},
		{models.ErrFeatureDisabled, http.StatusForbidden},
		{models.ErrUnavailable, http.StatusServiceUnavailable},
		{models.ErrInternal, http.StatusInternalServerError},
		{models.ErrKind("bogus"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		if got := httpStatus(tc.kind); got != tc.want {
			t.Fatalf("httpStatus(%v) = %d, want %d", tc.kind, got, tc.want)
		}
	}
}
