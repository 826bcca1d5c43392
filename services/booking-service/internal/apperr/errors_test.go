package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{fmt.Errorf("bad date: %w", ErrInvalidInput), http.StatusBadRequest},
		{fmt.Errorf("start: %w", ErrPastTimestamp), http.StatusBadRequest},
		{fmt.Errorf("insert: %w", ErrSlotConflict), http.StatusConflict},
		{fmt.Errorf("cancel: %w", ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("rule: %w", ErrInvalidRule), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Fatalf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
