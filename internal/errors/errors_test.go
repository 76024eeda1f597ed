package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestUpstreamErrorMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  *UpstreamError
		want string
	}{
		{
			name: "body code",
			err:  NewUpstreamError("https://api.example/hc", 200, "500", ErrUpstreamStatus),
			want: "code=500",
		},
		{
			name: "http status",
			err:  NewUpstreamError("https://api.example/hc", 503, "", ErrUpstreamStatus),
			want: "status=503",
		},
		{
			name: "transport failure",
			err:  NewUpstreamError("https://api.example/hc", 0, "", errors.New("connection refused")),
			want: "connection refused",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); !strings.Contains(got, tt.want) {
				t.Errorf("Error() = %q, want substring %q", got, tt.want)
			}
		})
	}
}

func TestUpstreamErrorUnwrap(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("query failed: %w", NewUpstreamError("u", 500, "", ErrUpstreamStatus))

	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatal("errors.As should find UpstreamError through wrapping")
	}
	if !errors.Is(err, ErrUpstreamStatus) {
		t.Error("errors.Is should find the sentinel through UpstreamError")
	}
}

func TestValidationError(t *testing.T) {
	t.Parallel()

	err := NewValidationError("departure", "must not be empty")
	if got := err.Error(); !strings.Contains(got, "departure") {
		t.Errorf("Error() = %q, want field name included", got)
	}
}
