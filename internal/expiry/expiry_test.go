package expiry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIsExpired(t *testing.T) {
	endsAt := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"before_end", endsAt.Add(-time.Second), false},
		{"exactly_at_end", endsAt, true},
		{"after_end", endsAt.Add(time.Second), true},
		{"long_after_end", endsAt.Add(48 * time.Hour), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, IsExpired(endsAt, tt.now))
		})
	}
}
