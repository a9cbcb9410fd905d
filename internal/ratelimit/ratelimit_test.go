package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllow_BurstPerHost(t *testing.T) {
	tests := []struct {
		name  string
		burst int
		hosts []string
		want  []bool
	}{
		{
			name:  "burst of one per host",
			burst: 1,
			hosts: []string{"tonies.com", "tonies.com", "tonies.com"},
			want:  []bool{true, false, false},
		},
		{
			name:  "hosts have their own bucket",
			burst: 1,
			hosts: []string{"tonies.com", "tonies.de", "tonies.com", "tonies.de"},
			want:  []bool{true, true, false, false},
		},
		{
			name:  "larger burst",
			burst: 2,
			hosts: []string{"tonies.com", "tonies.com", "tonies.com"},
			want:  []bool{true, true, false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := New(0.5, tt.burst)
			defer rl.Stop()

			got := make([]bool, 0, len(tt.hosts))
			for _, h := range tt.hosts {
				got = append(got, rl.Allow(h))
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWait_SecondRequestIsDelayed(t *testing.T) {
	rl := New(20, 1)
	defer rl.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, rl.Wait(ctx, "tonies.com"))

	start := time.Now()
	require.NoError(t, rl.Wait(ctx, "tonies.com"))
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)

	// Another host is not held up by the first.
	start = time.Now()
	require.NoError(t, rl.Wait(ctx, "cdn.tonies.com"))
	assert.Less(t, time.Since(start), 30*time.Millisecond)
}

func TestWait_CanceledContext(t *testing.T) {
	rl := New(0.5, 1)
	defer rl.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// An exhausted bucket cannot be waited on with a canceled context.
	assert.True(t, rl.Allow("tonies.com"))
	assert.Error(t, rl.Wait(ctx, "tonies.com"))
}

func TestWait_DeadlineShorterThanRefill(t *testing.T) {
	rl := New(0.5, 1)
	defer rl.Stop()

	rl.Allow("tonies.com")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.Error(t, rl.Wait(ctx, "tonies.com"), "next token is two seconds away")
}

func TestEvict_DropsOnlyIdleHosts(t *testing.T) {
	rl := New(0.5, 1)
	defer rl.Stop()

	rl.Allow("old.example")
	cutoff := time.Now().Add(time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	rl.Allow("tonies.com")
	require.Equal(t, 2, rl.Len())

	rl.evict(cutoff)
	assert.Equal(t, 1, rl.Len())

	// The evicted host starts with a full bucket again.
	assert.True(t, rl.Allow("old.example"))
	assert.False(t, rl.Allow("tonies.com"))
}

func TestStop_Idempotent(t *testing.T) {
	rl := New(1, 1)
	assert.NotPanics(t, func() {
		rl.Stop()
		rl.Stop()
	})
}
