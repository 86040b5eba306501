package pipeline

import (
	"strings"
	"testing"
)

// TestParseStrategy tests strategy name resolution.
func TestParseStrategy(t *testing.T) {
	t.Parallel()

	t.Run("round-trips all canonical names", func(t *testing.T) {
		t.Parallel()

		for _, s := range []Strategy{Sequential, BatchSequential, ChannelPipeline, BatchChannelPipeline} {
			parsed, err := ParseStrategy(s.String())
			if err != nil {
				t.Errorf("%s: unexpected error: %v", s, err)
			}
			if parsed != s {
				t.Errorf("%s: parsed to %s", s, parsed)
			}
		}
	})

	t.Run("unknown name lists valid choices", func(t *testing.T) {
		t.Parallel()

		_, err := ParseStrategy("turbo")
		if err == nil {
			t.Fatal("expected error for unknown strategy")
		}
		for _, want := range []string{"sequential", "batch-sequential", "channel-pipeline", "batch-channel-pipeline"} {
			if !strings.Contains(err.Error(), want) {
				t.Errorf("error %q does not mention %q", err.Error(), want)
			}
		}
	})
}

// TestStrategyBatched tests the batched classification.
func TestStrategyBatched(t *testing.T) {
	t.Parallel()

	tests := []struct {
		strategy Strategy
		want     bool
	}{
		{Sequential, false},
		{BatchSequential, true},
		{ChannelPipeline, false},
		{BatchChannelPipeline, true},
	}
	for _, tt := range tests {
		if got := tt.strategy.Batched(); got != tt.want {
			t.Errorf("%s.Batched() = %v, want %v", tt.strategy, got, tt.want)
		}
	}
}
