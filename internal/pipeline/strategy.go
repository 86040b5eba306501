package pipeline

import (
	"fmt"
	"strings"
)

// Strategy selects how a run executes: batched or per-frame inference,
// on the caller goroutine or across concurrent stages.
type Strategy int

// The four execution strategies.
const (
	// Sequential processes one frame at a time on the caller goroutine.
	Sequential Strategy = iota

	// BatchSequential processes one batch at a time on the caller
	// goroutine.
	BatchSequential

	// ChannelPipeline runs five concurrent stages passing one frame per
	// message through bounded channels.
	ChannelPipeline

	// BatchChannelPipeline runs five concurrent stages passing one batch
	// per message through bounded channels.
	BatchChannelPipeline
)

// strategyNames maps each strategy to its canonical CLI name.
var strategyNames = map[Strategy]string{
	Sequential:           "sequential",
	BatchSequential:      "batch-sequential",
	ChannelPipeline:      "channel-pipeline",
	BatchChannelPipeline: "batch-channel-pipeline",
}

// String returns the canonical name of the strategy.
func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(s))
}

// Batched reports whether the strategy sends batches to the engine.
func (s Strategy) Batched() bool {
	return s == BatchSequential || s == BatchChannelPipeline
}

// ParseStrategy resolves a strategy name to its Strategy value.
// Unknown names produce an error listing the valid choices.
func ParseStrategy(name string) (Strategy, error) {
	for s, n := range strategyNames {
		if n == name {
			return s, nil
		}
	}

	valid := make([]string, 0, len(strategyNames))
	for s := Sequential; s <= BatchChannelPipeline; s++ {
		valid = append(valid, strategyNames[s])
	}
	return Sequential, fmt.Errorf("unknown strategy %q (valid: %s)",
		name, strings.Join(valid, ", "))
}
