package whisper

import (
	"fmt"
	"strings"
)

// Strategy selects the decoding strategy used by whisper_full.
type Strategy int

const (
	// StrategyGreedy picks the most probable token at each step.
	StrategyGreedy Strategy = iota
	// StrategyBeamSearch explores several candidate sequences.
	StrategyBeamSearch
)

func (s Strategy) String() string {
	switch s {
	case StrategyGreedy:
		return "greedy"
	case StrategyBeamSearch:
		return "beam_search"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

const (
	DefaultThreads  = 4
	DefaultLanguage = "auto"
)

// Params is the parameter bundle passed to every transcription. It is built
// once, usually by DefaultParams, and handed to Open.
type Params struct {
	Strategy Strategy
	// Threads is the number of worker threads the engine may use.
	Threads int
	// Language is an ISO 639-1 code or "auto" for detection.
	Language  string
	Translate bool

	PrintProgress   bool
	PrintRealtime   bool
	PrintTimestamps bool
	PrintSpecial    bool
}

// DefaultParams returns greedy decoding on four threads with automatic
// language detection, no translation, and all engine printing disabled.
func DefaultParams() Params {
	return Params{
		Strategy: StrategyGreedy,
		Threads:  DefaultThreads,
		Language: DefaultLanguage,
	}
}

// Validate checks the parameter bundle for values the engine cannot use.
func (p Params) Validate() error {
	if p.Threads < 1 {
		return fmt.Errorf("whisper: threads must be >= 1, got %d", p.Threads)
	}
	if strings.TrimSpace(p.Language) == "" {
		return fmt.Errorf("whisper: language is required")
	}
	if p.Strategy != StrategyGreedy && p.Strategy != StrategyBeamSearch {
		return fmt.Errorf("whisper: unknown strategy %d", int(p.Strategy))
	}
	return nil
}

// AutoLanguage reports whether the engine should detect the spoken language.
func (p Params) AutoLanguage() bool {
	return strings.EqualFold(strings.TrimSpace(p.Language), DefaultLanguage)
}
