package pipeline

import (
	"sync/atomic"
	"time"
)

// pollInterval is how often every stage loop polls its input queue and
// checks the exit flag, per spec's ~250ms suspension-point budget.
const pollInterval = 250 * time.Millisecond

// Flags holds the two broadcast signals shared by every stage: speaking
// (the user is currently talking, so the agent must hush) and exit
// (terminate). Both are level-triggered and safe for concurrent use.
type Flags struct {
	speaking atomic.Bool
	exit     atomic.Bool
}

// NewFlags returns a fresh, cleared Flags.
func NewFlags() *Flags {
	return &Flags{}
}

func (f *Flags) SetSpeaking(v bool)  { f.speaking.Store(v) }
func (f *Flags) Speaking() bool      { return f.speaking.Load() }
func (f *Flags) SetExit()            { f.exit.Store(true) }
func (f *Flags) Exit() bool          { return f.exit.Load() }

// waitFlag polls flag every 5ms until it becomes true or d elapses,
// mirroring the original implementation's speaking_event.wait(duration)
// semantics (a waitable event with timeout), since atomic.Bool has no
// native wait primitive. Returns true if the flag became set before the
// deadline.
func waitFlag(flag func() bool, d time.Duration) bool {
	const step = 5 * time.Millisecond
	deadline := time.Now().Add(d)
	for {
		if flag() {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(step)
	}
}
