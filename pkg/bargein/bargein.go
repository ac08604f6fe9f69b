// Package bargein implements the barge-in flag: a thread-safe latch set
// the instant the AI signals an interruption and cleared by the next
// turn boundary or a watchdog timeout, whichever comes first.
package bargein

import (
	"sync/atomic"
	"time"
)

// Watchdog is the fixed upper bound on how long the flag may stay set: a
// flag older than this is force-cleared on the next inbound audioOutput
// check so a missed clear condition can never silence the call
// permanently.
const Watchdog = 5 * time.Second

// Clearer is the subset of the reframer/queue pair that a barge-in event
// must reset atomically alongside the flag itself.
type Clearer interface {
	Clear()
}

// Flag is an atomic barge-in latch with an accompanying atomic timestamp.
// The zero value is ready to use (clear, no timestamp).
type Flag struct {
	set   atomic.Bool
	at    atomic.Int64  // UnixNano of the most recent Set; meaningless when !set
	count atomic.Uint64 // total number of Set calls over the flag's lifetime
}

// Set atomically marks the flag as interrupted, records now, and clears
// every supplied Clearer. The flag is set before any Clearer runs, so a
// reader checking the flag first never observes "set but not yet
// cleared" as "clear."
func (f *Flag) Set(now time.Time, clearers ...Clearer) {
	f.at.Store(now.UnixNano())
	f.set.Store(true)
	f.count.Add(1)
	for _, c := range clearers {
		c.Clear()
	}
}

// Count reports how many times Set has been called over this flag's
// lifetime, the barge-in occurrence count a CDR persists at call end.
// Unaffected by Clear or the IsSet watchdog, both of which only touch the
// set/at pair.
func (f *Flag) Count() uint64 {
	return f.count.Load()
}

// Clear unconditionally clears the flag. It runs on a new completionStart
// or a new ASSISTANT/USER contentStart.
func (f *Flag) Clear() {
	f.set.Store(false)
}

// IsSet reports whether the flag is currently set, applying the watchdog:
// if the flag has been set for longer than Watchdog, it is cleared as a
// side effect and IsSet returns false. Callers check it on every inbound
// audioOutput.
func (f *Flag) IsSet(now time.Time) bool {
	if !f.set.Load() {
		return false
	}
	setAt := time.Unix(0, f.at.Load())
	if now.Sub(setAt) > Watchdog {
		f.set.Store(false)
		return false
	}
	return true
}
