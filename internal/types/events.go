package types

import "cosmossdk.io/math"

type EventType string

func (e EventType) String() string {
	return string(e)
}

const (
	EventStaked      EventType = "staking.Staked"
	EventWithdrawn   EventType = "staking.Withdrawn"
	EventRewardPaid  EventType = "staking.RewardPaid"
	EventRewardAdded EventType = "staking.RewardAdded"
)

// Event is a record of a completed pool mutation. Amount carries the staked,
// withdrawn, paid or notified value at 1e18 scale.
type Event struct {
	Type    EventType
	Pool    string
	Account string
	Amount  math.Int
	At      int64
}

// EventSink receives events emitted by pools after a mutation commits.
type EventSink interface {
	Emit(Event)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) Emit(Event) {}

// Recorder is an in-memory sink used by tests and the simulator.
type Recorder struct {
	Events []Event
}

func (r *Recorder) Emit(e Event) {
	r.Events = append(r.Events, e)
}

// ByType returns the recorded events matching the given type, in order.
func (r *Recorder) ByType(t EventType) []Event {
	var out []Event
	for _, e := range r.Events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
