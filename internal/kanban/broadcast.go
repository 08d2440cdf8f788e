package kanban

// PlanUpdate is a single notification emitted when a card moves,
// delivered to whatever is listening on a PlanBroadcaster's channel.
type PlanUpdate struct {
	CardID string
	Column Column
}

// PlanBroadcaster is a best-effort plan-notification channel that never
// blocks the tool call it's attached to: a full buffer drops the update
// rather than stalling the caller. It is single-channel; multiple
// listeners would each need their own PlanBroadcaster fed by the same
// Send calls.
type PlanBroadcaster struct {
	ch chan PlanUpdate
}

// NewPlanBroadcaster creates a broadcaster with the given buffer size.
// A size of 0 makes every Send a no-op unless a receiver is already
// waiting.
func NewPlanBroadcaster(buffer int) *PlanBroadcaster {
	return &PlanBroadcaster{ch: make(chan PlanUpdate, buffer)}
}

// Send delivers update if there's room; otherwise it's dropped. Never
// blocks the caller.
func (b *PlanBroadcaster) Send(update PlanUpdate) {
	select {
	case b.ch <- update:
	default:
	}
}

// Updates returns the receive-only channel subscribers read from.
func (b *PlanBroadcaster) Updates() <-chan PlanUpdate {
	return b.ch
}
