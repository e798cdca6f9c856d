package bot

import "sync"

// phase enumerates the free-text input states of the admin conversation.
// Exactly one phase is active per user at a time; callbacks that start a
// wizard overwrite whatever phase was pending.
type phase int

const (
	phaseIdle phase = iota
	phaseAwaitingRateCost
	phaseAwaitingRateName
	phaseAwaitingRateNameEdit
	phaseAwaitingRateCostEdit
	phaseAwaitingChannel
)

// inputState is the per-user conversation state. Draft fields are only
// meaningful for the phase that set them.
type inputState struct {
	Phase       phase
	DraftDays   int     // rate creation: chosen duration preset.
	DraftCost   float64 // rate creation: parsed price.
	DraftName   string  // rate creation: auto-generated name suggestion.
	RateID      uint64  // rate edit: target rate.
	ChannelType string  // channel setup: models.ChannelFree or ChannelVip.
}

// stateStore holds conversation state keyed by Telegram user id.
type stateStore struct {
	mu     sync.Mutex
	states map[int64]inputState
}

func newStateStore() *stateStore {
	return &stateStore{states: map[int64]inputState{}}
}

func (s *stateStore) get(userID int64) inputState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[userID]
}

func (s *stateStore) set(userID int64, state inputState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[userID] = state
}

func (s *stateStore) reset(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, userID)
}
