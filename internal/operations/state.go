package operations

import (
	"sync"
	"time"
)

// OperationState tracks one run: its status, the state of every step and the
// values steps hand to each other through the context map
type OperationState struct {
	mu        sync.RWMutex
	ID        string                 `json:"id"`
	Status    OperationStatus        `json:"status"`
	StartTime time.Time              `json:"start_time"`
	EndTime   *time.Time             `json:"end_time,omitempty"`
	Steps     map[string]*StepState  `json:"steps"`
	Order     []string               `json:"order"`
	Context   map[string]interface{} `json:"-"`
	Error     error                  `json:"-"`
}

// NewOperationState creates a new operation state
func NewOperationState(id string) *OperationState {
	return &OperationState{
		ID:        id,
		Status:    OperationStatusPending,
		StartTime: time.Now(),
		Steps:     make(map[string]*StepState),
		Context:   make(map[string]interface{}),
	}
}

// SetStage adds or replaces the state of a step, keeping first-seen order
func (s *OperationState) SetStage(stepID string, state *StepState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.Steps[stepID]; !exists {
		s.Order = append(s.Order, stepID)
	}
	s.Steps[stepID] = state
}

// GetStage returns the state of a step, or nil
func (s *OperationState) GetStage(stepID string) *StepState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Steps[stepID]
}

// SetContext stores a value for later steps
func (s *OperationState) SetContext(key string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Context[key] = value
}

// GetContext retrieves a value stored by an earlier step
func (s *OperationState) GetContext(key string) (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.Context[key]
	return val, ok
}

// Complete marks the operation as completed
func (s *OperationState) Complete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.EndTime = &now
	s.Status = OperationStatusCompleted
}

// Fail marks the operation as failed
func (s *OperationState) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.EndTime = &now
	s.Status = OperationStatusFailed
	s.Error = err
}

// Cancel marks the operation as cancelled
func (s *OperationState) Cancel(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.EndTime = &now
	s.Status = OperationStatusCancelled
	s.Error = err
}

// Duration returns how long the operation ran
func (s *OperationState) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.EndTime != nil {
		return s.EndTime.Sub(s.StartTime)
	}
	return time.Since(s.StartTime)
}
