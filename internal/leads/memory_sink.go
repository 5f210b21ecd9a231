package leads

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemorySink keeps recorded leads in memory. It backs tests and local runs
// where no CRM is configured.
type MemorySink struct {
	mu    sync.RWMutex
	leads []*Lead
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Record stores a copy of the lead with a generated ID.
func (s *MemorySink) Record(ctx context.Context, lead *Lead) error {
	stored := *lead
	stored.ID = uuid.NewString()
	stored.CreatedAt = time.Now().UTC()

	s.mu.Lock()
	s.leads = append(s.leads, &stored)
	s.mu.Unlock()
	return nil
}

// All returns the recorded leads in insertion order.
func (s *MemorySink) All() []*Lead {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Lead, len(s.leads))
	copy(out, s.leads)
	return out
}
