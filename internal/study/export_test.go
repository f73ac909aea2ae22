package study

import "github.com/vytor/flashmind/internal/models"

// QueueSnapshot exposes the pending queue to tests.
func (s *Session) QueueSnapshot() []models.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Card, len(s.queue))
	copy(out, s.queue)
	return out
}
