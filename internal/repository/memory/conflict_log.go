package memory

import (
	"context"
	"sync"

	"shared-notes-server/internal/domain"
	"shared-notes-server/internal/repository"
)

// ConflictLog keeps at most perNote entries for each note, dropping the oldest.
type ConflictLog struct {
	mu      sync.RWMutex
	entries map[int64][]*domain.ConflictLogEntry
	perNote int
}

var _ repository.ConflictLogRepository = (*ConflictLog)(nil)

func NewConflictLog(perNote int) *ConflictLog {
	if perNote <= 0 {
		perNote = 50
	}
	return &ConflictLog{
		entries: make(map[int64][]*domain.ConflictLogEntry),
		perNote: perNote,
	}
}

func (l *ConflictLog) Record(ctx context.Context, entry *domain.ConflictLogEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	cp := *entry
	list := append(l.entries[entry.NoteID], &cp)
	if len(list) > l.perNote {
		list = list[len(list)-l.perNote:]
	}
	l.entries[entry.NoteID] = list
	return nil
}

func (l *ConflictLog) ListByNote(ctx context.Context, noteID int64, limit int) ([]*domain.ConflictLogEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	list := l.entries[noteID]
	out := make([]*domain.ConflictLogEntry, 0, len(list))
	for i := len(list) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		cp := *list[i]
		out = append(out, &cp)
	}
	return out, nil
}
