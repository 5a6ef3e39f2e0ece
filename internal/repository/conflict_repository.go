package repository

import (
	"context"
	"fmt"
	"sort"

	"shared-notes-server/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

const conflictDocType = "conflict"

// ConflictLogRepository keeps conflicts that were surfaced to callers. It is
// advisory: nothing in the edit pipeline reads it back.
type ConflictLogRepository interface {
	Record(ctx context.Context, entry *domain.ConflictLogEntry) error
	// ListByNote returns the newest entries first, at most limit of them.
	ListByNote(ctx context.Context, noteID int64, limit int) ([]*domain.ConflictLogEntry, error)
}

type conflictDoc struct {
	DocType string `json:"doc_type"`
	domain.ConflictLogEntry
}

type conflictRepo struct {
	client *kivik.Client
	dbName string
}

func NewConflictLogRepository(client *kivik.Client, dbName string) ConflictLogRepository {
	return &conflictRepo{
		client: client,
		dbName: dbName,
	}
}

func (r *conflictRepo) Record(ctx context.Context, entry *domain.ConflictLogEntry) error {
	db := r.client.DB(r.dbName)

	docID := fmt.Sprintf("conflict:%d:%s", entry.NoteID, entry.ID)
	doc := conflictDoc{DocType: conflictDocType, ConflictLogEntry: *entry}
	if _, err := db.Put(ctx, docID, doc); err != nil {
		return fmt.Errorf("failed to record conflict: %w", err)
	}

	return nil
}

func (r *conflictRepo) ListByNote(ctx context.Context, noteID int64, limit int) ([]*domain.ConflictLogEntry, error) {
	db := r.client.DB(r.dbName)

	query := map[string]interface{}{
		"selector": map[string]interface{}{
			"doc_type": conflictDocType,
			"note_id":  noteID,
		},
	}

	rows := db.Find(ctx, query)
	defer rows.Close()

	var entries []*domain.ConflictLogEntry
	for rows.Next() {
		var doc conflictDoc
		if err := rows.ScanDoc(&doc); err != nil {
			continue
		}
		entry := doc.ConflictLogEntry
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list conflicts: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].RecordedAt.After(entries[j].RecordedAt)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	return entries, nil
}

// EnsureDatabase creates the CouchDB database backing the conflict log when it
// does not exist yet.
func EnsureDatabase(ctx context.Context, client *kivik.Client, dbName string) error {
	exists, err := client.DBExists(ctx, dbName)
	if err != nil {
		return fmt.Errorf("failed to check database existence: %w", err)
	}
	if !exists {
		if err := client.CreateDB(ctx, dbName); err != nil {
			return fmt.Errorf("failed to create database: %w", err)
		}
	}
	return nil
}
