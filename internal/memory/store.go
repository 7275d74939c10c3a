// Package memory provides a persistent note store with full-text recall.
// Notes are indexed with bleve so recall works by keyword relevance rather
// than exact match.
package memory

import (
	"fmt"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/google/uuid"
)

// Note is one remembered fact.
type Note struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Text      string    `json:"text"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// Result is a recalled note with its relevance score.
type Result struct {
	Note  Note
	Score float64
}

// Store indexes and recalls notes.
type Store struct {
	index bleve.Index
	path  string
}

// Open creates or opens a note store at path.
func Open(path string) (*Store, error) {
	index, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		index, err = bleve.New(path, buildNoteMapping())
		if err != nil {
			return nil, fmt.Errorf("memory: creating index: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("memory: opening index: %w", err)
	}

	return &Store{index: index, path: path}, nil
}

// OpenInMemory opens a store backed by an in-memory index (for testing).
func OpenInMemory() (*Store, error) {
	index, err := bleve.NewMemOnly(buildNoteMapping())
	if err != nil {
		return nil, fmt.Errorf("memory: creating in-memory index: %w", err)
	}
	return &Store{index: index}, nil
}

func buildNoteMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()

	noteMapping := bleve.NewDocumentMapping()

	userField := bleve.NewTextFieldMapping()
	userField.Analyzer = keyword.Name
	userField.Store = true
	userField.Index = true
	noteMapping.AddFieldMappingsAt("user_id", userField)

	sourceField := bleve.NewTextFieldMapping()
	sourceField.Analyzer = keyword.Name
	sourceField.Store = true
	sourceField.Index = true
	noteMapping.AddFieldMappingsAt("source", sourceField)

	textField := bleve.NewTextFieldMapping()
	textField.Analyzer = standard.Name
	textField.Store = true
	textField.Index = true
	noteMapping.AddFieldMappingsAt("text", textField)

	createdField := bleve.NewDateTimeFieldMapping()
	createdField.Store = true
	noteMapping.AddFieldMappingsAt("created_at", createdField)

	indexMapping.DefaultMapping = noteMapping

	return indexMapping
}

// Remember stores a note under a fresh ID and returns it.
func (s *Store) Remember(userID, text, source string) (string, error) {
	id := uuid.New().String()
	if err := s.Upsert(id, userID, text, source); err != nil {
		return "", err
	}
	return id, nil
}

// Upsert stores a note under a caller-chosen ID, replacing any note
// previously indexed under that ID.
func (s *Store) Upsert(id, userID, text, source string) error {
	if text == "" {
		return fmt.Errorf("memory: empty note")
	}

	doc := map[string]interface{}{
		"user_id":    userID,
		"text":       text,
		"source":     source,
		"created_at": time.Now().UTC(),
	}

	if err := s.index.Index(id, doc); err != nil {
		return fmt.Errorf("memory: indexing note: %w", err)
	}

	return nil
}

// Recall searches stored notes by relevance. userID, when non-empty,
// restricts results to that user's notes.
func (s *Store) Recall(query, userID string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 5
	}

	matchQuery := bleve.NewMatchQuery(query)
	matchQuery.SetField("text")

	var searchQuery = bleve.NewConjunctionQuery(matchQuery)
	if userID != "" {
		userQuery := bleve.NewTermQuery(userID)
		userQuery.SetField("user_id")
		searchQuery = bleve.NewConjunctionQuery(matchQuery, userQuery)
	}

	req := bleve.NewSearchRequest(searchQuery)
	req.Size = limit
	req.Fields = []string{"user_id", "text", "source"}

	res, err := s.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("memory: search failed: %w", err)
	}

	results := make([]Result, 0, len(res.Hits))
	for _, hit := range res.Hits {
		note := Note{ID: hit.ID}
		if v, ok := hit.Fields["user_id"].(string); ok {
			note.UserID = v
		}
		if v, ok := hit.Fields["text"].(string); ok {
			note.Text = v
		}
		if v, ok := hit.Fields["source"].(string); ok {
			note.Source = v
		}
		results = append(results, Result{Note: note, Score: hit.Score})
	}

	return results, nil
}

// Forget deletes a note by ID.
func (s *Store) Forget(id string) error {
	return s.index.Delete(id)
}

// Count returns the number of stored notes.
func (s *Store) Count() (uint64, error) {
	return s.index.DocCount()
}

// Close closes the underlying index.
func (s *Store) Close() error {
	return s.index.Close()
}
