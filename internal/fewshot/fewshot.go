// Package fewshot keeps a small vector store of labeled example
// queries. Classifier fallback prompts retrieve the nearest examples as
// in-context hints.
package fewshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	chromem "github.com/philippgille/chromem-go"

	"github.com/ziadkadry99/queryflow/internal/embeddings"
)

const collectionName = "fewshot"

// Example is one labeled query.
type Example struct {
	ID             string
	Query          string
	PrimaryScene   string
	SecondaryScene string
	ThirdScene     string
}

// Store holds labeled examples in a chromem collection.
type Store struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedFunc  chromem.EmbeddingFunc
}

// NewStore creates an in-memory example store.
func NewStore(embedder embeddings.Embedder) (*Store, error) {
	db := chromem.NewDB()
	ef := embeddings.ToChromemFunc(embedder)

	col, err := db.GetOrCreateCollection(collectionName, nil, ef)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	return &Store{db: db, collection: col, embedFunc: ef}, nil
}

// Add inserts or replaces examples.
func (s *Store) Add(ctx context.Context, examples []Example) error {
	if len(examples) == 0 {
		return nil
	}

	docs := make([]chromem.Document, len(examples))
	for i, ex := range examples {
		id := ex.ID
		if id == "" {
			id = fmt.Sprintf("ex-%d", s.collection.Count()+i+1)
		}
		docs[i] = chromem.Document{
			ID:      id,
			Content: ex.Query,
			Metadata: map[string]string{
				"primary":   ex.PrimaryScene,
				"secondary": ex.SecondaryScene,
				"third":     ex.ThirdScene,
			},
		}
	}
	return s.collection.AddDocuments(ctx, docs, 1)
}

// Similar returns up to k labeled examples nearest to text, formatted
// as prompt lines. Errors degrade to no hints: classification must not
// fail because retrieval did.
func (s *Store) Similar(ctx context.Context, text string, k int) []string {
	if k <= 0 {
		return nil
	}
	count := s.collection.Count()
	if count == 0 {
		return nil
	}
	if k > count {
		k = count
	}

	results, err := s.collection.Query(ctx, text, k, nil, nil)
	if err != nil {
		return nil
	}

	lines := make([]string, 0, len(results))
	for _, r := range results {
		label := r.Metadata["primary"]
		if sec := r.Metadata["secondary"]; sec != "" {
			label += "/" + sec
		}
		if third := r.Metadata["third"]; third != "" {
			label += "/" + third
		}
		lines = append(lines, fmt.Sprintf("「%s」→ %s", r.Content, label))
	}
	return lines
}

// Count returns the number of stored examples.
func (s *Store) Count() int {
	return s.collection.Count()
}

// Persist saves the store under dir.
func (s *Store) Persist(ctx context.Context, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating fewshot directory: %w", err)
	}
	return s.db.ExportToFile(filepath.Join(dir, "fewshot.gob.gz"), true, "")
}

// Load restores the store from dir. A missing file is not an error:
// the store simply starts empty.
func (s *Store) Load(ctx context.Context, dir string) error {
	path := filepath.Join(dir, "fewshot.gob.gz")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := s.db.ImportFromFile(path, ""); err != nil {
		return fmt.Errorf("import from file: %w", err)
	}

	// Re-acquire collection reference after import.
	col := s.db.GetCollection(collectionName, s.embedFunc)
	if col == nil {
		return fmt.Errorf("collection %q not found after import", collectionName)
	}
	s.collection = col
	return nil
}
