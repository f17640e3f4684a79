package rlm

import (
	"context"
	"fmt"

	chromem "github.com/philippgille/chromem-go"
)

// SemanticIndex optionally supplements ContextFold's substring Search with
// embedded-vector nearest-neighbor search across every registered section,
// when an embedding provider is configured. It is enrichment, not a
// requirement: FoldRegistry and every orchestrator path work fully without
// it, per spec.md's "supplementing substring search" framing.
type SemanticIndex struct {
	collection *chromem.Collection
}

// NewSemanticIndex builds an in-memory chromem-go vector store using the
// default OpenAI embedding provider (reads OPENAI_API_KEY), matching
// configuration's embedding_provider="openai" default.
func NewSemanticIndex() (*SemanticIndex, error) {
	db := chromem.NewDB()
	coll, err := db.CreateCollection("context-folds", nil, chromem.NewEmbeddingFuncDefault())
	if err != nil {
		return nil, fmt.Errorf("rlm: create semantic collection: %w", err)
	}
	return &SemanticIndex{collection: coll}, nil
}

// IndexFold embeds every section fold has registered (via RegisterSection
// or AutoDetectSections), keyed so a hit maps back to fold.GetSection.
func (s *SemanticIndex) IndexFold(ctx context.Context, fold *ContextFold) error {
	fold.mu.RLock()
	names := make([]string, 0, len(fold.Sections))
	for name := range fold.Sections {
		names = append(names, name)
	}
	fold.mu.RUnlock()

	for _, name := range names {
		text, ok := fold.GetSection(name)
		if !ok || text == "" {
			continue
		}
		doc := chromem.Document{
			ID:       fold.ID.String() + "/" + name,
			Content:  text,
			Metadata: map[string]string{"fold_id": fold.ID.String(), "section": name},
		}
		if err := s.collection.AddDocument(ctx, doc); err != nil {
			return fmt.Errorf("rlm: index section %s: %w", name, err)
		}
	}
	return nil
}

// SemanticHit is one nearest-neighbor match across every indexed fold.
type SemanticHit struct {
	FoldID  string
	Section string
	Content string
	Score   float32
}

// Query returns the nResults most semantically similar sections across
// every fold indexed so far.
func (s *SemanticIndex) Query(ctx context.Context, query string, nResults int) ([]SemanticHit, error) {
	results, err := s.collection.Query(ctx, query, nResults, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("rlm: semantic query: %w", err)
	}
	hits := make([]SemanticHit, 0, len(results))
	for _, r := range results {
		hits = append(hits, SemanticHit{
			FoldID:  r.Metadata["fold_id"],
			Section: r.Metadata["section"],
			Content: r.Content,
			Score:   r.Similarity,
		})
	}
	return hits, nil
}
