// Package index maintains one isolated semantic collection per community
// inside a shared pgvector-backed passages table.
//
// Collections are rebuilt wholesale on every ingestion: the prior collection
// is discarded in its entirety before the fresh documents are written, so a
// collection never mixes stale and fresh passages.
package index

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// CollectionName derives the collection name for a community. The mapping is
// deterministic so any process can reopen the right collection without
// shared state.
func CollectionName(communityID int64) string {
	return fmt.Sprintf("community_%d", communityID)
}

// Index stores and searches passages. It is safe for concurrent use, though
// only one writer should be reshaping a given collection at a time (the
// ingestion pipeline holds a per-community lock around Rebuild).
type Index struct {
	pool     *pgxpool.Pool
	embedder ai.Embedder
	logger   *slog.Logger
}

// New creates an Index using the given pool and embedder.
func New(pool *pgxpool.Pool, embedder ai.Embedder, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	return &Index{pool: pool, embedder: embedder, logger: logger}
}

// Rebuild replaces the community's collection with the given documents.
//
// All embeddings are generated before the transaction opens, so no database
// transaction is held across a network call to the embedder. The delete and
// the inserts then commit atomically: readers observe either the old
// collection or the new one, never a mix.
func (ix *Index) Rebuild(ctx context.Context, communityID int64, docs []Document) error {
	collection := CollectionName(communityID)

	vectors := make([]pgvector.Vector, len(docs))
	for i, doc := range docs {
		vec, err := ix.embed(ctx, doc.Content)
		if err != nil {
			return fmt.Errorf("embedding passage %q for %s: %w", doc.Type, collection, err)
		}
		vectors[i] = vec
	}

	tx, err := ix.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning rebuild transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM passages WHERE collection = $1`, collection); err != nil {
		return fmt.Errorf("dropping collection %s: %w", collection, err)
	}

	for i, doc := range docs {
		id := doc.ID
		if id == "" {
			id = uuid.NewString()
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO passages (id, collection, community_id, passage_type, position, content, embedding)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			id, collection, communityID, doc.Type, i, doc.Content, vectors[i],
		); err != nil {
			return fmt.Errorf("inserting passage %q into %s: %w", doc.Type, collection, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing rebuild of %s: %w", collection, err)
	}

	ix.logger.Info("rebuilt retrieval collection", "collection", collection, "passages", len(docs))
	return nil
}

// Search returns up to k passages of the community's collection nearest to
// the query, most similar first. A community with no ingested data yields an
// empty result, not an error.
func (ix *Index) Search(ctx context.Context, communityID int64, query string, k int) ([]Result, error) {
	vec, err := ix.embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	rows, err := ix.pool.Query(ctx, `
		SELECT id, passage_type, content, 1 - (embedding <=> $2) AS similarity
		FROM passages
		WHERE collection = $1
		ORDER BY embedding <=> $2
		LIMIT $3`,
		CollectionName(communityID), vec, k)
	if err != nil {
		return nil, fmt.Errorf("searching collection %s: %w", CollectionName(communityID), err)
	}
	defer rows.Close()

	return ix.scanResults(rows, communityID)
}

// All returns up to k passages of the collection in insertion order. It is
// the deterministic fallback used when a query matches nothing usable.
func (ix *Index) All(ctx context.Context, communityID int64, k int) ([]Result, error) {
	rows, err := ix.pool.Query(ctx, `
		SELECT id, passage_type, content, 0::float8 AS similarity
		FROM passages
		WHERE collection = $1
		ORDER BY position
		LIMIT $2`,
		CollectionName(communityID), k)
	if err != nil {
		return nil, fmt.Errorf("listing collection %s: %w", CollectionName(communityID), err)
	}
	defer rows.Close()

	return ix.scanResults(rows, communityID)
}

// Drop removes the community's collection entirely.
func (ix *Index) Drop(ctx context.Context, communityID int64) error {
	collection := CollectionName(communityID)
	if _, err := ix.pool.Exec(ctx, `DELETE FROM passages WHERE collection = $1`, collection); err != nil {
		return fmt.Errorf("dropping collection %s: %w", collection, err)
	}
	return nil
}

func (ix *Index) embed(ctx context.Context, text string) (pgvector.Vector, error) {
	resp, err := ix.embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{ai.DocumentFromText(text, nil)},
	})
	if err != nil {
		return pgvector.Vector{}, err
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return pgvector.Vector{}, fmt.Errorf("embedder returned no embedding")
	}
	return pgvector.NewVector(resp.Embeddings[0].Embedding), nil
}

type pgxRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func (ix *Index) scanResults(rows pgxRows, communityID int64) ([]Result, error) {
	var results []Result
	for rows.Next() {
		var (
			r   Result
			sim float64
		)
		if err := rows.Scan(&r.Document.ID, &r.Document.Type, &r.Document.Content, &sim); err != nil {
			return nil, fmt.Errorf("scanning passage: %w", err)
		}
		r.Document.CommunityID = communityID
		r.Similarity = float32(sim)
		results = append(results, r)
	}
	return results, rows.Err()
}
