// Package retrieval turns a user query into grounding context for the
// generator. Retrieval never fails the caller: index errors degrade to the
// fallback path, and an empty collection degrades to a fixed placeholder.
package retrieval

import (
	"context"
	"log/slog"
	"strings"

	"github.com/iordanov05/AutoSMM/internal/index"
)

// TopK bounds how many passages a single retrieval returns.
const TopK = 5

// Placeholder is the context substituted when a community has no usable
// passages at all. It instructs the model to ask for details instead of
// inventing them.
const Placeholder = `There is no data about this community yet.
Before writing a promotional post, ask the user for the essentials:
- What is the community about?
- Which products or services does it promote?
- What tone do its posts use (formal, friendly, expert)?
- Are there examples of past posts or promotional texts?
Request only what is critical for a good post, then generate the publication right away.`

// Searcher is the slice of the retrieval index the retriever needs.
type Searcher interface {
	Search(ctx context.Context, communityID int64, query string, k int) ([]index.Result, error)
	All(ctx context.Context, communityID int64, k int) ([]index.Result, error)
}

// Retriever assembles grounding context from a community's collection.
type Retriever struct {
	searcher Searcher
	logger   *slog.Logger
}

// New creates a Retriever.
func New(searcher Searcher, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{searcher: searcher, logger: logger}
}

// Context returns the concatenated context passages for the query.
//
// The primary nearest-neighbor search runs first. When it yields nothing
// usable (no passages, or only blank ones), the deterministic fallback
// returns the first TopK passages of the collection. When even that is
// blank the fixed Placeholder is returned. Index errors are logged and
// treated as zero results; generation degrades rather than fails.
func (r *Retriever) Context(ctx context.Context, communityID int64, query string) string {
	results, err := r.searcher.Search(ctx, communityID, query, TopK)
	if err != nil {
		r.logger.Error("retrieval search failed, degrading to fallback",
			"community_id", communityID, "error", err)
		results = nil
	}

	if allBlank(results) {
		r.logger.Warn("no usable passages for query, using fallback",
			"community_id", communityID, "query", query)
		results, err = r.searcher.All(ctx, communityID, TopK)
		if err != nil {
			r.logger.Error("retrieval fallback failed",
				"community_id", communityID, "error", err)
			results = nil
		}
	}

	var passages []string
	for _, res := range results {
		if text := strings.TrimSpace(res.Document.Content); text != "" {
			passages = append(passages, text)
		}
	}

	joined := strings.Join(passages, "\n\n")
	if strings.TrimSpace(joined) == "" {
		return Placeholder
	}
	return joined
}

func allBlank(results []index.Result) bool {
	for _, res := range results {
		if strings.TrimSpace(res.Document.Content) != "" {
			return false
		}
	}
	return true
}
