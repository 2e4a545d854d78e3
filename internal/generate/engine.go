// Package generate composes prompts from community data and produces
// promotional text through a text-completion capability.
//
// The engine is stateless; conversation history is owned by the calling
// session layer and passed in as rendered text.
package generate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/iordanov05/AutoSMM/internal/ingest"
	"github.com/iordanov05/AutoSMM/internal/store"
)

// ErrGenerationFailed indicates the completion capability errored or
// returned an unusable response. Surfaced to the caller; never replaced
// with fabricated content.
var ErrGenerationFailed = errors.New("generation failed")

// Completer is the text-completion capability: one prompt in, one response
// out. Implementations are expected to be network-bound and slow
// (seconds-scale latency).
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ContextProvider supplies grounding context for a query. It never fails;
// degraded retrieval yields a placeholder.
type ContextProvider interface {
	Context(ctx context.Context, communityID int64, query string) string
}

// DataStore is the slice of the snapshot store the full-dataset operations
// read from.
type DataStore interface {
	Community(ctx context.Context, id int64) (*store.Community, error)
	Posts(ctx context.Context, communityID int64) ([]store.Post, error)
	Products(ctx context.Context, communityID int64) ([]store.Offer, error)
	Services(ctx context.Context, communityID int64) ([]store.Offer, error)
}

// Config carries the engine's dependencies.
type Config struct {
	Completer Completer
	Retriever ContextProvider
	Store     DataStore
	Logger    *slog.Logger

	// RateLimiter throttles completion calls. nil uses a default of
	// 2 requests/sec with a burst of 5.
	RateLimiter *rate.Limiter
}

func (cfg Config) validate() error {
	if cfg.Completer == nil {
		return errors.New("completer is required")
	}
	if cfg.Retriever == nil {
		return errors.New("retriever is required")
	}
	if cfg.Store == nil {
		return errors.New("store is required")
	}
	return nil
}

// Engine produces promotional posts, content ideas and growth plans for a
// community. Safe for concurrent use.
type Engine struct {
	completer Completer
	retriever ContextProvider
	store     DataStore
	limiter   *rate.Limiter
	logger    *slog.Logger
}

// New creates an Engine.
func New(cfg Config) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	limiter := cfg.RateLimiter
	if limiter == nil {
		limiter = rate.NewLimiter(2, 5)
	}

	return &Engine{
		completer: cfg.Completer,
		retriever: cfg.Retriever,
		store:     cfg.Store,
		limiter:   limiter,
		logger:    logger,
	}, nil
}

// ReplyToQuery answers one conversational turn, grounded in the community's
// retrieval collection. history may be empty for the first turn.
func (e *Engine) ReplyToQuery(ctx context.Context, communityID int64, query, history string) (string, error) {
	contextText := e.retriever.Context(ctx, communityID, query)

	prompt := fmt.Sprintf(replyPrompt, history, contextText, query)
	e.logger.Debug("generating reply", "community_id", communityID, "query", query)

	return e.complete(ctx, prompt)
}

// BrainstormIdeas proposes five justified content ideas with drafts. It
// reads the full dataset from the snapshot store, bypassing the retrieval
// index: ranking a top-K subset would hide posts the analysis needs.
func (e *Engine) BrainstormIdeas(ctx context.Context, communityID int64) (string, error) {
	ds, err := e.loadDataset(ctx, communityID)
	if err != nil {
		return "", err
	}

	prompt := fmt.Sprintf(ideasPrompt,
		ds.lastPostDate,
		ds.profile,
		ds.products,
		ds.services,
		ds.posts,
	)
	e.logger.Debug("generating content ideas", "community_id", communityID)

	return e.complete(ctx, prompt)
}

// GrowthPlan produces a first-person strategic audit from the full dataset.
func (e *Engine) GrowthPlan(ctx context.Context, communityID int64) (string, error) {
	ds, err := e.loadDataset(ctx, communityID)
	if err != nil {
		return "", err
	}

	prompt := fmt.Sprintf(growthPrompt,
		ds.community.Name,
		ds.community.Description,
		ds.community.SubscribersCount,
		ds.lastPostDate,
		ds.products,
		ds.services,
		ds.posts,
	)
	e.logger.Debug("generating growth plan", "community_id", communityID)

	return e.complete(ctx, prompt)
}

// complete runs one completion under the rate limiter and normalizes
// failures: transport errors and empty responses both surface as
// ErrGenerationFailed.
func (e *Engine) complete(ctx context.Context, prompt string) (string, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	text, err := e.completer.Complete(ctx, prompt)
	if err != nil {
		e.logger.Error("completion failed", "error", err)
		return "", fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		e.logger.Error("completion returned empty response")
		return "", fmt.Errorf("%w: empty response", ErrGenerationFailed)
	}
	return text, nil
}

// dataset is the formatted full view of one community.
type dataset struct {
	community    *store.Community
	profile      string
	products     string
	services     string
	posts        string
	lastPostDate string
}

func (e *Engine) loadDataset(ctx context.Context, communityID int64) (*dataset, error) {
	community, err := e.store.Community(ctx, communityID)
	if err != nil {
		return nil, err
	}
	posts, err := e.store.Posts(ctx, communityID)
	if err != nil {
		return nil, err
	}
	products, err := e.store.Products(ctx, communityID)
	if err != nil {
		return nil, err
	}
	services, err := e.store.Services(ctx, communityID)
	if err != nil {
		return nil, err
	}

	return &dataset{
		community:    community,
		profile:      ingest.DescribeCommunity(community),
		products:     ingest.DescribeOffers("Products", products),
		services:     ingest.DescribeOffers("Services", services),
		posts:        formatPostsWithEngagement(posts),
		lastPostDate: lastPostDate(posts),
	}, nil
}

// formatPostsWithEngagement renders every post with its engagement
// counters, for the full-dataset prompts.
func formatPostsWithEngagement(posts []store.Post) string {
	if len(posts) == 0 {
		return "No posts."
	}
	blocks := make([]string, len(posts))
	for i, p := range posts {
		blocks[i] = fmt.Sprintf("%s\n(likes: %d, comments: %d, reposts: %d)",
			p.Text, p.Likes, p.Comments, p.Reposts)
	}
	return strings.Join(blocks, "\n\n")
}

func lastPostDate(posts []store.Post) string {
	if len(posts) == 0 {
		return "no posts yet"
	}
	latest := posts[0].PostedAt
	for _, p := range posts[1:] {
		if p.PostedAt.After(latest) {
			latest = p.PostedAt
		}
	}
	return latest.Format(time.DateOnly)
}
