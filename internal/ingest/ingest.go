// Package ingest implements the save-and-reindex pipeline: one community
// snapshot in, snapshot store rows and a rebuilt retrieval collection out.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/iordanov05/AutoSMM/internal/index"
	"github.com/iordanov05/AutoSMM/internal/snapshot"
	"github.com/iordanov05/AutoSMM/internal/store"
)

// recentPostLimit bounds how many of the most recent posts make it into the
// aggregate posts passage.
const recentPostLimit = 5

// SnapshotStore is the slice of the relational store the pipeline needs.
type SnapshotStore interface {
	UpsertCommunity(ctx context.Context, c store.Community) error
	UpsertMembership(ctx context.Context, accountID, communityID int64, syncedAt time.Time) error
	ReplaceChildren(ctx context.Context, communityID int64, posts []store.Post, products, services []store.Offer) error
	Community(ctx context.Context, id int64) (*store.Community, error)
	Posts(ctx context.Context, communityID int64) ([]store.Post, error)
	Products(ctx context.Context, communityID int64) ([]store.Offer, error)
	Services(ctx context.Context, communityID int64) ([]store.Offer, error)
}

// RetrievalIndex rebuilds a community's retrieval collection.
type RetrievalIndex interface {
	Rebuild(ctx context.Context, communityID int64, docs []index.Document) error
}

// Summary echoes the persisted community state back to the caller.
type Summary struct {
	CommunityID      int64     `json:"community_id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	Category         string    `json:"category"`
	SubscribersCount int       `json:"subscribers_count"`
	LastSyncedAt     time.Time `json:"last_synced_at"`
}

// Pipeline ingests snapshots. Safe for concurrent use; ingestions of the
// same community are serialized by a per-community lock so their
// delete/insert and reindex steps cannot interleave.
type Pipeline struct {
	store  SnapshotStore
	index  RetrievalIndex
	logger *slog.Logger

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// New creates a Pipeline.
func New(st SnapshotStore, ix RetrievalIndex, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		store:  st,
		index:  ix,
		logger: logger,
		locks:  make(map[int64]*sync.Mutex),
	}
}

// Ingest validates the snapshot, upserts the community and membership rows,
// replaces the community's child rows, and rebuilds its retrieval
// collection from the freshly committed rows.
//
// Each persistence step commits on its own, so a crash mid-pipeline leaves
// the store at a well-defined boundary. The retrieval documents are derived
// from rows re-read out of the store rather than from the input snapshot,
// which guarantees the index reflects committed state.
func (p *Pipeline) Ingest(ctx context.Context, accountID int64, snap snapshot.Snapshot) (*Summary, error) {
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	snap.Normalize()

	communityID := snap.Community.ID

	// Captured once and reused for the membership row and the summary, so
	// both report the same instant.
	startedAt := time.Now().UTC()

	lock := p.lockFor(communityID)
	lock.Lock()
	defer lock.Unlock()

	if err := p.store.UpsertCommunity(ctx, store.Community{
		ID:               communityID,
		Name:             snap.Community.Name,
		Description:      snap.Community.Description,
		Category:         snap.Community.Category,
		SubscribersCount: snap.Community.SubscribersCount,
	}); err != nil {
		return nil, err
	}

	if err := p.store.UpsertMembership(ctx, accountID, communityID, startedAt); err != nil {
		return nil, err
	}

	posts := make([]store.Post, len(snap.Posts))
	for i, post := range snap.Posts {
		var postedAt time.Time
		if post.Date > 0 {
			postedAt = time.Unix(post.Date, 0).UTC()
		}
		posts[i] = store.Post{
			CommunityID: communityID,
			Text:        post.Text,
			PostedAt:    postedAt,
			Likes:       post.Likes,
			Comments:    post.Comments,
			Reposts:     post.Reposts,
		}
	}
	if err := p.store.ReplaceChildren(ctx, communityID, posts,
		toStoreOffers(communityID, snap.Products),
		toStoreOffers(communityID, snap.Services),
	); err != nil {
		return nil, err
	}

	docs, community, err := p.deriveDocuments(ctx, communityID)
	if err != nil {
		return nil, err
	}

	if err := p.index.Rebuild(ctx, communityID, docs); err != nil {
		return nil, fmt.Errorf("rebuilding retrieval collection: %w", err)
	}

	p.logger.Info("ingested community snapshot",
		"community_id", communityID,
		"account_id", accountID,
		"posts", len(snap.Posts),
		"products", len(snap.Products),
		"services", len(snap.Services))

	return &Summary{
		CommunityID:      community.ID,
		Name:             community.Name,
		Description:      community.Description,
		Category:         community.Category,
		SubscribersCount: community.SubscribersCount,
		LastSyncedAt:     startedAt,
	}, nil
}

// deriveDocuments re-reads the committed rows and renders the retrieval
// passages: one description passage, one products passage, one services
// passage, and one aggregate passage with the most recent posts.
func (p *Pipeline) deriveDocuments(ctx context.Context, communityID int64) ([]index.Document, *store.Community, error) {
	community, err := p.store.Community(ctx, communityID)
	if err != nil {
		return nil, nil, err
	}
	posts, err := p.store.Posts(ctx, communityID)
	if err != nil {
		return nil, nil, err
	}
	products, err := p.store.Products(ctx, communityID)
	if err != nil {
		return nil, nil, err
	}
	services, err := p.store.Services(ctx, communityID)
	if err != nil {
		return nil, nil, err
	}

	docs := []index.Document{
		{
			CommunityID: communityID,
			Type:        index.TypeDescription,
			Content:     DescribeCommunity(community),
		},
		{
			CommunityID: communityID,
			Type:        index.TypeProducts,
			Content:     DescribeOffers("Products", products),
		},
		{
			CommunityID: communityID,
			Type:        index.TypeServices,
			Content:     DescribeOffers("Services", services),
		},
		{
			CommunityID: communityID,
			Type:        index.TypePosts,
			Content:     DescribeRecentPosts(posts),
		},
	}
	return docs, community, nil
}

// DescribeCommunity renders the community profile passage.
func DescribeCommunity(c *store.Community) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Community name: %s\n", c.Name)
	fmt.Fprintf(&b, "Description: %s\n", c.Description)
	if c.Category != "" {
		fmt.Fprintf(&b, "Category: %s\n", c.Category)
	}
	fmt.Fprintf(&b, "Subscribers: %d", c.SubscribersCount)
	return b.String()
}

// DescribeOffers renders the products or services passage.
func DescribeOffers(label string, offers []store.Offer) string {
	if len(offers) == 0 {
		return "No " + strings.ToLower(label) + "."
	}
	lines := make([]string, len(offers))
	for i, o := range offers {
		lines[i] = fmt.Sprintf("%s - %s (price: %s)", o.Name, o.Description, o.Price)
	}
	return label + ":\n" + strings.Join(lines, "\n")
}

// DescribeRecentPosts renders the aggregate passage with the most recent
// posts, bounded to recentPostLimit.
func DescribeRecentPosts(posts []store.Post) string {
	if len(posts) == 0 {
		return "No posts."
	}
	recent := posts
	if len(recent) > recentPostLimit {
		recent = recent[len(recent)-recentPostLimit:]
	}
	texts := make([]string, len(recent))
	for i, p := range recent {
		texts[i] = p.Text
	}
	return "Sample posts:\n" + strings.Join(texts, "\n\n")
}

func toStoreOffers(communityID int64, offers []snapshot.Offer) []store.Offer {
	out := make([]store.Offer, len(offers))
	for i, o := range offers {
		out[i] = store.Offer{
			CommunityID: communityID,
			Name:        o.Name,
			Description: o.Description,
			Price:       o.Price,
		}
	}
	return out
}

func (p *Pipeline) lockFor(communityID int64) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	lock, ok := p.locks[communityID]
	if !ok {
		lock = &sync.Mutex{}
		p.locks[communityID] = lock
	}
	return lock
}
