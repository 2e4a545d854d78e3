package ingest

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iordanov05/AutoSMM/internal/index"
	"github.com/iordanov05/AutoSMM/internal/log"
	"github.com/iordanov05/AutoSMM/internal/snapshot"
	"github.com/iordanov05/AutoSMM/internal/store"
)

// fakeStore is an in-memory SnapshotStore recording the call sequence.
type fakeStore struct {
	mu          sync.Mutex
	calls       []string
	communities map[int64]store.Community
	memberships map[[2]int64]time.Time
	posts       map[int64][]store.Post
	products    map[int64][]store.Offer
	services    map[int64][]store.Offer
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		communities: make(map[int64]store.Community),
		memberships: make(map[[2]int64]time.Time),
		posts:       make(map[int64][]store.Post),
		products:    make(map[int64][]store.Offer),
		services:    make(map[int64][]store.Offer),
	}
}

func (f *fakeStore) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeStore) UpsertCommunity(_ context.Context, c store.Community) error {
	f.record("UpsertCommunity")
	f.communities[c.ID] = c
	return nil
}

func (f *fakeStore) UpsertMembership(_ context.Context, accountID, communityID int64, syncedAt time.Time) error {
	f.record("UpsertMembership")
	f.memberships[[2]int64{accountID, communityID}] = syncedAt
	return nil
}

func (f *fakeStore) ReplaceChildren(_ context.Context, communityID int64, posts []store.Post, products, services []store.Offer) error {
	f.record("ReplaceChildren")
	f.posts[communityID] = posts
	f.products[communityID] = products
	f.services[communityID] = services
	return nil
}

func (f *fakeStore) Community(_ context.Context, id int64) (*store.Community, error) {
	f.record("Community")
	c, ok := f.communities[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &c, nil
}

func (f *fakeStore) Posts(_ context.Context, id int64) ([]store.Post, error) {
	f.record("Posts")
	return f.posts[id], nil
}

func (f *fakeStore) Products(_ context.Context, id int64) ([]store.Offer, error) {
	f.record("Products")
	return f.products[id], nil
}

func (f *fakeStore) Services(_ context.Context, id int64) ([]store.Offer, error) {
	f.record("Services")
	return f.services[id], nil
}

// fakeIndex records rebuilds per community.
type fakeIndex struct {
	mu       sync.Mutex
	rebuilds map[int64][][]index.Document
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{rebuilds: make(map[int64][][]index.Document)}
}

func (f *fakeIndex) Rebuild(_ context.Context, communityID int64, docs []index.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rebuilds[communityID] = append(f.rebuilds[communityID], docs)
	return nil
}

func (f *fakeIndex) last(communityID int64) []index.Document {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := f.rebuilds[communityID]
	if len(all) == 0 {
		return nil
	}
	return all[len(all)-1]
}

func bakerySnapshot() snapshot.Snapshot {
	return snapshot.Snapshot{
		Community: snapshot.Community{
			ID:               42,
			Name:             "Acme Bakery",
			Description:      "Fresh bread daily",
			SubscribersCount: 100,
		},
		Posts:    []snapshot.Post{{Text: "New sourdough today!", Likes: 10, Comments: 2, Reposts: 1}},
		Products: []snapshot.Offer{{Name: "Sourdough Loaf", Description: "Classic", Price: "150"}},
	}
}

func TestIngestPersistsAndReindexes(t *testing.T) {
	st := newFakeStore()
	ix := newFakeIndex()
	p := New(st, ix, log.NewNop())

	summary, err := p.Ingest(context.Background(), 7, bakerySnapshot())
	require.NoError(t, err)

	assert.Equal(t, int64(42), summary.CommunityID)
	assert.Equal(t, "Acme Bakery", summary.Name)
	assert.Equal(t, 100, summary.SubscribersCount)

	// Membership carries the same timestamp the summary reports.
	assert.Equal(t, summary.LastSyncedAt, st.memberships[[2]int64{7, 42}])

	require.Len(t, st.posts[42], 1)
	require.Len(t, st.products[42], 1)

	docs := ix.last(42)
	require.Len(t, docs, 4)

	byType := make(map[string]string)
	for _, d := range docs {
		byType[d.Type] = d.Content
		assert.Equal(t, int64(42), d.CommunityID)
	}
	assert.Contains(t, byType[index.TypeDescription], "Acme Bakery")
	assert.Contains(t, byType[index.TypeProducts], "Sourdough Loaf")
	assert.Contains(t, byType[index.TypePosts], "New sourdough today!")
	assert.Equal(t, "No services.", byType[index.TypeServices])
}

func TestIngestStepOrder(t *testing.T) {
	st := newFakeStore()
	p := New(st, newFakeIndex(), log.NewNop())

	_, err := p.Ingest(context.Background(), 7, bakerySnapshot())
	require.NoError(t, err)

	// Children are replaced before the re-read that feeds the index.
	require.GreaterOrEqual(t, len(st.calls), 4)
	assert.Equal(t, []string{"UpsertCommunity", "UpsertMembership", "ReplaceChildren"}, st.calls[:3])
	assert.Contains(t, st.calls[3:], "Community")
	assert.Contains(t, st.calls[3:], "Posts")
}

func TestIngestRejectsMissingIdentifier(t *testing.T) {
	st := newFakeStore()
	p := New(st, newFakeIndex(), log.NewNop())

	snap := bakerySnapshot()
	snap.Community.ID = 0

	_, err := p.Ingest(context.Background(), 7, snap)
	assert.ErrorIs(t, err, snapshot.ErrMissingIdentifier)
	assert.Empty(t, st.calls, "nothing may be written for an invalid snapshot")
}

func TestIngestDocumentsComeFromStoreNotInput(t *testing.T) {
	st := newFakeStore()
	ix := newFakeIndex()
	p := New(st, ix, log.NewNop())

	// First ingest establishes state; a second snapshot drops the product.
	_, err := p.Ingest(context.Background(), 7, bakerySnapshot())
	require.NoError(t, err)

	snapB := bakerySnapshot()
	snapB.Posts = []snapshot.Post{{Text: "Closed for holidays"}}
	snapB.Products = nil
	_, err = p.Ingest(context.Background(), 7, snapB)
	require.NoError(t, err)

	docs := ix.last(42)
	joined := ""
	for _, d := range docs {
		joined += d.Content + "\n"
	}
	assert.NotContains(t, joined, "New sourdough today!", "stale post must not survive reindex")
	assert.NotContains(t, joined, "Sourdough Loaf", "stale product must not survive reindex")
	assert.Contains(t, joined, "Closed for holidays")
}

func TestIngestIdempotentForCommunityAndMembership(t *testing.T) {
	st := newFakeStore()
	p := New(st, newFakeIndex(), log.NewNop())

	_, err := p.Ingest(context.Background(), 7, bakerySnapshot())
	require.NoError(t, err)
	first := st.communities[42]

	_, err = p.Ingest(context.Background(), 7, bakerySnapshot())
	require.NoError(t, err)

	assert.Equal(t, first, st.communities[42])
	assert.Len(t, st.communities, 1)
	assert.Len(t, st.memberships, 1)
}

func TestIngestMapsPostDates(t *testing.T) {
	st := newFakeStore()
	p := New(st, newFakeIndex(), log.NewNop())

	snap := bakerySnapshot()
	snap.Posts[0].Date = 1755680400 // 2025-08-20T09:00:00Z

	_, err := p.Ingest(context.Background(), 7, snap)
	require.NoError(t, err)

	require.Len(t, st.posts[42], 1)
	assert.Equal(t, time.Unix(1755680400, 0).UTC(), st.posts[42][0].PostedAt)
}

func TestIngestLeavesUndatedPostsZero(t *testing.T) {
	st := newFakeStore()
	p := New(st, newFakeIndex(), log.NewNop())

	_, err := p.Ingest(context.Background(), 7, bakerySnapshot())
	require.NoError(t, err)

	assert.True(t, st.posts[42][0].PostedAt.IsZero(),
		"store applies the insertion-time default, not the pipeline")
}

func TestDescribeRecentPostsBounded(t *testing.T) {
	var posts []store.Post
	for _, text := range []string{"one", "two", "three", "four", "five", "six", "seven"} {
		posts = append(posts, store.Post{Text: text})
	}

	out := DescribeRecentPosts(posts)
	assert.NotContains(t, out, "one")
	assert.NotContains(t, out, "two")
	for _, text := range []string{"three", "four", "five", "six", "seven"} {
		assert.Contains(t, out, text)
	}
}

func TestDescribeOffersEmpty(t *testing.T) {
	assert.Equal(t, "No products.", DescribeOffers("Products", nil))
	out := DescribeOffers("Services", []store.Offer{{Name: "Delivery", Description: "Same day", Price: "200"}})
	assert.True(t, strings.HasPrefix(out, "Services:\n"), "out = %q", out)
	assert.Contains(t, out, "Delivery - Same day (price: 200)")
}

func TestIngestWhitespaceAndPriceDefaults(t *testing.T) {
	st := newFakeStore()
	p := New(st, newFakeIndex(), log.NewNop())

	snap := bakerySnapshot()
	snap.Posts[0].Text = "  padded  "
	snap.Products[0].Price = ""

	_, err := p.Ingest(context.Background(), 7, snap)
	require.NoError(t, err)

	assert.Equal(t, "padded", st.posts[42][0].Text)
	assert.Equal(t, snapshot.PriceNotSpecified, st.products[42][0].Price)
}
