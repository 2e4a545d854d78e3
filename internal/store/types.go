package store

import "time"

// Community is one tracked community profile row.
type Community struct {
	ID               int64
	Name             string
	Description      string
	Category         string
	SubscribersCount int
}

// Post is one persisted publication belonging to a community.
type Post struct {
	ID          int64
	CommunityID int64
	Text        string
	PostedAt    time.Time
	Likes       int
	Comments    int
	Reposts     int
}

// Offer is a persisted product or service row. The two live in separate
// tables but share a shape.
type Offer struct {
	ID          int64
	CommunityID int64
	Name        string
	Description string
	Price       string
}

// Membership links an account to a community it has synced.
type Membership struct {
	AccountID    int64
	CommunityID  int64
	LastSyncedAt time.Time
}

// SyncedCommunity is a community joined with the account's membership row,
// as returned by ListMemberships.
type SyncedCommunity struct {
	Community
	LastSyncedAt time.Time
}
