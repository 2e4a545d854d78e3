// Package store implements relational persistence for communities and their
// posts, products, services and account memberships.
//
// Communities are never deleted directly by callers; a community disappears
// only when its last membership is removed (see RemoveMembership).
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates a referenced community or membership is absent.
var ErrNotFound = errors.New("not found")

// Store manages the snapshot tables. It is safe for concurrent use.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// New creates a Store backed by the given connection pool.
func New(pool *pgxpool.Pool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}
}

// UpsertCommunity creates the community row or overwrites its profile
// attributes when the id is already known.
func (s *Store) UpsertCommunity(ctx context.Context, c Community) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO communities (id, name, description, category, subscribers_count)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			subscribers_count = EXCLUDED.subscribers_count`,
		c.ID, c.Name, c.Description, c.Category, c.SubscribersCount,
	)
	if err != nil {
		return fmt.Errorf("upserting community %d: %w", c.ID, err)
	}
	return nil
}

// Community retrieves one community by id.
func (s *Store) Community(ctx context.Context, id int64) (*Community, error) {
	var c Community
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, description, category, subscribers_count
		FROM communities WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.Description, &c.Category, &c.SubscribersCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("community %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying community %d: %w", id, err)
	}
	return &c, nil
}

// ReplaceChildren deletes all existing posts, products and services of the
// community and inserts the given rows, in one transaction. Prior child rows
// are disposable cache, not history: engagement counters always reflect the
// latest snapshot.
func (s *Store) ReplaceChildren(ctx context.Context, communityID int64, posts []Post, products, services []Offer) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, table := range []string{"posts", "products", "services"} {
		if _, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE community_id = $1", table), communityID); err != nil {
			return fmt.Errorf("clearing %s for community %d: %w", table, communityID, err)
		}
	}

	for _, p := range posts {
		postedAt := p.PostedAt
		if postedAt.IsZero() {
			postedAt = time.Now().UTC()
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO posts (community_id, text, posted_at, likes, comments, reposts)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			communityID, p.Text, postedAt, p.Likes, p.Comments, p.Reposts,
		); err != nil {
			return fmt.Errorf("inserting post: %w", err)
		}
	}

	if err := insertOffers(ctx, tx, "products", communityID, products); err != nil {
		return err
	}
	if err := insertOffers(ctx, tx, "services", communityID, services); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing children replacement: %w", err)
	}

	s.logger.Debug("replaced community children",
		"community_id", communityID,
		"posts", len(posts),
		"products", len(products),
		"services", len(services))
	return nil
}

func insertOffers(ctx context.Context, tx pgx.Tx, table string, communityID int64, offers []Offer) error {
	for _, o := range offers {
		if _, err := tx.Exec(ctx, fmt.Sprintf(`
			INSERT INTO %s (community_id, name, description, price)
			VALUES ($1, $2, $3, $4)`, table),
			communityID, o.Name, o.Description, o.Price,
		); err != nil {
			return fmt.Errorf("inserting into %s: %w", table, err)
		}
	}
	return nil
}

// Posts returns the community's posts, oldest first.
func (s *Store) Posts(ctx context.Context, communityID int64) ([]Post, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, community_id, text, posted_at, likes, comments, reposts
		FROM posts WHERE community_id = $1 ORDER BY id`, communityID)
	if err != nil {
		return nil, fmt.Errorf("querying posts for community %d: %w", communityID, err)
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.ID, &p.CommunityID, &p.Text, &p.PostedAt, &p.Likes, &p.Comments, &p.Reposts); err != nil {
			return nil, fmt.Errorf("scanning post: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// Products returns the community's products in insertion order.
func (s *Store) Products(ctx context.Context, communityID int64) ([]Offer, error) {
	return s.offers(ctx, "products", communityID)
}

// Services returns the community's services in insertion order.
func (s *Store) Services(ctx context.Context, communityID int64) ([]Offer, error) {
	return s.offers(ctx, "services", communityID)
}

func (s *Store) offers(ctx context.Context, table string, communityID int64) ([]Offer, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT id, community_id, name, description, price
		FROM %s WHERE community_id = $1 ORDER BY id`, table), communityID)
	if err != nil {
		return nil, fmt.Errorf("querying %s for community %d: %w", table, communityID, err)
	}
	defer rows.Close()

	var offers []Offer
	for rows.Next() {
		var o Offer
		if err := rows.Scan(&o.ID, &o.CommunityID, &o.Name, &o.Description, &o.Price); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", table, err)
		}
		offers = append(offers, o)
	}
	return offers, rows.Err()
}

// UpsertMembership creates or refreshes the (account, community) link,
// setting the last-synced timestamp.
func (s *Store) UpsertMembership(ctx context.Context, accountID, communityID int64, syncedAt time.Time) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO memberships (account_id, community_id, last_synced_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (account_id, community_id) DO UPDATE SET
			last_synced_at = EXCLUDED.last_synced_at`,
		accountID, communityID, syncedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting membership (%d, %d): %w", accountID, communityID, err)
	}
	return nil
}

// RemoveMembership deletes the (account, community) link and then reconciles
// orphaned communities: once the delete has committed, remaining memberships
// are counted and the community (with all its children, via cascade) is
// removed when none are left.
//
// The reconciliation is an explicit second step, not a trigger, so it can be
// tested in isolation and its cost is visible at the call site.
func (s *Store) RemoveMembership(ctx context.Context, accountID, communityID int64) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM memberships WHERE account_id = $1 AND community_id = $2`,
		accountID, communityID)
	if err != nil {
		return fmt.Errorf("deleting membership (%d, %d): %w", accountID, communityID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("membership (%d, %d): %w", accountID, communityID, ErrNotFound)
	}

	var remaining int64
	if err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM memberships WHERE community_id = $1`, communityID,
	).Scan(&remaining); err != nil {
		return fmt.Errorf("counting memberships for community %d: %w", communityID, err)
	}
	if remaining > 0 {
		return nil
	}

	if _, err := s.pool.Exec(ctx, `DELETE FROM communities WHERE id = $1`, communityID); err != nil {
		return fmt.Errorf("deleting orphaned community %d: %w", communityID, err)
	}
	s.logger.Info("removed orphaned community", "community_id", communityID)
	return nil
}

// ListMemberships returns the communities the account has synced, with their
// last-synced timestamps, most recently synced first.
func (s *Store) ListMemberships(ctx context.Context, accountID int64) ([]SyncedCommunity, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT c.id, c.name, c.description, c.category, c.subscribers_count, m.last_synced_at
		FROM memberships m
		JOIN communities c ON c.id = m.community_id
		WHERE m.account_id = $1
		ORDER BY m.last_synced_at DESC`, accountID)
	if err != nil {
		return nil, fmt.Errorf("querying memberships for account %d: %w", accountID, err)
	}
	defer rows.Close()

	var synced []SyncedCommunity
	for rows.Next() {
		var sc SyncedCommunity
		if err := rows.Scan(&sc.ID, &sc.Name, &sc.Description, &sc.Category, &sc.SubscribersCount, &sc.LastSyncedAt); err != nil {
			return nil, fmt.Errorf("scanning membership row: %w", err)
		}
		synced = append(synced, sc)
	}
	return synced, rows.Err()
}

// NextVirtualID reserves the next identifier for a virtual community: one
// below the smallest negative id in use, or -1 when there is none.
func (s *Store) NextVirtualID(ctx context.Context) (int64, error) {
	var minID *int64
	if err := s.pool.QueryRow(ctx, `
		SELECT MIN(id) FROM communities WHERE id < 0`,
	).Scan(&minID); err != nil {
		return 0, fmt.Errorf("querying minimum virtual id: %w", err)
	}
	if minID == nil {
		return -1, nil
	}
	return *minID - 1, nil
}
