package relation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/vidhub-core/internal/activity"
	"github.com/nerrad567/vidhub-core/internal/auth"
	"github.com/nerrad567/vidhub-core/internal/infrastructure/database"
)

// SubscriptionService toggles and lists channel subscriptions.
type SubscriptionService struct {
	db      *sql.DB
	events  activity.Sink
	metrics Counter
	now     func() time.Time
}

// NewSubscriptionService creates a subscription service over db.
func NewSubscriptionService(db *sql.DB, opts Options) *SubscriptionService {
	opts = opts.withDefaults()
	return &SubscriptionService{db: db, events: opts.Events, metrics: opts.Metrics, now: time.Now}
}

// Toggle subscribes who to channelID, or unsubscribes if already subscribed.
func (s *SubscriptionService) Toggle(ctx context.Context, who *auth.Identity, channelID string) (Result[Subscription], error) {
	if err := requireIdentity(who); err != nil {
		return Result[Subscription]{}, err
	}
	if who.ID == channelID {
		return Result[Subscription]{}, ErrSelfSubscription
	}

	var res Result[Subscription]
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := accountExists(ctx, tx, channelID, ErrChannelNotFound); err != nil {
			return err
		}

		edge := Subscription{SubscriberID: who.ID, ChannelID: channelID}

		var createdAt string
		err := tx.QueryRowContext(ctx,
			`DELETE FROM subscriptions WHERE subscriber_id = ? AND channel_id = ?
			 RETURNING id, created_at`,
			who.ID, channelID).Scan(&edge.ID, &createdAt)
		switch {
		case err == nil:
			if edge.CreatedAt, err = database.ParseTime(createdAt); err != nil {
				return err
			}
			res = Result[Subscription]{State: Removed, Edge: edge}
			return nil
		case !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("removing subscription: %w", err)
		}

		edge.ID = "sub-" + uuid.NewString()
		edge.CreatedAt = s.now().UTC()
		_, err = tx.ExecContext(ctx,
			`INSERT INTO subscriptions (id, subscriber_id, channel_id, created_at) VALUES (?, ?, ?, ?)`,
			edge.ID, edge.SubscriberID, edge.ChannelID, database.FormatTime(edge.CreatedAt))
		switch {
		case database.IsUniqueViolation(err):
			return ErrConcurrentToggle
		case database.IsCheckViolation(err):
			return ErrSelfSubscription
		case err != nil:
			return fmt.Errorf("inserting subscription: %w", err)
		}
		res = Result[Subscription]{State: Created, Edge: edge}
		return nil
	})
	if err != nil {
		return Result[Subscription]{}, classify("toggling subscription", err)
	}

	s.metrics.RelationToggle("subscription", string(res.State))
	eventType := activity.SubscriptionCreated
	if res.State == Removed {
		eventType = activity.SubscriptionRemoved
	}
	record(ctx, s.events, eventType, who.ID, "channel", channelID, res.State)
	return res, nil
}

// Subscribers lists the accounts subscribed to channelID, newest first.
func (s *SubscriptionService) Subscribers(ctx context.Context, channelID string) ([]Channel, error) {
	if err := accountExists(ctx, s.db, channelID, ErrChannelNotFound); err != nil {
		return nil, classify("checking channel", err)
	}
	return s.listChannels(ctx, `
		SELECT a.id, a.username, a.full_name, a.avatar, s.created_at
		FROM subscriptions s JOIN accounts a ON a.id = s.subscriber_id
		WHERE s.channel_id = ?
		ORDER BY s.created_at DESC, s.id DESC`, channelID)
}

// SubscribedChannels lists the channels subscriberID subscribes to, newest first.
func (s *SubscriptionService) SubscribedChannels(ctx context.Context, subscriberID string) ([]Channel, error) {
	if err := accountExists(ctx, s.db, subscriberID, ErrSubscriberMissing); err != nil {
		return nil, classify("checking subscriber", err)
	}
	return s.listChannels(ctx, `
		SELECT a.id, a.username, a.full_name, a.avatar, s.created_at
		FROM subscriptions s JOIN accounts a ON a.id = s.channel_id
		WHERE s.subscriber_id = ?
		ORDER BY s.created_at DESC, s.id DESC`, subscriberID)
}

// Stats returns subscriber counts for channelID as seen by viewerID.
func (s *SubscriptionService) Stats(ctx context.Context, channelID, viewerID string) (ChannelStats, error) {
	var st ChannelStats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM subscriptions WHERE channel_id = ?),
			(SELECT COUNT(*) FROM subscriptions WHERE subscriber_id = ?),
			EXISTS (SELECT 1 FROM subscriptions WHERE channel_id = ? AND subscriber_id = ?)`,
		channelID, channelID, channelID, viewerID).Scan(&st.Subscribers, &st.SubscribedTo, &st.IsSubscribed)
	if err != nil {
		return ChannelStats{}, classify("counting subscriptions", err)
	}
	return st, nil
}

func (s *SubscriptionService) listChannels(ctx context.Context, query, id string) ([]Channel, error) {
	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, classify("querying subscriptions", err)
	}
	defer rows.Close()

	channels := []Channel{}
	for rows.Next() {
		var c Channel
		var at string
		if err := rows.Scan(&c.ID, &c.Username, &c.FullName, &c.Avatar, &at); err != nil {
			return nil, classify("scanning subscription", err)
		}
		if c.SubscribedAt, err = database.ParseTime(at); err != nil {
			return nil, classify("scanning subscription", err)
		}
		channels = append(channels, c)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("iterating subscriptions", err)
	}
	return channels, nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func accountExists(ctx context.Context, q queryRower, id string, notFound error) error {
	var exists bool
	if err := q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM accounts WHERE id = ?)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("checking account: %w", err)
	}
	if !exists {
		return notFound
	}
	return nil
}
