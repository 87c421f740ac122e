package chatlog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"arcadelive/internal/app/db"
	"arcadelive/internal/pkg/errs"
)

// Repository is the PostgreSQL Store.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a Repository using pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const listQuery = `
SELECT id, stream_id, user_id, message, emotes, created_at
FROM chat_messages
WHERE stream_id = $1 AND NOT is_deleted AND ($2::bigint = 0 OR id < $2)
ORDER BY created_at DESC, id DESC
LIMIT $3`

// List implements Store.
func (r *Repository) List(ctx context.Context, streamID int64, limit int, before int64) ([]Message, error) {
	rows, err := r.pool.Query(ctx, listQuery, streamID, before, limit)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}

	msgs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Message, error) {
		return scanMessage(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan chat messages: %w", err)
	}
	return msgs, nil
}

const insertQuery = `
INSERT INTO chat_messages (stream_id, user_id, message, emotes)
VALUES ($1, $2, $3, $4)
RETURNING id, stream_id, user_id, message, emotes, created_at`

// Insert implements Store.
func (r *Repository) Insert(ctx context.Context, streamID int64, userID, message string, emotes json.RawMessage) (Message, error) {
	row := r.pool.QueryRow(ctx, insertQuery, streamID, userID, message, string(emotes))

	msg, err := scanMessage(row)
	if err != nil {
		if db.IsCheckViolation(err) {
			return Message{}, errs.NewError(errs.ErrMessageTooLong, MaxMessageLength)
		}
		return Message{}, fmt.Errorf("insert chat message: %w", err)
	}
	return msg, nil
}

const softDeleteQuery = `
UPDATE chat_messages cm
SET is_deleted = true
WHERE cm.id = $1 AND cm.stream_id = $2
  AND (cm.user_id = $3 OR EXISTS (
    SELECT 1 FROM live_streams ls WHERE ls.id = $2 AND ls.user_id = $3
  ))
RETURNING cm.id`

// SoftDelete implements Store.
func (r *Repository) SoftDelete(ctx context.Context, streamID, messageID int64, userID string) (bool, error) {
	var id int64
	err := r.pool.QueryRow(ctx, softDeleteQuery, messageID, streamID, userID).Scan(&id)
	if db.IsNoRows(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("delete chat message: %w", err)
	}
	return true, nil
}

func scanMessage(row pgx.Row) (Message, error) {
	var (
		msg    Message
		emotes []byte
	)
	if err := row.Scan(&msg.ID, &msg.StreamID, &msg.UserID, &msg.Message, &emotes, &msg.CreatedAt); err != nil {
		return Message{}, err
	}
	msg.Emotes = json.RawMessage(emotes)
	return msg, nil
}
