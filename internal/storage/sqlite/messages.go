package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sandevgo/shopmind/internal/core"
)

type MessagesRepo struct {
	db *sql.DB
}

func NewMessagesRepo(db *sql.DB) *MessagesRepo {
	return &MessagesRepo{db: db}
}

func (r *MessagesRepo) AddMessage(ctx context.Context, threadID string, msg core.Message) error {
	query := `INSERT INTO messages (thread_id, role, content) VALUES (?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, threadID, msg.Role, msg.Content); err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// GetMessages returns the last 'limit' messages of a thread in chronological
// order.
func (r *MessagesRepo) GetMessages(ctx context.Context, threadID string, limit int) ([]core.Message, error) {
	query := `SELECT role, content FROM messages WHERE thread_id = ? ORDER BY id DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, threadID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []core.Message
	for rows.Next() {
		var msg core.Message
		var content sql.NullString

		if err := rows.Scan(&msg.Role, &content); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msg.Content = content.String
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	// DESC gave newest-first; flip back to conversation order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
