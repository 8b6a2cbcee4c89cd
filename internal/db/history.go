package db

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"document-chat/internal/models"
)

type ChatHistory struct {
	bun.BaseModel `bun:"table:chat_history,alias:ch"`
	ID            int64     `bun:"id,pk,autoincrement"`
	UserQuery     string    `bun:"user_query,type:text"`
	BotResponse   string    `bun:"bot_response,type:text"`
	CreatedAt     time.Time `bun:"created_at,notnull"`
}

// HistoryStore is an append-only log of chat exchanges.
type HistoryStore struct {
	db *bun.DB
}

func NewHistoryStore(db *bun.DB) *HistoryStore {
	return &HistoryStore{db: db}
}

// Append writes one row. Each call is a single insert on its own pooled
// connection.
func (s *HistoryStore) Append(ctx context.Context, query, response string) error {
	row := &ChatHistory{
		UserQuery:   query,
		BotResponse: response,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("insert chat history: %w", err)
	}
	return nil
}

// ListAll returns every exchange in insertion order.
func (s *HistoryStore) ListAll(ctx context.Context) ([]models.ChatExchange, error) {
	rows, err := s.listRows(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.ChatExchange, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.ChatExchange{UserQuery: r.UserQuery, BotResponse: r.BotResponse})
	}
	return out, nil
}

// ListRows is ListAll with ids and timestamps, used by the export.
func (s *HistoryStore) ListRows(ctx context.Context) ([]ChatHistory, error) {
	return s.listRows(ctx)
}

func (s *HistoryStore) listRows(ctx context.Context) ([]ChatHistory, error) {
	var rows []ChatHistory
	err := s.db.NewSelect().
		Model(&rows).
		OrderExpr("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select chat history: %w", err)
	}
	return rows, nil
}
