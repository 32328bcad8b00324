package leads

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresSink records leads in the leads table.
type PostgresSink struct {
	db *sql.DB
}

func NewPostgresSink(db *sql.DB) *PostgresSink {
	return &PostgresSink{db: db}
}

func (s *PostgresSink) Send(ctx context.Context, lead Lead) error {
	query := `
		INSERT INTO leads (
			created_at, source, name, email, phone,
			portfolio_description, ip, user_agent, referer
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.db.ExecContext(ctx, query,
		lead.Timestamp,
		lead.Source,
		lead.Name,
		lead.Email,
		lead.Phone,
		lead.PortfolioDescription,
		lead.Meta.IP,
		lead.Meta.UserAgent,
		lead.Meta.Referer,
	)
	if err != nil {
		return fmt.Errorf("failed to insert lead: %w", err)
	}
	return nil
}
