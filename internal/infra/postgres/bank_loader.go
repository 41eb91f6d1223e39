package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"quizify-engine/internal/domain"
)

// BankLoader reads the operator-managed fallback question bank from
// Postgres. When configured it overrides the bundled bank.
type BankLoader struct {
	pool *pgxpool.Pool
}

func NewBankLoader(pool *pgxpool.Pool) *BankLoader {
	return &BankLoader{pool: pool}
}

// LoadBank returns all bank questions in insertion order.
func (l *BankLoader) LoadBank(ctx context.Context) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx, `SELECT data FROM bank_questions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load question bank: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan bank question: %w", err)
		}
		var q domain.Question
		if err := json.Unmarshal(raw, &q); err != nil {
			return nil, fmt.Errorf("unmarshal bank question: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// SeedBank inserts questions into the bank table.
func (l *BankLoader) SeedBank(ctx context.Context, questions []domain.Question) error {
	for _, q := range questions {
		raw, err := json.Marshal(q)
		if err != nil {
			return err
		}
		if _, err := l.pool.Exec(ctx, `INSERT INTO bank_questions (data) VALUES ($1)`, raw); err != nil {
			return fmt.Errorf("seed bank question: %w", err)
		}
	}
	return nil
}
