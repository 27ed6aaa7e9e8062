package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"catalog-rest-api/internal/model"
)

// MySQLAccountRepository implements AccountRepository using MySQL.
type MySQLAccountRepository struct {
	db *sql.DB
}

// NewMySQLAccountRepository creates a new MySQL account repository.
func NewMySQLAccountRepository(db *sql.DB) *MySQLAccountRepository {
	return &MySQLAccountRepository{db: db}
}

// ValidateCredentials validates an api_key+client_id pair for token generation.
// Returns account details if valid, error otherwise.
func (r *MySQLAccountRepository) ValidateCredentials(ctx context.Context, apiKey, clientID string) (*model.AccountValidation, error) {
	log.Printf("[AccountRepository] Validating credentials for client_id=%s", clientID)

	query := `
		SELECT id, client_id, email, status
		FROM accounts
		WHERE api_key = ?
		  AND client_id = ?
		  AND LOWER(status) = 'active'
		LIMIT 1`

	var result model.AccountValidation
	err := r.db.QueryRowContext(ctx, query, apiKey, clientID).Scan(
		&result.AccountID,
		&result.ClientID,
		&result.Email,
		&result.Status,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("invalid credentials or account not found")
		}
		return nil, fmt.Errorf("failed to validate credentials: %w", err)
	}

	return &result, nil
}

// Ensure MySQLAccountRepository implements AccountRepository
var _ AccountRepository = (*MySQLAccountRepository)(nil)
