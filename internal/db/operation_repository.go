package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/czaroPieczaro/sloik/internal/domain"
)

// OperationRepository implements domain.OperationRepository on PostgreSQL.
// Operations are insert-only: the ledger is immutable, rows disappear only
// through the jar's cascade delete.
type OperationRepository struct {
	pool *pgxpool.Pool
}

// NewOperationRepository creates a new OperationRepository.
func NewOperationRepository(pool *pgxpool.Pool) *OperationRepository {
	return &OperationRepository{pool: pool}
}

// Create persists a new operation and fills in its assigned ID.
func (r *OperationRepository) Create(ctx context.Context, op *domain.Operation) error {
	query := `
		INSERT INTO operations (jar_id, value, title, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := conn(ctx, r.pool).QueryRow(ctx, query,
		op.JarID,
		int64(op.Value),
		op.Title,
		op.CreatedAt,
	).Scan(&op.ID)
	if err != nil {
		return fmt.Errorf("failed to create operation: %w", err)
	}
	return nil
}

// ListAll returns every operation, oldest first.
func (r *OperationRepository) ListAll(ctx context.Context) ([]*domain.Operation, error) {
	query := `
		SELECT id, jar_id, value, title, created_at
		FROM operations
		ORDER BY created_at, id
	`

	rows, err := conn(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list operations: %w", err)
	}
	return scanOperations(rows)
}

// ListByJar returns the operations owned by one jar, oldest first.
func (r *OperationRepository) ListByJar(ctx context.Context, jarID int64) ([]*domain.Operation, error) {
	query := `
		SELECT id, jar_id, value, title, created_at
		FROM operations
		WHERE jar_id = $1
		ORDER BY created_at, id
	`

	rows, err := conn(ctx, r.pool).Query(ctx, query, jarID)
	if err != nil {
		return nil, fmt.Errorf("failed to list operations: %w", err)
	}
	return scanOperations(rows)
}

func scanOperations(rows pgx.Rows) ([]*domain.Operation, error) {
	defer rows.Close()

	var ops []*domain.Operation
	for rows.Next() {
		var op domain.Operation
		var value int64
		if err := rows.Scan(&op.ID, &op.JarID, &value, &op.Title, &op.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan operation: %w", err)
		}
		op.Value = domain.Amount(value)
		ops = append(ops, &op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list operations: %w", err)
	}
	return ops, nil
}
