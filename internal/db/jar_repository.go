package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/czaroPieczaro/sloik/internal/domain"
)

// JarRepository implements domain.JarRepository on PostgreSQL.
type JarRepository struct {
	pool *pgxpool.Pool
}

// NewJarRepository creates a new JarRepository.
func NewJarRepository(pool *pgxpool.Pool) *JarRepository {
	return &JarRepository{pool: pool}
}

// Create persists a new jar and fills in its assigned ID.
func (r *JarRepository) Create(ctx context.Context, jar *domain.Jar) error {
	query := `
		INSERT INTO jars (currency, balance, created_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	err := conn(ctx, r.pool).QueryRow(ctx, query,
		jar.Currency,
		int64(jar.Balance),
		jar.CreatedAt,
	).Scan(&jar.ID)
	if err != nil {
		return fmt.Errorf("failed to create jar: %w", err)
	}
	return nil
}

// GetByID retrieves a jar by its identifier.
func (r *JarRepository) GetByID(ctx context.Context, id int64) (*domain.Jar, error) {
	query := `
		SELECT id, currency, balance, created_at
		FROM jars
		WHERE id = $1
	`
	return r.scanJar(conn(ctx, r.pool).QueryRow(ctx, query, id))
}

// Lock acquires a row lock on the jar for the duration of the enclosing
// transaction. Uses SELECT ... FOR UPDATE; must be called within a
// transaction context.
func (r *JarRepository) Lock(ctx context.Context, id int64) (*domain.Jar, error) {
	query := `
		SELECT id, currency, balance, created_at
		FROM jars
		WHERE id = $1
		FOR UPDATE
	`
	return r.scanJar(conn(ctx, r.pool).QueryRow(ctx, query, id))
}

// UpdateBalance persists the jar's current balance.
func (r *JarRepository) UpdateBalance(ctx context.Context, jar *domain.Jar) error {
	query := `
		UPDATE jars
		SET balance = $2
		WHERE id = $1
	`

	tag, err := conn(ctx, r.pool).Exec(ctx, query, jar.ID, int64(jar.Balance))
	if err != nil {
		return fmt.Errorf("failed to update jar balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrJarNotFound
	}
	return nil
}

// Delete removes the jar; the ON DELETE CASCADE constraint removes its
// operations with it.
func (r *JarRepository) Delete(ctx context.Context, id int64) error {
	query := `
		DELETE FROM jars
		WHERE id = $1
	`

	tag, err := conn(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete jar: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrJarNotFound
	}
	return nil
}

// List returns all jars ordered by ID.
func (r *JarRepository) List(ctx context.Context) ([]*domain.Jar, error) {
	query := `
		SELECT id, currency, balance, created_at
		FROM jars
		ORDER BY id
	`
	return r.queryJars(ctx, query)
}

// ListWithOperations returns jars that have at least one recorded operation.
func (r *JarRepository) ListWithOperations(ctx context.Context) ([]*domain.Jar, error) {
	query := `
		SELECT j.id, j.currency, j.balance, j.created_at
		FROM jars j
		WHERE EXISTS (SELECT 1 FROM operations o WHERE o.jar_id = j.id)
		ORDER BY j.id
	`
	return r.queryJars(ctx, query)
}

// ListWithPositiveBalance returns jars whose balance is greater than zero.
func (r *JarRepository) ListWithPositiveBalance(ctx context.Context) ([]*domain.Jar, error) {
	query := `
		SELECT id, currency, balance, created_at
		FROM jars
		WHERE balance > 0
		ORDER BY id
	`
	return r.queryJars(ctx, query)
}

// ListTransferTargets returns jars sharing the given currency, excluding one jar.
func (r *JarRepository) ListTransferTargets(ctx context.Context, currency string, excludeID int64) ([]*domain.Jar, error) {
	query := `
		SELECT id, currency, balance, created_at
		FROM jars
		WHERE currency = $1 AND id <> $2
		ORDER BY id
	`
	return r.queryJars(ctx, query, currency, excludeID)
}

func (r *JarRepository) queryJars(ctx context.Context, query string, args ...any) ([]*domain.Jar, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jars: %w", err)
	}
	defer rows.Close()

	var jars []*domain.Jar
	for rows.Next() {
		var jar domain.Jar
		var balance int64
		if err := rows.Scan(&jar.ID, &jar.Currency, &balance, &jar.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan jar: %w", err)
		}
		jar.Balance = domain.Amount(balance)
		jars = append(jars, &jar)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list jars: %w", err)
	}
	return jars, nil
}

func (r *JarRepository) scanJar(row pgx.Row) (*domain.Jar, error) {
	var jar domain.Jar
	var balance int64
	err := row.Scan(&jar.ID, &jar.Currency, &balance, &jar.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrJarNotFound
		}
		return nil, fmt.Errorf("failed to get jar: %w", err)
	}
	jar.Balance = domain.Amount(balance)
	return &jar, nil
}
