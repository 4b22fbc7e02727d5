package domain

import "context"

// JarRepository defines the interface for jar data access operations.
type JarRepository interface {
	// Create persists a new jar and assigns its ID.
	Create(ctx context.Context, jar *Jar) error

	// GetByID retrieves a jar by its identifier.
	// Returns ErrJarNotFound if the jar doesn't exist.
	GetByID(ctx context.Context, id int64) (*Jar, error)

	// Lock acquires a row lock on the jar for the duration of the enclosing
	// transaction and returns its current state. Must be called within a
	// transaction context.
	Lock(ctx context.Context, id int64) (*Jar, error)

	// UpdateBalance persists the jar's current balance.
	UpdateBalance(ctx context.Context, jar *Jar) error

	// Delete removes the jar; its operations go with it (cascade).
	// Returns ErrJarNotFound if the jar doesn't exist.
	Delete(ctx context.Context, id int64) error

	// List returns all jars ordered by ID.
	List(ctx context.Context) ([]*Jar, error)

	// ListWithOperations returns jars that have at least one recorded operation.
	ListWithOperations(ctx context.Context) ([]*Jar, error)

	// ListWithPositiveBalance returns jars whose balance is greater than zero.
	ListWithPositiveBalance(ctx context.Context) ([]*Jar, error)

	// ListTransferTargets returns jars sharing the given currency, excluding
	// the jar with excludeID.
	ListTransferTargets(ctx context.Context, currency string, excludeID int64) ([]*Jar, error)
}

// OperationRepository defines the interface for ledger entry data access.
// Operations are insert-only; there is deliberately no update or delete.
type OperationRepository interface {
	// Create persists a new operation and assigns its ID.
	Create(ctx context.Context, op *Operation) error

	// ListAll returns every operation, ordered by creation time ascending.
	ListAll(ctx context.Context) ([]*Operation, error)

	// ListByJar returns the operations owned by one jar, ordered by creation
	// time ascending.
	ListByJar(ctx context.Context, jarID int64) ([]*Operation, error)
}

// TransactionManager defines the interface for managing database transactions.
// The balance update and the operation insert of a mutation must commit
// together or not at all; this abstraction keeps the service layer free of
// database specifics.
type TransactionManager interface {
	// WithTransaction executes fn within a database transaction. If fn returns
	// an error the transaction is rolled back, otherwise it is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventPublisher publishes ledger events to external systems (e.g. RabbitMQ).
type EventPublisher interface {
	PublishOperationRecorded(ctx context.Context, jar *Jar, op *Operation) error
}
