package domain

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// LedgerService handles every balance-affecting action: deposits, withdrawals
// and jar-to-jar transfers. All mutations flow through a single apply
// primitive so that a balance change and its ledger entry always commit
// together.
type LedgerService struct {
	jars JarRepository
	ops  OperationRepository
	tx   TransactionManager
	// Optional publisher emitting an event per recorded operation.
	events EventPublisher
	log    zerolog.Logger
}

// NewLedgerService creates a new LedgerService.
// Pass nil for events if no events should be emitted.
func NewLedgerService(
	jars JarRepository,
	ops OperationRepository,
	tx TransactionManager,
	events EventPublisher,
	log zerolog.Logger,
) *LedgerService {
	return &LedgerService{
		jars:   jars,
		ops:    ops,
		tx:     tx,
		events: events,
		log:    log,
	}
}

// Credit puts amount into the jar and records an operation with value
// +amount. The balance update and the operation insert commit atomically.
func (s *LedgerService) Credit(ctx context.Context, jarID int64, amount Amount, title string) (*Operation, error) {
	if err := validateMutation(amount, title); err != nil {
		return nil, err
	}

	var jar *Jar
	var op *Operation
	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		jar, err = s.jars.Lock(txCtx, jarID)
		if err != nil {
			return err
		}
		op, err = s.apply(txCtx, jar, amount, title)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publish(jar, op)
	return op, nil
}

// Charge withdraws amount (a positive magnitude) from the jar and records an
// operation with value -amount. Withdrawing more than the jar holds is
// rejected with ErrInsufficientFunds before any mutation; the guard sits here,
// above the apply primitive, which itself enforces no business rules.
func (s *LedgerService) Charge(ctx context.Context, jarID int64, amount Amount, title string) (*Operation, error) {
	if err := validateMutation(amount, title); err != nil {
		return nil, err
	}

	var jar *Jar
	var op *Operation
	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		jar, err = s.jars.Lock(txCtx, jarID)
		if err != nil {
			return err
		}
		if !jar.CanCover(amount) {
			return fmt.Errorf("%w: jar %d holds %s, requested %s",
				ErrInsufficientFunds, jar.ID, jar.Balance, amount)
		}
		op, err = s.apply(txCtx, jar, -amount, title)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publish(jar, op)
	return op, nil
}

// TransferBetween moves amount from the charged jar to the credited jar.
// Preconditions are checked before any mutation: distinct jars, matching
// currency and no overdraft. Both legs run in one database transaction, so a
// failure between charge and credit never leaves money in transit. Jars are
// locked in ID order to avoid deadlocks between concurrent transfers.
func (s *LedgerService) TransferBetween(ctx context.Context, chargedID, creditedID int64, amount Amount, title string) error {
	if chargedID == creditedID {
		return ErrSameJar
	}
	if err := validateMutation(amount, title); err != nil {
		return err
	}

	var charged, credited *Jar
	var chargeOp, creditOp *Operation
	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		if chargedID < creditedID {
			charged, err = s.jars.Lock(txCtx, chargedID)
			if err != nil {
				return err
			}
			credited, err = s.jars.Lock(txCtx, creditedID)
			if err != nil {
				return err
			}
		} else {
			credited, err = s.jars.Lock(txCtx, creditedID)
			if err != nil {
				return err
			}
			charged, err = s.jars.Lock(txCtx, chargedID)
			if err != nil {
				return err
			}
		}

		if charged.Currency != credited.Currency {
			return fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, charged.Currency, credited.Currency)
		}
		if !charged.CanCover(amount) {
			return fmt.Errorf("%w: jar %d holds %s, requested %s",
				ErrInsufficientFunds, charged.ID, charged.Balance, amount)
		}

		chargeOp, err = s.apply(txCtx, charged, -amount, title)
		if err != nil {
			return err
		}
		creditOp, err = s.apply(txCtx, credited, amount, title)
		return err
	})
	if err != nil {
		return err
	}

	s.publish(charged, chargeOp)
	s.publish(credited, creditOp)
	return nil
}

// apply is the single point of truth for "mutate balance + record history".
// It adjusts the jar's balance by the signed delta and inserts the matching
// operation. Callers must invoke it inside a transaction with the jar locked;
// it performs no business-rule checks of its own.
func (s *LedgerService) apply(ctx context.Context, jar *Jar, delta Amount, title string) (*Operation, error) {
	jar.Balance += delta
	if err := s.jars.UpdateBalance(ctx, jar); err != nil {
		return nil, fmt.Errorf("failed to update jar balance: %w", err)
	}

	op := NewOperation(jar.ID, delta, title)
	if err := s.ops.Create(ctx, op); err != nil {
		return nil, fmt.Errorf("failed to record operation: %w", err)
	}
	return op, nil
}

// publish emits an operation-recorded event after the transaction has
// committed. Best-effort: a broker outage must not make an already-committed
// mutation look failed.
func (s *LedgerService) publish(jar *Jar, op *Operation) {
	if s.events == nil {
		return
	}
	go func() {
		if err := s.events.PublishOperationRecorded(context.Background(), jar, op); err != nil {
			s.log.Warn().Err(err).
				Int64("jar_id", jar.ID).
				Int64("operation_id", op.ID).
				Msg("failed to publish operation event")
		}
	}()
}

func validateMutation(amount Amount, title string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if title == "" {
		return ErrEmptyTitle
	}
	return nil
}

// JarService handles jar lifecycle: creation and deletion.
type JarService struct {
	jars JarRepository
}

// NewJarService creates a new JarService.
func NewJarService(jars JarRepository) *JarService {
	return &JarService{jars: jars}
}

// CreateJar creates a jar holding the given currency with a zero balance.
// Any non-empty currency string is accepted.
func (s *JarService) CreateJar(ctx context.Context, currency string) (*Jar, error) {
	if currency == "" {
		return nil, ErrEmptyCurrency
	}

	jar := NewJar(currency)
	if err := s.jars.Create(ctx, jar); err != nil {
		return nil, fmt.Errorf("failed to create jar: %w", err)
	}
	return jar, nil
}

// DeleteJar removes the jar and, via cascade, all its operations.
// Irreversible. Returns ErrJarNotFound if the jar doesn't exist.
func (s *JarService) DeleteJar(ctx context.Context, id int64) error {
	return s.jars.Delete(ctx, id)
}

// HistoryService is the read side: jar and operation retrieval for display.
// Pure reads, no side effects.
type HistoryService struct {
	jars JarRepository
	ops  OperationRepository
}

// NewHistoryService creates a new HistoryService.
func NewHistoryService(jars JarRepository, ops OperationRepository) *HistoryService {
	return &HistoryService{jars: jars, ops: ops}
}

// ListJars returns all jars ordered by ID.
func (s *HistoryService) ListJars(ctx context.Context) ([]*Jar, error) {
	return s.jars.List(ctx)
}

// GetJar returns one jar, or ErrJarNotFound.
func (s *HistoryService) GetJar(ctx context.Context, id int64) (*Jar, error) {
	return s.jars.GetByID(ctx, id)
}

// ListOperations returns every recorded operation, oldest first.
func (s *HistoryService) ListOperations(ctx context.Context) ([]*Operation, error) {
	return s.ops.ListAll(ctx)
}

// ListJarOperations returns the operations owned by one jar, oldest first.
// A jar with no history yields an empty slice, not an error.
func (s *HistoryService) ListJarOperations(ctx context.Context, jarID int64) ([]*Operation, error) {
	return s.ops.ListByJar(ctx, jarID)
}

// JarsWithHistory returns jars that have at least one operation recorded,
// used to populate filter views.
func (s *HistoryService) JarsWithHistory(ctx context.Context) ([]*Jar, error) {
	return s.jars.ListWithOperations(ctx)
}

// JarsWithBalance returns jars holding a positive balance; they are the only
// valid transfer sources.
func (s *HistoryService) JarsWithBalance(ctx context.Context) ([]*Jar, error) {
	return s.jars.ListWithPositiveBalance(ctx)
}

// TransferTargets returns jars eligible to receive a transfer from the source
// jar: same currency, different jar. The list is advisory for presentation;
// TransferBetween re-validates before mutating.
func (s *HistoryService) TransferTargets(ctx context.Context, sourceID int64) ([]*Jar, error) {
	source, err := s.jars.GetByID(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	return s.jars.ListTransferTargets(ctx, source.Currency, source.ID)
}
