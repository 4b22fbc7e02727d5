package db_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/czaroPieczaro/sloik/internal/db"
	"github.com/czaroPieczaro/sloik/internal/domain"
)

// TestLedgerIntegration exercises the full storage path: it spins up a
// PostgreSQL container, runs migrations and drives the ledger through the
// real repositories and transaction manager.
func TestLedgerIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, dbURL := startPostgresContainer(t, ctx)
	defer func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	}()

	if err := db.Migrate(dbURL); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	pool, err := db.NewPool(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to create database pool: %v", err)
	}
	defer pool.Close()

	jars := db.NewJarRepository(pool.Pool)
	ops := db.NewOperationRepository(pool.Pool)
	txManager := db.NewTransactionManager(pool.Pool, zerolog.Nop())
	ledger := domain.NewLedgerService(jars, ops, txManager, nil, zerolog.Nop())
	history := domain.NewHistoryService(jars, ops)

	// Two EUR jars and one BTC jar.
	eur1 := domain.NewJar("EUR")
	eur2 := domain.NewJar("EUR")
	btc := domain.NewJar("BTC")
	for _, jar := range []*domain.Jar{eur1, eur2, btc} {
		if err := jars.Create(ctx, jar); err != nil {
			t.Fatalf("failed to create jar: %v", err)
		}
		if jar.ID == 0 {
			t.Fatal("expected assigned jar ID after create")
		}
	}

	t.Run("credit and charge", func(t *testing.T) {
		if _, err := ledger.Credit(ctx, eur1.ID, 1000, "salary"); err != nil {
			t.Fatalf("credit failed: %v", err)
		}
		if _, err := ledger.Charge(ctx, eur1.ID, 300, "groceries"); err != nil {
			t.Fatalf("charge failed: %v", err)
		}

		got, err := history.GetJar(ctx, eur1.ID)
		if err != nil {
			t.Fatalf("failed to read jar back: %v", err)
		}
		if got.Balance != 700 {
			t.Errorf("expected balance 700, got %d", got.Balance)
		}
		if got.Currency != "EUR" {
			t.Errorf("expected currency EUR, got %s", got.Currency)
		}
	})

	t.Run("overdraft rejected without a trace", func(t *testing.T) {
		_, err := ledger.Charge(ctx, eur1.ID, 100000, "impossible")
		if !errors.Is(err, domain.ErrInsufficientFunds) {
			t.Fatalf("expected ErrInsufficientFunds, got %v", err)
		}

		jarOps, err := history.ListJarOperations(ctx, eur1.ID)
		if err != nil {
			t.Fatalf("failed to list operations: %v", err)
		}
		if len(jarOps) != 2 {
			t.Errorf("expected 2 operations after rejected overdraft, got %d", len(jarOps))
		}
		assertBalanceMatchesLedger(ctx, t, history, eur1.ID)
	})

	t.Run("transfer between jars", func(t *testing.T) {
		if err := ledger.TransferBetween(ctx, eur1.ID, eur2.ID, 200, "savings"); err != nil {
			t.Fatalf("transfer failed: %v", err)
		}

		charged, _ := history.GetJar(ctx, eur1.ID)
		credited, _ := history.GetJar(ctx, eur2.ID)
		if charged.Balance != 500 {
			t.Errorf("expected charged balance 500, got %d", charged.Balance)
		}
		if credited.Balance != 200 {
			t.Errorf("expected credited balance 200, got %d", credited.Balance)
		}
		assertBalanceMatchesLedger(ctx, t, history, eur1.ID)
		assertBalanceMatchesLedger(ctx, t, history, eur2.ID)
	})

	t.Run("transfer currency mismatch leaves jars untouched", func(t *testing.T) {
		err := ledger.TransferBetween(ctx, eur1.ID, btc.ID, 100, "wrong")
		if !errors.Is(err, domain.ErrCurrencyMismatch) {
			t.Fatalf("expected ErrCurrencyMismatch, got %v", err)
		}
		jar, _ := history.GetJar(ctx, btc.ID)
		if jar.Balance != 0 {
			t.Errorf("expected BTC jar untouched, got balance %d", jar.Balance)
		}
	})

	t.Run("history views", func(t *testing.T) {
		withHistory, err := history.JarsWithHistory(ctx)
		if err != nil {
			t.Fatalf("failed to list jars with history: %v", err)
		}
		if len(withHistory) != 2 {
			t.Errorf("expected 2 jars with history, got %d", len(withHistory))
		}

		withBalance, err := history.JarsWithBalance(ctx)
		if err != nil {
			t.Fatalf("failed to list jars with balance: %v", err)
		}
		if len(withBalance) != 2 {
			t.Errorf("expected 2 jars with positive balance, got %d", len(withBalance))
		}

		targets, err := history.TransferTargets(ctx, eur1.ID)
		if err != nil {
			t.Fatalf("failed to list transfer targets: %v", err)
		}
		if len(targets) != 1 || targets[0].ID != eur2.ID {
			t.Errorf("expected the other EUR jar as the only target, got %d targets", len(targets))
		}

		all, err := history.ListOperations(ctx)
		if err != nil {
			t.Fatalf("failed to list all operations: %v", err)
		}
		filtered, err := history.ListJarOperations(ctx, eur2.ID)
		if err != nil {
			t.Fatalf("failed to list jar operations: %v", err)
		}
		if len(filtered) >= len(all) {
			t.Errorf("expected the filter to narrow the history: %d filtered vs %d total", len(filtered), len(all))
		}
		for _, op := range filtered {
			if op.JarID != eur2.ID {
				t.Errorf("filtered history leaked operation for jar %d", op.JarID)
			}
		}
	})

	t.Run("delete cascades to operations", func(t *testing.T) {
		if err := jars.Delete(ctx, eur1.ID); err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		if _, err := history.GetJar(ctx, eur1.ID); !errors.Is(err, domain.ErrJarNotFound) {
			t.Fatalf("expected ErrJarNotFound after delete, got %v", err)
		}
		jarOps, err := history.ListJarOperations(ctx, eur1.ID)
		if err != nil {
			t.Fatalf("failed to list operations: %v", err)
		}
		if len(jarOps) != 0 {
			t.Errorf("expected cascade to remove operations, got %d", len(jarOps))
		}
		if err := jars.Delete(ctx, eur1.ID); !errors.Is(err, domain.ErrJarNotFound) {
			t.Errorf("expected ErrJarNotFound on repeated delete, got %v", err)
		}
	})
}

// assertBalanceMatchesLedger verifies the stored balance against the sum of
// the jar's recorded operation values.
func assertBalanceMatchesLedger(ctx context.Context, t *testing.T, history *domain.HistoryService, jarID int64) {
	t.Helper()
	jar, err := history.GetJar(ctx, jarID)
	if err != nil {
		t.Fatalf("failed to read jar %d: %v", jarID, err)
	}
	ops, err := history.ListJarOperations(ctx, jarID)
	if err != nil {
		t.Fatalf("failed to list operations for jar %d: %v", jarID, err)
	}
	var sum domain.Amount
	for _, op := range ops {
		sum += op.Value
	}
	if jar.Balance != sum {
		t.Errorf("jar %d: stored balance %d does not match ledger sum %d", jarID, jar.Balance, sum)
	}
}

// startPostgresContainer starts a PostgreSQL testcontainer and returns the
// container plus a ready-to-use connection URL.
func startPostgresContainer(t *testing.T, ctx context.Context) (testcontainers.Container, string) {
	t.Helper()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get postgres host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("failed to get postgres port: %v", err)
	}

	dbURL := fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port())
	return container, dbURL
}
