package audit

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/czaroPieczaro/sloik/internal/domain"
)

// fakeJars implements only the List method the auditor uses; the embedded
// interface panics on anything else.
type fakeJars struct {
	domain.JarRepository
	jars []*domain.Jar
}

func (f *fakeJars) List(context.Context) ([]*domain.Jar, error) {
	return f.jars, nil
}

type fakeOps struct {
	domain.OperationRepository
	byJar map[int64][]*domain.Operation
}

func (f *fakeOps) ListByJar(_ context.Context, jarID int64) ([]*domain.Operation, error) {
	return f.byJar[jarID], nil
}

func TestAuditorDetectsDrift(t *testing.T) {
	jars := &fakeJars{jars: []*domain.Jar{
		{ID: 1, Currency: "EUR", Balance: 150},
		{ID: 2, Currency: "USD", Balance: 100},
	}}
	ops := &fakeOps{byJar: map[int64][]*domain.Operation{
		1: {
			{ID: 1, JarID: 1, Value: 200},
			{ID: 2, JarID: 1, Value: -50},
		},
		// Jar 2's stored balance doesn't match its ledger.
		2: {
			{ID: 3, JarID: 2, Value: 70},
		},
	}}

	auditor := NewAuditor(jars, ops, zerolog.Nop())
	drifts, err := auditor.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(drifts) != 1 {
		t.Fatalf("expected 1 drift, got %d", len(drifts))
	}
	if drifts[0].JarID != 2 {
		t.Errorf("expected drift on jar 2, got jar %d", drifts[0].JarID)
	}
	if drifts[0].Stored != 100 || drifts[0].Derived != 70 {
		t.Errorf("unexpected drift amounts: stored %d, derived %d", drifts[0].Stored, drifts[0].Derived)
	}
}

func TestAuditorCleanLedger(t *testing.T) {
	jars := &fakeJars{jars: []*domain.Jar{
		{ID: 1, Currency: "EUR", Balance: 0},
	}}
	ops := &fakeOps{byJar: map[int64][]*domain.Operation{}}

	auditor := NewAuditor(jars, ops, zerolog.Nop())
	drifts, err := auditor.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(drifts) != 0 {
		t.Errorf("expected no drifts, got %d", len(drifts))
	}
}
