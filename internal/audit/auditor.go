// Package audit periodically re-derives every jar's balance from its ledger
// and reports drift. The transactional write path makes drift impossible in
// theory; the audit exists to catch it anyway (manual database edits, bugs).
package audit

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/czaroPieczaro/sloik/internal/domain"
)

// Drift describes one jar whose stored balance disagrees with the signed sum
// of its operations.
type Drift struct {
	JarID    int64
	Stored   domain.Amount
	Derived  domain.Amount
	Currency string
}

// Auditor checks the balance invariant across all jars.
type Auditor struct {
	jars domain.JarRepository
	ops  domain.OperationRepository
	log  zerolog.Logger
}

// NewAuditor creates a new Auditor.
func NewAuditor(jars domain.JarRepository, ops domain.OperationRepository, log zerolog.Logger) *Auditor {
	return &Auditor{jars: jars, ops: ops, log: log}
}

// Run checks every jar and returns the drifts found. Each drift is also
// logged at error level; a clean pass logs a single debug line.
func (a *Auditor) Run(ctx context.Context) ([]Drift, error) {
	jars, err := a.jars.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list jars for audit: %w", err)
	}

	var drifts []Drift
	for _, jar := range jars {
		ops, err := a.ops.ListByJar(ctx, jar.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list operations for jar %d: %w", jar.ID, err)
		}

		var derived domain.Amount
		for _, op := range ops {
			derived += op.Value
		}

		if derived != jar.Balance {
			drift := Drift{
				JarID:    jar.ID,
				Stored:   jar.Balance,
				Derived:  derived,
				Currency: jar.Currency,
			}
			drifts = append(drifts, drift)
			a.log.Error().
				Int64("jar_id", drift.JarID).
				Str("stored", drift.Stored.String()).
				Str("derived", drift.Derived.String()).
				Str("currency", drift.Currency).
				Msg("ledger drift: jar balance does not match operation sum")
		}
	}

	if len(drifts) == 0 {
		a.log.Debug().Int("jars", len(jars)).Msg("ledger audit clean")
	}
	return drifts, nil
}
