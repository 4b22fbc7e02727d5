package domain

import "time"

// Jar is a labeled currency bucket. Its balance is kept in minor units and
// must always equal the signed sum of its operations' values.
type Jar struct {
	ID        int64     // Unique identifier, assigned on creation
	Currency  string    // Currency label, immutable after creation
	Balance   Amount    // Current balance in minor units
	CreatedAt time.Time // Timestamp when the jar was created (UTC)
}

// Operation is an immutable ledger entry recording one signed balance change
// and its reason. Operations are never updated or deleted individually; they
// are removed only when their jar is deleted (cascade).
type Operation struct {
	ID        int64     // Unique identifier, assigned on creation
	JarID     int64     // Owning jar
	Value     Amount    // Signed minor-unit delta: positive credit, negative charge
	Title     string    // Free-text reason for the change
	CreatedAt time.Time // Timestamp when the operation was recorded (UTC)
}

// NewJar creates a Jar with the given currency and a zero balance.
func NewJar(currency string) *Jar {
	return &Jar{
		Currency:  currency,
		Balance:   0,
		CreatedAt: time.Now().UTC(),
	}
}

// NewOperation creates an Operation recording a signed balance change on a jar.
func NewOperation(jarID int64, value Amount, title string) *Operation {
	return &Operation{
		JarID:     jarID,
		Value:     value,
		Title:     title,
		CreatedAt: time.Now().UTC(),
	}
}

// CanCover reports whether the jar's balance covers the given amount.
func (j *Jar) CanCover(amount Amount) bool {
	return j.Balance >= amount
}
