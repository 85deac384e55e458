// Package model contains domain models passed between layers.
package model

// MemberID identifies a community member on the chat platform.
// Opaque and platform-assigned; the engine never interprets it.
type MemberID string

// TargetID identifies an externally-hosted post submitted during a session.
type TargetID string

// NumericID is the stable platform-assigned identifier of an external
// account, distinct from its human-readable handle.
type NumericID string

// RegistryEntry links a member to an external account. NumericID stays
// empty until resolved, possibly lazily at scoring time.
type RegistryEntry struct {
	Handle    string
	NumericID NumericID
}

// Resolved reports whether the entry carries a numeric id.
func (e RegistryEntry) Resolved() bool {
	return e.NumericID != ""
}

// ScoreRecord is one row of a session report.
type ScoreRecord struct {
	Member MemberID
	Handle string
	Score  int
}
