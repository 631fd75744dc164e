package receiving

import "clinipos/internal/core/numerator"

const (
	// NumeratorStrategy defines the numbering strategy for purchase batches.
	// Batches are audit documents, so numbers must be gapless: Strict.
	NumeratorStrategy = numerator.StrategyStrict

	// NumberPrefix for purchase batch numbers (PB-2026-00001).
	NumberPrefix = "PB"
)
