package domain

import "errors"

// Error taxonomy for the trading core. Callers branch on these with
// errors.Is; adapters wrap them with context via fmt.Errorf and %w.
var (
	// ErrInsufficientData marks a snapshot or vote set missing required
	// fields. The market is skipped for the cycle, never guessed at.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrInsufficientFunds marks a trade larger than available cash.
	// The decision is downgraded to a skip, not a fatal error.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrUnknownTrade marks a close request for a trade that is not in
	// the active positions (already closed or never opened).
	ErrUnknownTrade = errors.New("unknown trade")

	// ErrCollection marks a market data collection failure.
	ErrCollection = errors.New("collection failed")

	// ErrAnalysis marks a scorer/research failure.
	ErrAnalysis = errors.New("analysis failed")

	// ErrPersistence marks a failure writing state to disk. In-memory
	// state stays authoritative until the next successful write.
	ErrPersistence = errors.New("persistence failed")
)
