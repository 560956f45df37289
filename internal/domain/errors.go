package domain

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// ErrUnavailable means the external state source (RPC provider, indexer)
	// could not be reached. Estimators return it immediately, without retrying.
	ErrUnavailable = errors.New("data source unavailable")

	// ErrNonConvergence means the sell-side numerical solve did not converge,
	// e.g. the requested size exceeds pool depth. Distinct from a legitimate
	// zero-value estimate.
	ErrNonConvergence = errors.New("estimate did not converge")

	ErrInsufficientLiquidity = errors.New("insufficient pool liquidity")

	// ErrMalformedData covers partial or inconsistent indexer responses. The
	// affected market is skipped with a warning; the batch continues.
	ErrMalformedData = errors.New("malformed source data")

	ErrInvalidAmount = errors.New("invalid amount")
	ErrLockHeld      = errors.New("lock already held")
)
