// Package kernel provides the value objects shared by the ordering domain.
//
// The package includes:
//   - UUID: identifier for aggregates and outbox records
//   - Money: exact decimal amount tagged with a three-letter currency code
//
// Both types are immutable. Their zero values are invalid and are rejected by
// Validate, so a value that crossed a constructor can be told apart from one
// that did not.
package kernel
