// Package services provides domain services that apply business decisions
// coming from outside the Order aggregate.
//
// The package includes:
//   - PaymentOutcomeApplier: maps a payment result onto the order lifecycle
package services
