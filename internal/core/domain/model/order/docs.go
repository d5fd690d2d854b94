// Package order implements the Order aggregate of the ordering domain.
//
// The package includes:
//   - Order: the aggregate root holding customer, lines, total and lifecycle status
//   - OrderLine: an immutable line value (SKU, quantity, unit price)
//   - Status: the lifecycle state machine
//   - Event: the closed set of domain events raised by the aggregate
//
// Lifecycle:
//
//	Placed ──> Accepted ──> Completed
//	  │           │
//	  └───────────┴──> Cancelled
//
// Completed and Cancelled are terminal. Every successful transition queues
// exactly one event; DrainPendingEvents hands the queue to the persistence
// layer so that the state change and its event are committed together.
//
// Aggregate operations perform no I/O and fail without side effects.
package order
