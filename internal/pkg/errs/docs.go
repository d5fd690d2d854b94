// Package errs provides the error taxonomy shared by the ordering service.
//
// Every error kind follows the same shape:
//   - a sentinel (ErrValueIsRequired, ErrObjectNotFound, ...) usable with errors.Is
//   - a struct carrying the offending parameter and an optional Cause
//   - New...Error and New...ErrorWithCause constructors
//   - Unwrap returning the sentinel
//
// The kinds map onto the service's failure classes:
//   - InvalidArgument: ValueIsRequiredError, ValueIsInvalidError, ValueIsOutOfRangeError
//   - InvalidState: InvalidStateError (illegal lifecycle transition) and
//     ConcurrentModificationError (a write raced by another transaction)
//   - NotFound: ObjectNotFoundError
//
// Anything else coming out of the store or the broker is treated as transient
// infrastructure failure and is wrapped with fmt.Errorf("...: %w", err).
package errs
