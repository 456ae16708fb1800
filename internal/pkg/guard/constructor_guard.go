// Package guard provides ConstructorGuard, a marker embedded in commands,
// queries and aggregates so that zero values built without their constructor
// are rejected by Validate.
package guard

import "errors"

// ErrDefaultConstructorGuard is returned by Validate when the caller passes a nil error.
var ErrDefaultConstructorGuard = errors.New("object must be created via its constructor")

// ConstructorGuard is true only when produced by NewConstructorGuard.
//
//	type StartShiftCommand struct {
//	    courierID kernel.ParticipantID
//	    guard     guard.ConstructorGuard
//	}
//
//	func (c StartShiftCommand) Validate() error {
//	    return c.guard.Validate(ErrStartShiftCommandIsNotConstructed)
//	}
type ConstructorGuard struct {
	isConstructed bool
}

func NewConstructorGuard() ConstructorGuard {
	return ConstructorGuard{isConstructed: true}
}

// Validate returns validationError (or ErrDefaultConstructorGuard when it is nil)
// for a zero-value guard and nil otherwise.
func (g ConstructorGuard) Validate(validationError error) error {
	if g.isConstructed {
		return nil
	}
	if validationError == nil {
		return ErrDefaultConstructorGuard
	}
	return validationError
}
