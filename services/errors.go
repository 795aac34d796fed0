// services/errors.go
package services

import (
	"errors"
	"fmt"

	"aviation-fuel-game/store"
)

var (
	ErrGameNotFound       = errors.New("game not found")
	ErrAirportNotFound    = errors.New("airport not found")
	ErrInvalidDestination = errors.New("invalid destination")
	ErrOutOfFuel          = errors.New("no fuel remaining")
	ErrInsufficientRange  = errors.New("insufficient fuel")
	ErrInvalidAmount      = errors.New("invalid fuel amount")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrConcurrentUpdate   = errors.New("game was updated by another request, retry")
	ErrStoreUnavailable   = errors.New("data store unavailable")
)

// InsufficientRangeError carries the distance asked for and the range left.
type InsufficientRangeError struct {
	Required  int64
	Available int64
}

func (e *InsufficientRangeError) Error() string {
	return fmt.Sprintf("Insufficient fuel! Need %dkm, have %dkm", e.Required, e.Available)
}

func (e *InsufficientRangeError) Is(target error) bool {
	return target == ErrInsufficientRange
}

var domainErrors = []error{
	ErrGameNotFound,
	ErrAirportNotFound,
	ErrInvalidDestination,
	ErrOutOfFuel,
	ErrInsufficientRange,
	ErrInvalidAmount,
	ErrInsufficientFunds,
	ErrConcurrentUpdate,
	ErrStoreUnavailable,
}

func isDomainError(err error) bool {
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// storeError maps a store failure onto the game's error kinds.
func storeError(err error, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return notFound
	case errors.Is(err, store.ErrConflict):
		return ErrConcurrentUpdate
	case isDomainError(err):
		return err
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
