// Package service implements the sweet shop business rules: the user
// directory, the catalog, and the inventory transaction engine.
//
// Every exported method returns either nil or an *apperr.Error; raw store
// errors never escape this package.
package service

import (
	"errors"

	"sweet_shop/internal/apperr"
	"sweet_shop/internal/store"
)

// MaxPageSize bounds limit on paginated reads.
const MaxPageSize = 1000

func checkPage(skip, limit int) error {
	if skip < 0 {
		return apperr.Validation("skip must be >= 0")
	}
	if limit <= 0 || limit > MaxPageSize {
		return apperr.Validation("limit must be between 1 and %d", MaxPageSize)
	}
	return nil
}

// storeErr categorizes a store error. A uniqueness violation becomes dup,
// a missing row becomes notFound when given, anything else is internal.
func storeErr(err error, dup, notFound *apperr.Error) error {
	switch {
	case err == nil:
		return nil
	case dup != nil && store.IsUniqueViolation(err):
		return dup
	case notFound != nil && store.IsNotFound(err):
		return notFound
	default:
		return apperr.Internal(err)
	}
}

// passThrough keeps already categorized errors returned from inside a
// transaction closure and categorizes the rest.
func passThrough(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperr.Internal(err)
}
