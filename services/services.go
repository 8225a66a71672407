// Package services holds the business rules: the issue lifecycle, user and
// staff management, payment reconciliation and dashboard stats. Handlers call
// into it; it calls into the store and the external providers.
package services

import (
	"errors"
	"time"

	"cityfix-be/errs"
	"cityfix-be/store"
)

// storeErr maps a repository failure to an API error about what.
func storeErr(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return errs.Newf(errs.NotFound, "%s not found", what)
	case errors.Is(err, store.ErrInvalidID):
		return errs.Newf(errs.InvalidInput, "Invalid %s ID", what)
	}
	return errs.Upstream(err, "Database error")
}

// startOfDay returns local midnight of t's day.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
