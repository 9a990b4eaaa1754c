package persistence

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrTenantNotFound is returned when no tenant row matches.
	ErrTenantNotFound = errors.New("tenant not found")
	// ErrTenantConflict indicates the tenant id or slug is already registered.
	ErrTenantConflict = errors.New("tenant conflict")
	// ErrBrandNotFound is returned when no brand row matches.
	ErrBrandNotFound = errors.New("brand not found")
	// ErrInfluencerNotFound is returned when no influencer row matches.
	ErrInfluencerNotFound = errors.New("influencer not found")
	// ErrHandleConflict indicates the handle is already registered under another tenant.
	ErrHandleConflict = errors.New("influencer handle belongs to another tenant")
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
