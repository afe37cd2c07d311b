package repositories

import "errors"

// Sentinel errors returned by repositories. Handlers classify these into the
// external error-code taxonomy; everything else is an internal error.
var (
	// ErrNotFound means no row matched id+tenant (a tenant mismatch is
	// indistinguishable from absence on purpose).
	ErrNotFound = errors.New("record not found")

	// ErrConflict means an update matched zero rows: stale version, wrong id,
	// wrong tenant, or soft-deleted. The cause is deliberately not
	// disambiguated — a second query would race.
	ErrConflict = errors.New("version conflict or record not found")

	// ErrDuplicate means an insert violated the per-tenant natural key.
	ErrDuplicate = errors.New("duplicate natural key")
)
