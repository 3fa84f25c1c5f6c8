package model

import "github.com/rotisserie/eris"

// Error kinds shared across the service. Callers classify with
// errors.Is; the HTTP layer maps them onto status codes.
var (
	// ErrInvalidArgument marks caller-side input errors (bad year,
	// unknown report code, blank corp code). Maps to 400.
	ErrInvalidArgument = eris.New("invalid argument")

	// ErrNotFound marks lookups for profiles, partners, or corp codes
	// that do not exist. Maps to 404.
	ErrNotFound = eris.New("not found")

	// ErrExternalSource marks non-2xx responses or transport failures
	// from the disclosure system. Swallowed per sub-step during
	// ingestion; maps to 502 on direct API paths.
	ErrExternalSource = eris.New("external source error")

	// ErrTransientParsing marks unparseable amounts or payloads. The
	// affected row or field is treated as absent, never fatal.
	ErrTransientParsing = eris.New("transient parsing error")

	// ErrInvariant marks violated internal preconditions, e.g. both
	// owner ids set. The operation aborts.
	ErrInvariant = eris.New("invariant violation")
)
