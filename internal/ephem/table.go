package ephem

import (
	"context"
	"time"
)

// TableKey identifies one fetched Horizons chunk.
type TableKey struct {
	Body  Body
	Start time.Time // chunk start, UTC
	Step  time.Duration
}

// TableRow is one row of a geocentric ecliptic table.
type TableRow struct {
	Time   time.Time
	LonDeg float64
	LatDeg float64
	DistAU float64
}

// TableStore persists fetched tables between runs.
type TableStore interface {
	// LoadTable returns the stored rows for key; ok is false when absent.
	LoadTable(ctx context.Context, key TableKey) (rows []TableRow, ok bool, err error)

	// SaveTable stores rows for key, replacing any previous rows.
	SaveTable(ctx context.Context, key TableKey, rows []TableRow) error
}
