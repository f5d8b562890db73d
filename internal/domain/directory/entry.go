package directory

import (
	"context"
	"time"
)

// StatusNotFound is the sentinel status reported for RFCs absent from a
// directory snapshot.
const StatusNotFound = "Not found"

// VersionUnavailable is reported when a directory holds no rows to
// derive a snapshot date from.
const VersionUnavailable = "unavailable"

// BlocklistEntry is one row of the tax authority's presumed-operations
// blocklist snapshot. Entries are global, not tenant-scoped.
type BlocklistEntry struct {
	ID           int64     `gorm:"primaryKey"`
	RFC          string    `gorm:"type:varchar(13);not null;uniqueIndex"`
	BusinessName string    `gorm:"type:varchar(300)"`
	Status       string    `gorm:"type:varchar(200);not null"`
	ListedAt     time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (BlocklistEntry) TableName() string {
	return "blocklist_entries"
}

// GazetteEntry is one row of the official gazette publication snapshot.
type GazetteEntry struct {
	ID          int64     `gorm:"primaryKey"`
	RFC         string    `gorm:"type:varchar(13);not null;uniqueIndex"`
	Status      string    `gorm:"type:varchar(200);not null"`
	PublishedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (GazetteEntry) TableName() string {
	return "gazette_entries"
}

// Lookup maps a normalized RFC to its directory status.
type Lookup map[string]string

// StatusOf returns the status for an RFC, or the not-found sentinel.
func (l Lookup) StatusOf(rfc string) string {
	if s, ok := l[rfc]; ok {
		return s
	}
	return StatusNotFound
}

// BlocklistRepository provides access to the blocklist snapshot
type BlocklistRepository interface {
	// LookupByRFCs returns the statuses of the requested RFCs. Absent
	// RFCs simply have no key in the result.
	LookupByRFCs(ctx context.Context, rfcs []string) (Lookup, error)
	// SnapshotVersion returns the listing date of the snapshot as
	// YYYY-MM-DD, or VersionUnavailable when the table is empty.
	SnapshotVersion(ctx context.Context) (string, error)
	ReplaceAll(ctx context.Context, entries []BlocklistEntry) error
}

// GazetteRepository provides access to the gazette snapshot
type GazetteRepository interface {
	LookupByRFCs(ctx context.Context, rfcs []string) (Lookup, error)
	SnapshotVersion(ctx context.Context) (string, error)
	ReplaceAll(ctx context.Context, entries []GazetteEntry) error
}
