package persistence

import (
	"context"

	"github.com/satguard/backend/internal/domain/directory"
	"gorm.io/gorm"
)

// GormBlocklistRepository implements directory.BlocklistRepository
type GormBlocklistRepository struct {
	db *gorm.DB
}

// NewGormBlocklistRepository creates a new GormBlocklistRepository
func NewGormBlocklistRepository(db *gorm.DB) *GormBlocklistRepository {
	return &GormBlocklistRepository{db: db}
}

// LookupByRFCs resolves statuses for the given RFCs in one query
func (r *GormBlocklistRepository) LookupByRFCs(ctx context.Context, rfcs []string) (directory.Lookup, error) {
	lookup := directory.Lookup{}
	if len(rfcs) == 0 {
		return lookup, nil
	}

	var entries []directory.BlocklistEntry
	err := dbFrom(ctx, r.db).
		Select("rfc", "status").
		Where("rfc IN ?", rfcs).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		lookup[e.RFC] = e.Status
	}
	return lookup, nil
}

// SnapshotVersion returns the snapshot's listing date as YYYY-MM-DD
func (r *GormBlocklistRepository) SnapshotVersion(ctx context.Context) (string, error) {
	var entry directory.BlocklistEntry
	err := dbFrom(ctx, r.db).Select("listed_at").Order("listed_at DESC").First(&entry).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return directory.VersionUnavailable, nil
		}
		return "", err
	}
	return entry.ListedAt.Format("2006-01-02"), nil
}

// ReplaceAll swaps the snapshot for a fresh one atomically
func (r *GormBlocklistRepository) ReplaceAll(ctx context.Context, entries []directory.BlocklistEntry) error {
	return dbFrom(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&directory.BlocklistEntry{}).Error; err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		return tx.CreateInBatches(entries, 1000).Error
	})
}

// GormGazetteRepository implements directory.GazetteRepository
type GormGazetteRepository struct {
	db *gorm.DB
}

// NewGormGazetteRepository creates a new GormGazetteRepository
func NewGormGazetteRepository(db *gorm.DB) *GormGazetteRepository {
	return &GormGazetteRepository{db: db}
}

// LookupByRFCs resolves gazette statuses for the given RFCs
func (r *GormGazetteRepository) LookupByRFCs(ctx context.Context, rfcs []string) (directory.Lookup, error) {
	lookup := directory.Lookup{}
	if len(rfcs) == 0 {
		return lookup, nil
	}

	var entries []directory.GazetteEntry
	err := dbFrom(ctx, r.db).
		Select("rfc", "status").
		Where("rfc IN ?", rfcs).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		lookup[e.RFC] = e.Status
	}
	return lookup, nil
}

// SnapshotVersion returns the gazette publication date as YYYY-MM-DD
func (r *GormGazetteRepository) SnapshotVersion(ctx context.Context) (string, error) {
	var entry directory.GazetteEntry
	err := dbFrom(ctx, r.db).Select("published_at").Order("published_at DESC").First(&entry).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return directory.VersionUnavailable, nil
		}
		return "", err
	}
	return entry.PublishedAt.Format("2006-01-02"), nil
}

// ReplaceAll swaps the gazette snapshot for a fresh one atomically
func (r *GormGazetteRepository) ReplaceAll(ctx context.Context, entries []directory.GazetteEntry) error {
	return dbFrom(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&directory.GazetteEntry{}).Error; err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		return tx.CreateInBatches(entries, 1000).Error
	})
}
