// Package store records produced brand profiles in SQLite.
package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"brand-profiler/backend/internal/brand"
	"brand-profiler/backend/internal/urlnorm"
)

// ErrNotFound is returned when a profile id does not exist.
var ErrNotFound = errors.New("profile not found")

// Database wraps the GORM DB handle and exposes repository helpers.
type Database struct {
	gorm *gorm.DB
	mu   sync.Mutex
}

// Open initializes the SQLite-backed database at the provided path.
func Open(path string, silent bool) (*Database, error) {
	cfg := &gorm.Config{}
	if silent {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
	}
	db, err := gorm.Open(sqlite.Open(path), cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&BrandProfile{}, &BrandProduct{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	if err := db.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
		logrus.WithError(err).Warn("enable WAL mode")
	}
	if err := db.Exec("PRAGMA synchronous=NORMAL").Error; err != nil {
		logrus.WithError(err).Warn("set synchronous pragma")
	}
	if err := applyIndexes(db); err != nil {
		return nil, fmt.Errorf("apply indexes: %w", err)
	}
	return &Database{gorm: db}, nil
}

// Close closes the underlying database connection.
func (d *Database) Close() error {
	if d == nil {
		return nil
	}
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveProfile stores the profile and its products in one transaction and
// returns the new profile id.
func (d *Database) SaveProfile(p *brand.Profile, sourceURL string) (uint, error) {
	if p == nil {
		return 0, errors.New("profile is nil")
	}
	host := ""
	if u, err := urlnorm.Parse(sourceURL); err == nil {
		host = urlnorm.Host(u)
	}
	row := profileFromBrand(p, sourceURL, host)

	d.mu.Lock()
	defer d.mu.Unlock()
	err := d.gorm.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Products").Create(row).Error; err != nil {
			return err
		}
		if len(p.Products) == 0 {
			return nil
		}
		products := make([]BrandProduct, 0, len(p.Products))
		for i, product := range p.Products {
			products = append(products, productFromBrand(product, row.ID, i))
		}
		return tx.CreateInBatches(products, 100).Error
	})
	if err != nil {
		return 0, fmt.Errorf("save profile: %w", err)
	}
	return row.ID, nil
}

// GetProfile loads a stored profile with its products in their original order.
func (d *Database) GetProfile(id uint) (*brand.Profile, error) {
	var row BrandProfile
	err := d.gorm.Preload("Products", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return row.Brand(), nil
}

// ListProfiles returns a page of profile summaries, newest first, plus the total count.
func (d *Database) ListProfiles(offset, limit int) ([]ProfileSummary, int64, error) {
	var total int64
	if err := d.gorm.Model(&BrandProfile{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	q := d.gorm.Model(&BrandProfile{}).
		Select("id, source_url, name, created_at").
		Order("id DESC")
	if limit > 0 {
		q = q.Offset(offset).Limit(limit)
	}
	var rows []BrandProfile
	if err := q.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]ProfileSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, ProfileSummary{ID: row.ID, SourceURL: row.SourceURL, Name: row.Name, CreatedAt: row.CreatedAt})
	}
	return out, total, nil
}

// CountByHost returns how many profiles were recorded for a host.
func (d *Database) CountByHost(host string) (int64, error) {
	var count int64
	if err := d.gorm.Model(&BrandProfile{}).Where("host = ?", host).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func applyIndexes(db *gorm.DB) error {
	stmts := []string{
		"CREATE INDEX IF NOT EXISTS idx_brand_profiles_created_at ON brand_profiles(created_at)",
		"CREATE INDEX IF NOT EXISTS idx_brand_products_profile_position ON brand_products(profile_id, position)",
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
