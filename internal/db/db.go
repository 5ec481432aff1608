package db

import (
	"fmt"
	"time"

	"linkguard/internal/model"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

func Connect(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		// Error level hides "SLOW SQL" warnings (default is Warn)
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func Close(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&model.Link{}, &model.Rejection{})
}

// SaveLinks inserts links, skipping hashes already stored. It returns the
// number of new rows.
func SaveLinks(db *gorm.DB, links []model.Link) (int64, error) {
	if len(links) == 0 {
		return 0, nil
	}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "hash"}},
		DoNothing: true,
	}).CreateInBatches(links, 500)
	return result.RowsAffected, result.Error
}

// RecordRejections adds per-kind counts for a source.
func RecordRejections(db *gorm.DB, source string, counts map[string]int64) error {
	now := time.Now()
	return db.Transaction(func(tx *gorm.DB) error {
		for kind, n := range counts {
			row := model.Rejection{Source: source, Kind: kind, Count: n, LastAt: now}
			err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "source"}, {Name: "kind"}},
				DoUpdates: clause.Assignments(map[string]interface{}{
					"count":   gorm.Expr("count + ?", n),
					"last_at": now,
				}),
			}).Create(&row).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// ListLinks returns stored links oldest first, optionally for one protocol.
func ListLinks(db *gorm.DB, protocol string) ([]model.Link, error) {
	var links []model.Link
	q := db.Order("id")
	if protocol != "" {
		q = q.Where("protocol = ?", protocol)
	}
	err := q.Find(&links).Error
	return links, err
}

type ProtocolCount struct {
	Protocol string
	Count    int64
}

func CountByProtocol(db *gorm.DB) ([]ProtocolCount, error) {
	var stats []ProtocolCount
	err := db.Model(&model.Link{}).
		Select("protocol, count(*) as count").
		Group("protocol").
		Order("protocol").
		Scan(&stats).Error
	return stats, err
}

type CountryCount struct {
	Country string
	Count   int64
}

// TopCountries ranks entry countries by link count.
func TopCountries(db *gorm.DB, limit int) ([]CountryCount, error) {
	var stats []CountryCount
	err := db.Model(&model.Link{}).
		Select("entry_country as country, count(*) as count").
		Where("entry_country != ''").
		Group("entry_country").
		Order("count desc").
		Limit(limit).
		Scan(&stats).Error
	return stats, err
}

func ListRejections(db *gorm.DB) ([]model.Rejection, error) {
	var rows []model.Rejection
	err := db.Order("source, kind").Find(&rows).Error
	return rows, err
}
