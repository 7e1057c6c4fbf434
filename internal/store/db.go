package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"lead-scoring/backend/internal/model"
)

// Database is a gorm/SQLite-backed state store.
type Database struct {
	gorm *gorm.DB
	mu   sync.Mutex
}

// Open initializes the SQLite database at path. Use
// "file::memory:?cache=shared" for a process-local database.
func Open(path string, silent bool) (*Database, error) {
	cfg := &gorm.Config{}
	if silent {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
	}
	db, err := gorm.Open(sqlite.Open(path), cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&OfferRow{}, &LeadRow{}, &ScoreRow{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	if err := db.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
		logrus.WithError(err).Warn("enable WAL mode")
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

// Offer returns the active offer, or nil when none has been submitted.
func (d *Database) Offer() (*model.Offer, error) {
	var row OfferRow
	err := d.gorm.First(&row, activeOfferID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load offer: %w", err)
	}
	offer := row.Model()
	return &offer, nil
}

// SetOffer replaces the active offer.
func (d *Database) SetOffer(offer model.Offer) error {
	row := offerRowFromModel(offer)
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gorm.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "value_props_json", "ideal_use_cases_json", "updated_at"}),
	}).Create(&row).Error
}

// AppendLeads adds leads after the existing ones and returns the new total.
func (d *Database) AppendLeads(leads []model.Lead) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(leads) > 0 {
		rows := make([]LeadRow, len(leads))
		for i, lead := range leads {
			rows[i].SetFields(lead)
		}
		if err := d.gorm.CreateInBatches(rows, 250).Error; err != nil {
			return 0, fmt.Errorf("insert leads: %w", err)
		}
	}
	var count int64
	if err := d.gorm.Model(&LeadRow{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count leads: %w", err)
	}
	return int(count), nil
}

// Leads returns every uploaded lead in upload order.
func (d *Database) Leads() ([]model.Lead, error) {
	var rows []LeadRow
	if err := d.gorm.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load leads: %w", err)
	}
	out := make([]model.Lead, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Fields())
	}
	return out, nil
}

// ReplaceResults swaps the stored results for the supplied slice in one transaction.
func (d *Database) ReplaceResults(results []model.LeadScoreResult) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gorm.Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&ScoreRow{}).Error; err != nil {
			return err
		}
		if len(results) == 0 {
			return nil
		}
		rows := make([]ScoreRow, len(results))
		for i, r := range results {
			rows[i] = scoreRowFromModel(i, r)
		}
		return tx.CreateInBatches(rows, 250).Error
	})
}

// Results returns the latest run's results in lead order.
func (d *Database) Results() ([]model.LeadScoreResult, error) {
	var rows []ScoreRow
	if err := d.gorm.Order("position ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load results: %w", err)
	}
	out := make([]model.LeadScoreResult, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Model())
	}
	return out, nil
}
