// Package postgres is a gorm-backed datasource.Source that reads pending
// records out of a single outbox-style table.
package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/brightleaf-data/sns-fanout/datasource"
)

// outboxRow mirrors the table this Source reads from. Table name and
// column mapping are intentionally minimal: this is a concrete, swappable
// reference implementation of datasource.Source, not the system of record.
type outboxRow struct {
	ID      string `gorm:"column:id;primaryKey"`
	Payload []byte `gorm:"column:payload"`
}

func (outboxRow) TableName() string { return "outbox_records" }

// Source reads pending records from Postgres via gorm.
type Source struct {
	db *gorm.DB
}

// Connect opens a pooled connection to dsn and pings it before returning.
func Connect(dsn string) (*Source, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres: dsn is required")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("postgres: resolve sql handle: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	return &Source{db: db}, nil
}

var _ datasource.Source = (*Source)(nil)

// FetchBatch reads up to limit pending rows in ascending id order.
func (s *Source) FetchBatch(ctx context.Context, limit int) ([]datasource.Record, error) {
	var rows []outboxRow
	if err := s.db.WithContext(ctx).Order("id asc").Limit(limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("postgres: fetch batch: %w", err)
	}

	records := make([]datasource.Record, len(rows))
	for i, row := range rows {
		records[i] = datasource.Record{ID: row.ID, Payload: row.Payload}
	}
	return records, nil
}

// Close releases the underlying connection pool.
func (s *Source) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
