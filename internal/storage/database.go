/*
 * Copyright 2025 Cong Wang
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package storage

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/servicecomb-go/swagger-adapter/internal/config"
)

// DatabaseStore implements RegistrationStore on PostgreSQL through gorm
type DatabaseStore struct {
	config config.DatabaseConfig
	db     *gorm.DB
}

// NewDatabaseStore creates a new database store. If dbOverride is non-nil, it is used (for testing).
func NewDatabaseStore(cfg config.DatabaseConfig, dbOverride ...*gorm.DB) (*DatabaseStore, error) {
	var db *gorm.DB
	var err error
	if len(dbOverride) > 0 && dbOverride[0] != nil {
		db = dbOverride[0]
	} else {
		db, err = gorm.Open(
			postgres.New(postgres.Config{
				DriverName: cfg.Driver,
				DSN:        cfg.ConnectionString,
			}),
			&gorm.Config{},
		)
		if err != nil {
			return nil, err
		}

		// Set connection pool settings
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		if cfg.MaxConnections > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxConnections)
		}
		if cfg.MaxIdleTime > 0 {
			sqlDB.SetConnMaxIdleTime(cfg.MaxIdleTime)
		}
	}
	return &DatabaseStore{
		config: cfg,
		db:     db,
	}, nil
}

// Migrate creates or updates the registration table
func (ds *DatabaseStore) Migrate(ctx context.Context) error {
	return ds.db.WithContext(ctx).AutoMigrate(&RegistrationRecord{})
}

// Record inserts a registration row
func (ds *DatabaseStore) Record(ctx context.Context, registration *Registration) error {
	if err := validateRegistration(registration); err != nil {
		return err
	}

	rec, err := toRecord(registration)
	if err != nil {
		return fmt.Errorf("failed to convert registration: %w", err)
	}
	if err := ds.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("failed to store registration: %w", err)
	}
	return nil
}

// List returns matching registrations, newest first
func (ds *DatabaseStore) List(ctx context.Context, filter RegistrationFilter) ([]*Registration, error) {
	query := ds.db.WithContext(ctx).Model(&RegistrationRecord{})

	if filter.MicroserviceID != "" {
		query = query.Where("microservice_id = ?", filter.MicroserviceID)
	}
	if filter.SchemaID != "" {
		query = query.Where("schema_id = ?", filter.SchemaID)
	}
	if filter.TaskID != "" {
		query = query.Where("task_id = ?", filter.TaskID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	query = query.Order("created_at DESC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var records []RegistrationRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}

	result := make([]*Registration, 0, len(records))
	for i := range records {
		result = append(result, records[i].toRegistration())
	}
	return result, nil
}

// Stats counts registrations per status
func (ds *DatabaseStore) Stats(ctx context.Context) (RegistrationStats, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := ds.db.WithContext(ctx).Model(&RegistrationRecord{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return RegistrationStats{}, fmt.Errorf("failed to count registrations: %w", err)
	}

	var stats RegistrationStats
	for _, row := range rows {
		stats.Total += row.Count
		switch row.Status {
		case StatusRegistered:
			stats.Registered = row.Count
		case StatusFailed:
			stats.Failed = row.Count
		}
	}
	return stats, nil
}

// Close closes the underlying connection pool
func (ds *DatabaseStore) Close() error {
	sqlDB, err := ds.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// HealthCheck pings the database
func (ds *DatabaseStore) HealthCheck(ctx context.Context) error {
	sqlDB, err := ds.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
