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
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// RegistrationRecord is the database row for one registration
type RegistrationRecord struct {
	ID             uint           `gorm:"primarykey" json:"-"`
	TaskID         string         `gorm:"size:64;index" json:"task_id"`
	MicroserviceID string         `gorm:"size:128;index;not null" json:"microservice_id"`
	SchemaID       string         `gorm:"size:255;index;not null" json:"schema_id"`
	Summary        string         `gorm:"size:64" json:"summary,omitempty"`
	Mode           string         `gorm:"size:10;not null" json:"mode"`
	Status         string         `gorm:"size:16;not null" json:"status"`
	Error          string         `gorm:"type:text" json:"error,omitempty"`
	Metadata       datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt      time.Time      `gorm:"type:timestamptz;not null" json:"created_at"`
}

// TableName overrides the default table name
func (RegistrationRecord) TableName() string {
	return "schema_registrations"
}

type recordMetadata struct {
	ContentLength int   `json:"content_length,omitempty"`
	DurationNanos int64 `json:"duration_ns,omitempty"`
}

func toRecord(r *Registration) (*RegistrationRecord, error) {
	meta, err := json.Marshal(recordMetadata{
		ContentLength: r.ContentLength,
		DurationNanos: int64(r.Duration),
	})
	if err != nil {
		return nil, err
	}

	created := r.Timestamp
	if created.IsZero() {
		created = time.Now().UTC()
	}
	return &RegistrationRecord{
		TaskID:         r.TaskID,
		MicroserviceID: r.MicroserviceID,
		SchemaID:       r.SchemaID,
		Summary:        r.Summary,
		Mode:           r.Mode,
		Status:         r.Status,
		Error:          r.Error,
		Metadata:       datatypes.JSON(meta),
		CreatedAt:      created,
	}, nil
}

func (rec *RegistrationRecord) toRegistration() *Registration {
	r := &Registration{
		TaskID:         rec.TaskID,
		MicroserviceID: rec.MicroserviceID,
		SchemaID:       rec.SchemaID,
		Summary:        rec.Summary,
		Mode:           rec.Mode,
		Status:         rec.Status,
		Error:          rec.Error,
		Timestamp:      rec.CreatedAt,
	}
	if len(rec.Metadata) > 0 {
		var meta recordMetadata
		if err := json.Unmarshal(rec.Metadata, &meta); err == nil {
			r.ContentLength = meta.ContentLength
			r.Duration = time.Duration(meta.DurationNanos)
		}
	}
	return r
}
