// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"slidesmith/internal/models"
)

// ViewStore records visits to public carousels.
type ViewStore struct {
	db *sql.DB
}

// NewViewStore creates a new ViewStore with the given database connection.
func NewViewStore(db *sql.DB) *ViewStore {
	return &ViewStore{db: db}
}

// Record inserts one view row.
func (s *ViewStore) Record(ctx context.Context, v models.View) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO carousel_views (carousel_id, device, referrer)
		VALUES ($1, $2, $3)
	`, v.CarouselID, v.Device, v.Referrer)
	if err != nil {
		return fmt.Errorf("record view: %w", err)
	}
	return nil
}

// CountByDevice returns the number of recorded views of a carousel per
// device class.
func (s *ViewStore) CountByDevice(ctx context.Context, carouselID uuid.UUID) (map[models.Device]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT device, COUNT(*) FROM carousel_views
		WHERE carousel_id = $1
		GROUP BY device
	`, carouselID)
	if err != nil {
		return nil, fmt.Errorf("count views by device: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.Device]int64)
	for rows.Next() {
		var d models.Device
		var n int64
		if err := rows.Scan(&d, &n); err != nil {
			return nil, fmt.Errorf("scan view count: %w", err)
		}
		counts[d] = n
	}
	return counts, rows.Err()
}
