// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"slidesmith/internal/models"
)

// psql builds PostgreSQL queries with $n placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const carouselColumns = `id, user_id, title, template_type, preset_id, theme, format,
	pattern, pattern_opacity, branding, slides, is_public, view_count,
	created_at, updated_at`

// CarouselStore handles carousel persistence. Theme, branding and slides
// are stored as JSONB documents.
type CarouselStore struct {
	db *sql.DB
}

// NewCarouselStore creates a new CarouselStore with the given database connection.
func NewCarouselStore(db *sql.DB) *CarouselStore {
	return &CarouselStore{db: db}
}

// ListFilter narrows ListByUser. A nil Public returns both visibilities.
type ListFilter struct {
	Public *bool
	Limit  uint64
	Offset uint64
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanCarousel(row scanner) (*models.Carousel, error) {
	c := &models.Carousel{}
	var theme, branding, slides []byte
	if err := row.Scan(
		&c.ID, &c.UserID, &c.Title, &c.TemplateType, &c.PresetID, &theme, &c.Format,
		&c.Pattern, &c.PatternOpacity, &branding, &slides, &c.IsPublic, &c.ViewCount,
		&c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(theme, &c.Theme); err != nil {
		return nil, fmt.Errorf("decode theme: %w", err)
	}
	if err := json.Unmarshal(branding, &c.Branding); err != nil {
		return nil, fmt.Errorf("decode branding: %w", err)
	}
	if err := json.Unmarshal(slides, &c.Slides); err != nil {
		return nil, fmt.Errorf("decode slides: %w", err)
	}
	return c, nil
}

// documents encodes the JSONB columns of c.
func documents(c *models.Carousel) (theme, branding, slides []byte, err error) {
	if theme, err = json.Marshal(c.Theme); err != nil {
		return nil, nil, nil, fmt.Errorf("encode theme: %w", err)
	}
	if branding, err = json.Marshal(c.Branding); err != nil {
		return nil, nil, nil, fmt.Errorf("encode branding: %w", err)
	}
	if slides, err = json.Marshal(c.Slides); err != nil {
		return nil, nil, nil, fmt.Errorf("encode slides: %w", err)
	}
	return theme, branding, slides, nil
}

func withDefaults(c *models.Carousel) {
	if c.TemplateType == "" {
		c.TemplateType = models.TemplateEditorial
	}
	if c.Format == "" {
		c.Format = models.FormatPortrait
	}
	if c.Pattern == "" {
		c.Pattern = models.PatternNone
	}
}

// Create inserts a carousel for c.UserID and returns the stored record.
// It fails with ErrStorageLimit when the owner is at their carousel limit
// and with ErrEmptyCarousel when c has no slides. The limit check and the
// insert run in one transaction holding the owner's row lock, so concurrent
// creates cannot overshoot the limit.
func (s *CarouselStore) Create(ctx context.Context, c *models.Carousel) (*models.Carousel, error) {
	if len(c.Slides) == 0 {
		return nil, ErrEmptyCarousel
	}
	in := *c
	withDefaults(&in)
	theme, branding, slides, err := documents(&in)
	if err != nil {
		return nil, fmt.Errorf("create carousel: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("create carousel begin: %w", err)
	}
	defer tx.Rollback()

	var limit int
	err = tx.QueryRowContext(ctx,
		`SELECT carousel_limit FROM users WHERE id = $1 FOR UPDATE`, in.UserID,
	).Scan(&limit)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("create carousel: unknown user %s", in.UserID)
	}
	if err != nil {
		return nil, fmt.Errorf("create carousel lock user: %w", err)
	}

	if limit > 0 {
		var count int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM carousels WHERE user_id = $1`, in.UserID,
		).Scan(&count); err != nil {
			return nil, fmt.Errorf("create carousel count: %w", err)
		}
		if count >= limit {
			return nil, ErrStorageLimit
		}
	}

	out, err := scanCarousel(tx.QueryRowContext(ctx, `
		INSERT INTO carousels (user_id, title, template_type, preset_id, theme, format,
		                       pattern, pattern_opacity, branding, slides, is_public)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+carouselColumns,
		in.UserID, in.Title, in.TemplateType, in.PresetID, theme, in.Format,
		in.Pattern, in.PatternOpacity, branding, slides, in.IsPublic,
	))
	if err != nil {
		return nil, fmt.Errorf("create carousel: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("create carousel commit: %w", err)
	}
	return out, nil
}

// FindByID retrieves a carousel by its UUID. Returns nil if not found.
func (s *CarouselStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Carousel, error) {
	c, err := scanCarousel(s.db.QueryRowContext(ctx,
		`SELECT `+carouselColumns+` FROM carousels WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find carousel by id: %w", err)
	}
	return c, nil
}

// FindOwned is FindByID restricted to carousels owned by userID.
func (s *CarouselStore) FindOwned(ctx context.Context, id, userID uuid.UUID) (*models.Carousel, error) {
	c, err := s.FindByID(ctx, id)
	if err != nil || c == nil || c.UserID != userID {
		return nil, err
	}
	return c, nil
}

// Update writes the editable fields of c. Visibility and the view counter
// are not touched. Returns ErrNotFound when c.ID does not belong to c.UserID.
func (s *CarouselStore) Update(ctx context.Context, c *models.Carousel) error {
	if len(c.Slides) == 0 {
		return ErrEmptyCarousel
	}
	in := *c
	withDefaults(&in)
	theme, branding, slides, err := documents(&in)
	if err != nil {
		return fmt.Errorf("update carousel: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE carousels SET
			title = $1, template_type = $2, preset_id = $3, theme = $4, format = $5,
			pattern = $6, pattern_opacity = $7, branding = $8, slides = $9,
			updated_at = NOW()
		WHERE id = $10 AND user_id = $11
	`, in.Title, in.TemplateType, in.PresetID, theme, in.Format,
		in.Pattern, in.PatternOpacity, branding, slides,
		in.ID, in.UserID,
	)
	if err != nil {
		return fmt.Errorf("update carousel: %w", err)
	}
	return expectOne(res, "update carousel")
}

// Delete removes a carousel owned by userID.
func (s *CarouselStore) Delete(ctx context.Context, id, userID uuid.UUID) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM carousels WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete carousel: %w", err)
	}
	return expectOne(res, "delete carousel")
}

// Duplicate copies a carousel owned by userID into a new private carousel.
// The copy counts against the storage limit.
func (s *CarouselStore) Duplicate(ctx context.Context, id, userID uuid.UUID) (*models.Carousel, error) {
	src, err := s.FindOwned(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("duplicate carousel: %w", err)
	}
	if src == nil {
		return nil, ErrNotFound
	}

	cp := *src
	cp.ID = uuid.Nil
	cp.IsPublic = false
	cp.ViewCount = 0
	if cp.Title != "" {
		cp.Title += " (copy)"
	}
	return s.Create(ctx, &cp)
}

// ListByUser returns summaries of the user's carousels, most recently
// updated first.
func (s *CarouselStore) ListByUser(ctx context.Context, userID uuid.UUID, f ListFilter) ([]models.CarouselSummary, error) {
	q := psql.
		Select("id", "title", "jsonb_array_length(slides)", "is_public", "view_count", "updated_at").
		From("carousels").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("updated_at DESC")
	if f.Public != nil {
		q = q.Where(sq.Eq{"is_public": *f.Public})
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build carousel list: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list carousels: %w", err)
	}
	defer rows.Close()

	var items []models.CarouselSummary
	for rows.Next() {
		var c models.CarouselSummary
		if err := rows.Scan(&c.ID, &c.Title, &c.SlideCount, &c.IsPublic, &c.ViewCount, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan carousel summary: %w", err)
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// CountByUser returns how many carousels the user stores.
func (s *CarouselStore) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM carousels WHERE user_id = $1`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count carousels: %w", err)
	}
	return n, nil
}

// SetVisibility publishes or unpublishes a carousel owned by userID.
func (s *CarouselStore) SetVisibility(ctx context.Context, id, userID uuid.UUID, public bool) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE carousels SET is_public = $1, updated_at = NOW()
		WHERE id = $2 AND user_id = $3
	`, public, id, userID)
	if err != nil {
		return fmt.Errorf("set carousel visibility: %w", err)
	}
	return expectOne(res, "set carousel visibility")
}

// IncrementViews bumps the view counter of a carousel. updated_at is left
// alone so that cached renders stay valid.
func (s *CarouselStore) IncrementViews(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE carousels SET view_count = view_count + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment carousel views: %w", err)
	}
	return nil
}

func expectOne(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
