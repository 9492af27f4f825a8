package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"eventmarket/internal/models"
)

type ProviderRepository struct {
	DB      *sql.DB
	Dialect Dialect
}

const providerColumns = `id, user_id, company_name, description, location, experience, contact_info, category_id, tags, image_url, rating, review_count`

func (r *ProviderRepository) GetProviders(ctx context.Context, filter models.ProviderFilter) ([]models.ServiceProvider, error) {
	var (
		conds []string
		args  []any
	)
	if filter.CategoryID > 0 {
		conds = append(conds, "category_id = ?")
		args = append(args, filter.CategoryID)
	}
	query := `SELECT ` + providerColumns + ` FROM service_providers`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY id"
	return r.list(ctx, query, args...)
}

// GetTopRated orders by rating, breaking ties by insertion order.
func (r *ProviderRepository) GetTopRated(ctx context.Context, limit int) ([]models.ServiceProvider, error) {
	return r.list(ctx, `SELECT `+providerColumns+` FROM service_providers ORDER BY rating DESC, id ASC LIMIT ?`, limit)
}

func (r *ProviderRepository) GetProviderByID(ctx context.Context, id int) (models.ServiceProvider, error) {
	row := r.Dialect.queryRow(ctx, r.DB, `SELECT `+providerColumns+` FROM service_providers WHERE id = ?`, id)
	return scanProvider(row)
}

func (r *ProviderRepository) GetProviderByUserID(ctx context.Context, userID int) (models.ServiceProvider, error) {
	row := r.Dialect.queryRow(ctx, r.DB, `SELECT `+providerColumns+` FROM service_providers WHERE user_id = ?`, userID)
	return scanProvider(row)
}

func (r *ProviderRepository) UpdateImage(ctx context.Context, id int, imageURL string) (models.ServiceProvider, error) {
	// RowsAffected is 0 on MySQL when the value is unchanged, so existence is
	// confirmed by reading the row back.
	if _, err := r.Dialect.exec(ctx, r.DB, `UPDATE service_providers SET image_url = ? WHERE id = ?`, imageURL, id); err != nil {
		return models.ServiceProvider{}, err
	}
	return r.GetProviderByID(ctx, id)
}

func (r *ProviderRepository) list(ctx context.Context, query string, args ...any) ([]models.ServiceProvider, error) {
	rows, err := r.Dialect.query(ctx, r.DB, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	providers := []models.ServiceProvider{}
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	return providers, rows.Err()
}

func scanProvider(row rowScanner) (models.ServiceProvider, error) {
	var (
		p    models.ServiceProvider
		tags sql.NullString
	)
	err := row.Scan(
		&p.ID, &p.UserID, &p.CompanyName, &p.Description, &p.Location, &p.Experience,
		&p.ContactInfo, &p.CategoryID, &tags, &p.ImageURL, &p.Rating, &p.ReviewCount,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ServiceProvider{}, models.ErrProviderNotFound
		}
		return models.ServiceProvider{}, err
	}
	p.Tags = []string{}
	if tags.Valid && tags.String != "" {
		if err := json.Unmarshal([]byte(tags.String), &p.Tags); err != nil {
			return models.ServiceProvider{}, fmt.Errorf("decode tags for provider %d: %w", p.ID, err)
		}
	}
	return p, nil
}
