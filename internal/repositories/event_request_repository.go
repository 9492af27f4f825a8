package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"eventmarket/internal/models"
)

type EventRequestRepository struct {
	DB      *sql.DB
	Dialect Dialect
}

const eventRequestColumns = `id, customer_id, provider_id, category_id, title, description, event_date, status, created_at`

func (r *EventRequestRepository) CreateEventRequest(ctx context.Context, req models.EventRequest) (models.EventRequest, error) {
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	id, err := r.Dialect.insert(ctx, r.DB, `
INSERT INTO event_requests (customer_id, provider_id, category_id, title, description, event_date, status, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		req.CustomerID, req.ProviderID, req.CategoryID, req.Title, req.Description, req.EventDate, req.Status, req.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return models.EventRequest{}, fmt.Errorf("provider or category: %w", models.ErrNotFound)
		}
		return models.EventRequest{}, err
	}
	req.ID = id
	return req, nil
}

func (r *EventRequestRepository) GetEventRequestByID(ctx context.Context, id int) (models.EventRequest, error) {
	return r.get(ctx, r.DB, id)
}

func (r *EventRequestRepository) get(ctx context.Context, q querier, id int) (models.EventRequest, error) {
	row := r.Dialect.queryRow(ctx, q, `SELECT `+eventRequestColumns+` FROM event_requests WHERE id = ?`, id)
	req, err := scanEventRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.EventRequest{}, models.ErrRequestNotFound
	}
	return req, err
}

func (r *EventRequestRepository) GetEventRequestsByCustomer(ctx context.Context, customerID int) ([]models.EventRequest, error) {
	return r.list(ctx, `SELECT `+eventRequestColumns+` FROM event_requests WHERE customer_id = ? ORDER BY id`, customerID)
}

func (r *EventRequestRepository) GetEventRequestsByProvider(ctx context.Context, providerID int) ([]models.EventRequest, error) {
	return r.list(ctx, `SELECT `+eventRequestColumns+` FROM event_requests WHERE provider_id = ? ORDER BY id`, providerID)
}

// UpdateStatus moves the request from one status to another only if it is
// still in the expected status. A lost race yields ErrInvalidTransition. The
// read-back shares the UPDATE's transaction so the row lock covers it.
func (r *EventRequestRepository) UpdateStatus(ctx context.Context, id int, from, to string) (models.EventRequest, error) {
	var current models.EventRequest
	err := withTx(ctx, r.DB, func(tx *sql.Tx) error {
		res, err := r.Dialect.exec(ctx, tx, `UPDATE event_requests SET status = ? WHERE id = ? AND status = ?`, to, id, from)
		if err != nil {
			return err
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		current, err = r.get(ctx, tx, id)
		if err != nil {
			return err
		}
		if rows == 0 {
			return fmt.Errorf("%w: request %d is %s", models.ErrInvalidTransition, id, current.Status)
		}
		return nil
	})
	if err != nil {
		return models.EventRequest{}, err
	}
	return current, nil
}

func (r *EventRequestRepository) list(ctx context.Context, query string, args ...any) ([]models.EventRequest, error) {
	rows, err := r.Dialect.query(ctx, r.DB, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := []models.EventRequest{}
	for rows.Next() {
		req, err := scanEventRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

func scanEventRequest(row rowScanner) (models.EventRequest, error) {
	var req models.EventRequest
	err := row.Scan(
		&req.ID, &req.CustomerID, &req.ProviderID, &req.CategoryID, &req.Title,
		&req.Description, &req.EventDate, &req.Status, &req.CreatedAt,
	)
	return req, err
}
