package storage

import (
	"context"

	"github.com/belvedhair/booking/services/booking-service/internal/model"
	"github.com/jackc/pgx/v5"
)

func (r *Repository) WorkingHours(ctx context.Context, staffID string, weekday int) ([]model.WorkingHoursRule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT staff_id::text, weekday, start_minute, end_minute
		FROM staff_working_hours
		WHERE staff_id::text = $1 AND weekday = $2
		ORDER BY start_minute ASC
	`, staffID, weekday)
	if err != nil {
		return nil, err
	}
	return collectRules(rows)
}

func (r *Repository) ListWorkingHours(ctx context.Context, staffID string) ([]model.WorkingHoursRule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT staff_id::text, weekday, start_minute, end_minute
		FROM staff_working_hours
		WHERE staff_id::text = $1
		ORDER BY weekday ASC, start_minute ASC
	`, staffID)
	if err != nil {
		return nil, err
	}
	return collectRules(rows)
}

func collectRules(rows pgx.Rows) ([]model.WorkingHoursRule, error) {
	defer rows.Close()

	var out []model.WorkingHoursRule
	for rows.Next() {
		var wh model.WorkingHoursRule
		var start, end int
		if err := rows.Scan(&wh.StaffID, &wh.Weekday, &start, &end); err != nil {
			return nil, err
		}
		wh.Start = model.TimeOfDay(start)
		wh.End = model.TimeOfDay(end)
		out = append(out, wh)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// ReplaceWorkingHours swaps all shifts of staffID on weekday for rules.
func (r *Repository) ReplaceWorkingHours(ctx context.Context, staffID string, weekday int, rules []model.WorkingHoursRule) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var exists bool
	if err := tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM staff WHERE id::text = $1
		)
	`, staffID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return mapError(pgx.ErrNoRows, "staff "+staffID)
	}

	if _, err := tx.Exec(ctx, `
		DELETE FROM staff_working_hours
		WHERE staff_id::text = $1 AND weekday = $2
	`, staffID, weekday); err != nil {
		return err
	}
	for _, rule := range rules {
		if _, err := tx.Exec(ctx, `
			INSERT INTO staff_working_hours (staff_id, weekday, start_minute, end_minute)
			VALUES ($1, $2, $3, $4)
		`, staffID, weekday, int(rule.Start), int(rule.End)); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *Repository) InsertTimeOff(ctx context.Context, t model.TimeOff) (string, error) {
	var id string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO staff_time_off (staff_id, start_time, end_time, reason)
		VALUES ($1, $2, $3, $4)
		RETURNING id::text
	`, t.StaffID, t.Start, t.End, t.Reason).Scan(&id)
	if err != nil {
		return "", mapError(err, "insert time off")
	}
	return id, nil
}

func (r *Repository) CreateStaff(ctx context.Context, s model.Staff) (string, error) {
	var id string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO staff (name, photo_url, is_active)
		VALUES ($1, $2, $3)
		RETURNING id::text
	`, s.Name, s.PhotoURL, s.IsActive).Scan(&id)
	return id, err
}

// ListStaff returns staff ordered by name; inactive members only when activeOnly is false.
func (r *Repository) ListStaff(ctx context.Context, activeOnly bool) ([]model.Staff, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, name, photo_url, is_active
		FROM staff
		WHERE is_active OR NOT $1
		ORDER BY name ASC
	`, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Staff{}
	for rows.Next() {
		var s model.Staff
		if err := rows.Scan(&s.ID, &s.Name, &s.PhotoURL, &s.IsActive); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}
