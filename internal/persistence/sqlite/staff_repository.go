package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/civisos/internal/persistence"
)

// StaffRepository implements persistence.StaffRepository using SQLite
type StaffRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
}

// NewStaffRepository creates a new SQLite staff repository
func NewStaffRepository(pool *ConnectionPool) *StaffRepository {
	return &StaffRepository{
		pool:   pool,
		mapper: NewErrorMapper(),
	}
}

// CreateStaff inserts a new staff account.
func (r *StaffRepository) CreateStaff(ctx context.Context, staff persistence.Staff) error {
	if staff.Name == "" || staff.PINHash == "" {
		return persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	if staff.CreatedAt.IsZero() {
		staff.CreatedAt = now
	}
	if staff.UpdatedAt.IsZero() {
		staff.UpdatedAt = staff.CreatedAt
	}

	query := `
		INSERT INTO staff (name, role, pin_hash, disabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.pool.DB().ExecContext(ctx, query,
		staff.Name,
		staff.Role,
		staff.PINHash,
		staff.Disabled,
		formatTime(staff.CreatedAt),
		formatTime(staff.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// UpdateStaff updates role, PIN hash and disabled flag of an existing account.
func (r *StaffRepository) UpdateStaff(ctx context.Context, staff persistence.Staff) error {
	query := `
		UPDATE staff
		SET role = ?, pin_hash = ?, disabled = ?, updated_at = ?
		WHERE name = ?
	`

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, query,
			staff.Role,
			staff.PINHash,
			staff.Disabled,
			formatTime(time.Now().UTC()),
			staff.Name,
		)
		if err != nil {
			return r.mapper.MapError(err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return persistence.ErrNotFound
		}
		return nil
	})
}

// GetStaff retrieves a staff account by name.
func (r *StaffRepository) GetStaff(ctx context.Context, name string) (persistence.Staff, error) {
	if name == "" {
		return persistence.Staff{}, persistence.ErrNotFound
	}

	query := `
		SELECT name, role, pin_hash, disabled, created_at, updated_at
		FROM staff
		WHERE name = ?
	`

	staff, err := scanStaff(r.pool.DB().QueryRowContext(ctx, query, name))
	if err != nil {
		return persistence.Staff{}, r.mapper.MapError(err)
	}
	return staff, nil
}

// ListStaff returns all staff accounts ordered by name.
func (r *StaffRepository) ListStaff(ctx context.Context) ([]persistence.Staff, error) {
	query := `
		SELECT name, role, pin_hash, disabled, created_at, updated_at
		FROM staff
		ORDER BY name
	`

	rows, err := r.pool.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	accounts := make([]persistence.Staff, 0)
	for rows.Next() {
		staff, err := scanStaff(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, staff)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return accounts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStaff(row rowScanner) (persistence.Staff, error) {
	var staff persistence.Staff
	var createdAt, updatedAt string
	if err := row.Scan(
		&staff.Name,
		&staff.Role,
		&staff.PINHash,
		&staff.Disabled,
		&createdAt,
		&updatedAt,
	); err != nil {
		return persistence.Staff{}, err
	}

	var err error
	if staff.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Staff{}, err
	}
	if staff.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Staff{}, err
	}
	return staff, nil
}
