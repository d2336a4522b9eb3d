package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"fixitapp/internal/domain"
	"fixitapp/internal/repository"
)

// BookingRepo implements repository.BookingRepository
type BookingRepo struct {
	db *DB
}

// NewBookingRepo creates a new BookingRepo
func NewBookingRepo(db *DB) repository.BookingRepository {
	return &BookingRepo{db: db}
}

func (r *BookingRepo) Create(ctx context.Context, booking *domain.Booking) error {
	issuesJSON, err := json.Marshal(booking.Issues)
	if err != nil {
		return fmt.Errorf("failed to encode booking issues: %w", err)
	}

	query := `
		INSERT INTO bookings (reference, customer_id, device_name, issues_json, tier_id, tier_name,
			status, total_estimate, notes, schedule_date, schedule_slot, address, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		booking.Reference, booking.CustomerID, booking.DeviceName, string(issuesJSON),
		booking.TierID, booking.TierName, booking.Status, booking.TotalEstimate,
		booking.Notes, booking.ScheduleDate, booking.ScheduleSlot, booking.Address, time.Now())
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get booking ID: %w", err)
	}
	booking.ID = id
	return nil
}

func (r *BookingRepo) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	query := bookingSelect + ` WHERE b.id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *BookingRepo) GetByReference(ctx context.Context, reference string) (*domain.Booking, error) {
	query := bookingSelect + ` WHERE b.reference = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, reference))
}

func (r *BookingRepo) GetByCustomerID(ctx context.Context, customerID int64, limit, offset int) ([]domain.Booking, error) {
	query := bookingSelect + ` WHERE b.customer_id = ? ORDER BY b.schedule_date DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, customerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get bookings by customer: %w", err)
	}
	defer rows.Close()

	return r.scanBookings(rows)
}

func (r *BookingRepo) UpdateStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE bookings SET status = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	return nil
}

func (r *BookingRepo) List(ctx context.Context, status string, limit, offset int) ([]domain.Booking, error) {
	var query string
	var args []interface{}

	if status != "" {
		query = bookingSelect + ` WHERE b.status = ? ORDER BY b.schedule_date DESC LIMIT ? OFFSET ?`
		args = []interface{}{status, limit, offset}
	} else {
		query = bookingSelect + ` ORDER BY b.schedule_date DESC LIMIT ? OFFSET ?`
		args = []interface{}{limit, offset}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	return r.scanBookings(rows)
}

func (r *BookingRepo) CountByStatus(ctx context.Context, status string) (int, error) {
	var query string
	var args []interface{}

	if status != "" {
		query = `SELECT COUNT(*) FROM bookings WHERE status = ?`
		args = []interface{}{status}
	} else {
		query = `SELECT COUNT(*) FROM bookings`
	}

	var count int
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

const bookingSelect = `
	SELECT b.id, b.reference, b.customer_id, b.device_name, b.issues_json, b.tier_id, b.tier_name,
		   b.status, b.total_estimate, b.notes, b.schedule_date, b.schedule_slot, b.address, b.created_at,
		   c.full_name, c.phone, c.email
	FROM bookings b
	LEFT JOIN customers c ON b.customer_id = c.id
`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *BookingRepo) scanRow(row rowScanner) (*domain.Booking, error) {
	booking := &domain.Booking{Customer: &domain.Customer{}}
	var issuesJSON string
	var notes sql.NullString

	err := row.Scan(
		&booking.ID, &booking.Reference, &booking.CustomerID, &booking.DeviceName,
		&issuesJSON, &booking.TierID, &booking.TierName, &booking.Status,
		&booking.TotalEstimate, &notes, &booking.ScheduleDate, &booking.ScheduleSlot,
		&booking.Address, &booking.CreatedAt,
		&booking.Customer.FullName, &booking.Customer.Phone, &booking.Customer.Email,
	)
	if err != nil {
		return nil, err
	}

	booking.Notes = notes.String
	booking.Customer.ID = booking.CustomerID
	if err := json.Unmarshal([]byte(issuesJSON), &booking.Issues); err != nil {
		return nil, fmt.Errorf("failed to decode booking issues: %w", err)
	}
	return booking, nil
}

func (r *BookingRepo) scanOne(row *sql.Row) (*domain.Booking, error) {
	booking, err := r.scanRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

func (r *BookingRepo) scanBookings(rows *sql.Rows) ([]domain.Booking, error) {
	var bookings []domain.Booking
	for rows.Next() {
		booking, err := r.scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, *booking)
	}
	return bookings, nil
}
