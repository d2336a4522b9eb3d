package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fixitapp/internal/domain"
	"fixitapp/internal/repository"
)

// CustomerRepo implements repository.CustomerRepository
type CustomerRepo struct {
	db *DB
}

// NewCustomerRepo creates a new CustomerRepo
func NewCustomerRepo(db *DB) repository.CustomerRepository {
	return &CustomerRepo{db: db}
}

func (r *CustomerRepo) Create(ctx context.Context, customer *domain.Customer) error {
	query := `
		INSERT INTO customers (full_name, phone, email, created_at)
		VALUES (?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		customer.FullName, customer.Phone, customer.Email, time.Now())
	if err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get customer ID: %w", err)
	}
	customer.ID = id
	return nil
}

func (r *CustomerRepo) GetByID(ctx context.Context, id int64) (*domain.Customer, error) {
	query := `SELECT id, full_name, phone, email, created_at FROM customers WHERE id = ?`
	customer := &domain.Customer{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&customer.ID, &customer.FullName, &customer.Phone, &customer.Email, &customer.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return customer, nil
}

func (r *CustomerRepo) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	query := `SELECT id, full_name, phone, email, created_at FROM customers WHERE email = ?`
	customer := &domain.Customer{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&customer.ID, &customer.FullName, &customer.Phone, &customer.Email, &customer.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer by email: %w", err)
	}
	return customer, nil
}

func (r *CustomerRepo) Update(ctx context.Context, customer *domain.Customer) error {
	query := `UPDATE customers SET full_name = ?, phone = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, customer.FullName, customer.Phone, customer.ID)
	if err != nil {
		return fmt.Errorf("failed to update customer: %w", err)
	}
	return nil
}

// UpsertByEmail relies on the UNIQUE constraint on email so that a
// concurrent commit for the same address cannot create a duplicate
// customer; the losing writer updates in place instead.
func (r *CustomerRepo) UpsertByEmail(ctx context.Context, customer *domain.Customer) error {
	query := `
		INSERT INTO customers (full_name, phone, email, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET
			full_name = excluded.full_name,
			phone = excluded.phone
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		customer.FullName, customer.Phone, customer.Email, time.Now()).
		Scan(&customer.ID, &customer.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert customer: %w", err)
	}
	return nil
}

func (r *CustomerRepo) List(ctx context.Context, limit, offset int) ([]domain.Customer, error) {
	query := `SELECT id, full_name, phone, email, created_at FROM customers ORDER BY created_at DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	var customers []domain.Customer
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(&c.ID, &c.FullName, &c.Phone, &c.Email, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	return customers, nil
}
