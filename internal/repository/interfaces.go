// Package repository defines interfaces for data persistence
package repository

import (
	"context"

	"fixitapp/internal/domain"
)

// CustomerRepository defines the interface for customer data operations
type CustomerRepository interface {
	Create(ctx context.Context, customer *domain.Customer) error
	GetByID(ctx context.Context, id int64) (*domain.Customer, error)
	GetByEmail(ctx context.Context, email string) (*domain.Customer, error)
	Update(ctx context.Context, customer *domain.Customer) error
	// UpsertByEmail atomically inserts a customer or, when the email
	// already exists, updates name and phone in place and returns the
	// existing id. Email is the natural key.
	UpsertByEmail(ctx context.Context, customer *domain.Customer) error
	List(ctx context.Context, limit, offset int) ([]domain.Customer, error)
}

// BookingRepository defines the interface for booking data operations
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetByReference(ctx context.Context, reference string) (*domain.Booking, error)
	GetByCustomerID(ctx context.Context, customerID int64, limit, offset int) ([]domain.Booking, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	List(ctx context.Context, status string, limit, offset int) ([]domain.Booking, error)
	CountByStatus(ctx context.Context, status string) (int, error)
}

// SettingsRepository handles operational configuration, including the
// technician availability table
type SettingsRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Repositories bundles all repository interfaces
type Repositories struct {
	Customers CustomerRepository
	Bookings  BookingRepository
	Settings  SettingsRepository
}
