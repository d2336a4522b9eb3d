// Package memory provides in-memory implementations of the repository
// interfaces, used in tests and local development without a database.
package memory

import (
	"context"
	"sync"
	"time"

	"fixitapp/internal/domain"
	"fixitapp/internal/repository"
)

// NewRepositories bundles fresh in-memory repositories.
func NewRepositories() *repository.Repositories {
	return &repository.Repositories{
		Customers: NewCustomerRepo(),
		Bookings:  NewBookingRepo(),
		Settings:  NewSettingsRepo(),
	}
}

// CustomerRepo implements repository.CustomerRepository in memory
type CustomerRepo struct {
	mu        sync.Mutex
	nextID    int64
	customers map[int64]domain.Customer
}

// NewCustomerRepo creates an empty customer repo.
func NewCustomerRepo() *CustomerRepo {
	return &CustomerRepo{nextID: 1, customers: make(map[int64]domain.Customer)}
}

func (r *CustomerRepo) Create(ctx context.Context, customer *domain.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	customer.ID = r.nextID
	customer.CreatedAt = time.Now()
	r.nextID++
	r.customers[customer.ID] = *customer
	return nil
}

func (r *CustomerRepo) GetByID(ctx context.Context, id int64) (*domain.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.customers[id]; ok {
		return &c, nil
	}
	return nil, nil
}

func (r *CustomerRepo) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.customers {
		if c.Email == email {
			found := c
			return &found, nil
		}
	}
	return nil, nil
}

func (r *CustomerRepo) Update(ctx context.Context, customer *domain.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.customers[customer.ID]; ok {
		existing.FullName = customer.FullName
		existing.Phone = customer.Phone
		r.customers[customer.ID] = existing
	}
	return nil
}

func (r *CustomerRepo) UpsertByEmail(ctx context.Context, customer *domain.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.customers {
		if c.Email == customer.Email {
			c.FullName = customer.FullName
			c.Phone = customer.Phone
			r.customers[id] = c
			customer.ID = id
			customer.CreatedAt = c.CreatedAt
			return nil
		}
	}
	customer.ID = r.nextID
	customer.CreatedAt = time.Now()
	r.nextID++
	r.customers[customer.ID] = *customer
	return nil
}

func (r *CustomerRepo) List(ctx context.Context, limit, offset int) ([]domain.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Customer
	for _, c := range r.customers {
		out = append(out, c)
	}
	return out, nil
}

// BookingRepo implements repository.BookingRepository in memory
type BookingRepo struct {
	mu       sync.Mutex
	nextID   int64
	bookings map[int64]domain.Booking

	// FailCreate forces Create to fail, for commit-failure tests
	FailCreate error
}

// NewBookingRepo creates an empty booking repo.
func NewBookingRepo() *BookingRepo {
	return &BookingRepo{nextID: 1, bookings: make(map[int64]domain.Booking)}
}

func (r *BookingRepo) Create(ctx context.Context, booking *domain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailCreate != nil {
		return r.FailCreate
	}
	booking.ID = r.nextID
	booking.CreatedAt = time.Now()
	r.nextID++
	r.bookings[booking.ID] = *booking
	return nil
}

func (r *BookingRepo) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.bookings[id]; ok {
		return &b, nil
	}
	return nil, nil
}

func (r *BookingRepo) GetByReference(ctx context.Context, reference string) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bookings {
		if b.Reference == reference {
			found := b
			return &found, nil
		}
	}
	return nil, nil
}

func (r *BookingRepo) GetByCustomerID(ctx context.Context, customerID int64, limit, offset int) ([]domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Booking
	for _, b := range r.bookings {
		if b.CustomerID == customerID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *BookingRepo) UpdateStatus(ctx context.Context, id int64, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.bookings[id]; ok {
		b.Status = status
		r.bookings[id] = b
	}
	return nil
}

func (r *BookingRepo) List(ctx context.Context, status string, limit, offset int) ([]domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Booking
	for _, b := range r.bookings {
		if status == "" || b.Status == status {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *BookingRepo) CountByStatus(ctx context.Context, status string) (int, error) {
	list, _ := r.List(ctx, status, 0, 0)
	return len(list), nil
}

// SettingsRepo implements repository.SettingsRepository in memory
type SettingsRepo struct {
	mu     sync.Mutex
	values map[string]string
}

// NewSettingsRepo creates an empty settings repo.
func NewSettingsRepo() *SettingsRepo {
	return &SettingsRepo{values: make(map[string]string)}
}

func (r *SettingsRepo) Get(ctx context.Context, key string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.values[key], nil
}

func (r *SettingsRepo) Set(ctx context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[key] = value
	return nil
}
