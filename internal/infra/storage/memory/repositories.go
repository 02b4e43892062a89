package memory

import (
	"context"
	"sync"

	domainbooking "staybook/internal/domain/booking"
)

// BookingRepository keeps booking requests in memory. Saves are version checked the
// same way the Mongo repository checks them.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.RequestID]*domainbooking.BookingRequest
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.RequestID]*domainbooking.BookingRequest)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.RequestID) (*domainbooking.BookingRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrBookingNotFound
	}
	return snapshot(stored), nil
}

func (r *BookingRepository) Save(ctx context.Context, req *domainbooking.BookingRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current := int64(0)
	if stored, ok := r.items[req.ID]; ok {
		current = stored.Version
	}
	if current != req.Version {
		return domainbooking.ErrConcurrentUpdate
	}
	req.Version++
	r.items[req.ID] = snapshot(req)
	return nil
}

func (r *BookingRepository) List(ctx context.Context, filter domainbooking.Filter) ([]*domainbooking.BookingRequest, error) {
	r.mu.RLock()
	all := make([]*domainbooking.BookingRequest, 0, len(r.items))
	for _, stored := range r.items {
		all = append(all, snapshot(stored))
	}
	r.mu.RUnlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return domainbooking.Select(all, filter), nil
}

func snapshot(req *domainbooking.BookingRequest) *domainbooking.BookingRequest {
	clone := *req
	clone.ClearEvents()
	return &clone
}

var _ domainbooking.Repository = (*BookingRepository)(nil)
