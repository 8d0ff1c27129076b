package memstore

import (
	"context"
	"database/sql"

	"github.com/semanticallynull/twomove-rider/customer"
	"github.com/semanticallynull/twomove-rider/reservation"
)

func (s *Store) GetCustomer(_ context.Context, userID string) (*customer.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[userID]
	if !ok {
		return nil, customer.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

// CreateCustomer opens an empty wallet for userID. It is a no-op for known
// users.
func (s *Store) CreateCustomer(_ context.Context, userID string) (*customer.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[userID]
	if !ok {
		c = &customer.Customer{UserID: userID, CreatedAt: s.now()}
		s.customers[userID] = c
	}
	cp := *c
	return &cp, nil
}

// Recharge adds amount to the wallet and returns the new balance.
func (s *Store) Recharge(_ context.Context, userID string, amount reservation.Amount) (reservation.Amount, error) {
	if amount < reservation.Pesos(customer.MinRecharge) {
		return 0, customer.ErrMinRecharge
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[userID]
	if !ok {
		return 0, customer.ErrNotFound
	}
	c.Balance += amount
	return c.Balance, nil
}

func (s *Store) AddStripeIDToCustomer(_ context.Context, userID, stripeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.customers[userID]; ok {
		c.StripeID = sql.NullString{String: stripeID, Valid: true}
	}
	return nil
}

// SavePaymentMethod stores a confirmed card for the user.
func (s *Store) SavePaymentMethod(_ context.Context, userID, paymentMethodID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, list := range s.methods {
		for _, pm := range list {
			if pm.ID == paymentMethodID {
				return customer.ErrDuplicateCard
			}
		}
	}
	s.methods[userID] = append(s.methods[userID], customer.PaymentMethod{ID: paymentMethodID, UserID: userID, CreatedAt: s.now()})
	return nil
}

func (s *Store) PaymentMethods(_ context.Context, userID string) ([]customer.PaymentMethod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]customer.PaymentMethod{}, s.methods[userID]...), nil
}
