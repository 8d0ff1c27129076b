package customer

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/semanticallynull/twomove-rider/reservation"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{
		db: db,
	}
}

var (
	ErrNotFound      = errors.New("customer not found")
	ErrMinRecharge   = errors.New("recharge below minimum")
	ErrDuplicateCard = errors.New("payment method already saved")
)

func (r *Repository) GetCustomer(ctx context.Context, userID string) (*Customer, error) {
	var customer Customer
	err := r.db.GetContext(ctx, &customer, getCustomerQuery, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}

		return nil, err
	}
	return &customer, nil
}

const getCustomerQuery = "SELECT * FROM customers WHERE user_id = $1"

// CreateCustomer opens an empty wallet for userID. It is a no-op for known
// users.
func (r *Repository) CreateCustomer(ctx context.Context, userID string) (*Customer, error) {
	var customer Customer
	err := r.db.GetContext(ctx, &customer, createCustomerQuery, userID)
	return &customer, err
}

const createCustomerQuery = `
INSERT INTO customers (user_id, balance, created_at) VALUES ($1, 0, now())
ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
RETURNING *
`

// Recharge adds amount to the wallet and returns the new balance.
func (r *Repository) Recharge(ctx context.Context, userID string, amount reservation.Amount) (reservation.Amount, error) {
	if amount < reservation.Pesos(MinRecharge) {
		return 0, ErrMinRecharge
	}
	var balance reservation.Amount
	err := r.db.GetContext(ctx, &balance, rechargeQuery, amount, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return balance, err
}

const rechargeQuery = "UPDATE customers SET balance = balance + $1 WHERE user_id = $2 RETURNING balance"

func (r *Repository) AddStripeIDToCustomer(ctx context.Context, userID, stripeID string) error {
	_, err := r.db.ExecContext(ctx, addStripeIDToCustomerQuery, stripeID, userID)
	return err
}

const addStripeIDToCustomerQuery = "UPDATE customers SET stripe_id = $1 WHERE user_id = $2"

// SavePaymentMethod stores a confirmed card for the user.
func (r *Repository) SavePaymentMethod(ctx context.Context, userID, paymentMethodID string) error {
	res, err := r.db.ExecContext(ctx, savePaymentMethodQuery, paymentMethodID, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrDuplicateCard
	}
	return nil
}

const savePaymentMethodQuery = `
INSERT INTO payment_methods (id, user_id, created_at) VALUES ($1, $2, now())
ON CONFLICT (id) DO NOTHING
`

func (r *Repository) PaymentMethods(ctx context.Context, userID string) ([]PaymentMethod, error) {
	methods := []PaymentMethod{}
	err := r.db.SelectContext(ctx, &methods, paymentMethodsQuery, userID)
	return methods, err
}

const paymentMethodsQuery = "SELECT * FROM payment_methods WHERE user_id = $1 ORDER BY created_at"
