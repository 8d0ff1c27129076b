package customer

import (
	"database/sql"
	"time"

	"github.com/semanticallynull/twomove-rider/reservation"
)

// MinRecharge is the smallest wallet top-up accepted, in pesos.
const MinRecharge = 1000

// Customer is a rider and their prepaid wallet.
type Customer struct {
	UserID    string             `db:"user_id"`
	Balance   reservation.Amount `db:"balance"`
	StripeID  sql.NullString     `db:"stripe_id"`
	Email     sql.NullString     `db:"email"`
	CreatedAt time.Time          `db:"created_at"`
}

// PaymentMethod is a card saved through the payment widget.
type PaymentMethod struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`
}
