package reservation

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/semanticallynull/twomove-rider/bike"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

const rentalColumns = `
SELECT rt.id, rt.user_id, rt.estado, rt.estacion_origen_id, so.nombre AS estacion_origen,
       rt.estacion_destino_id, sd.nombre AS estacion_destino, rt.tipo_viaje, rt.tipo_bicicleta,
       rt.metodo_pago, rt.bike_serial, rt.codigo_desbloqueo, rt.fecha_reserva, rt.hora_reserva,
       rt.hora_inicio, rt.hora_fin, rt.duracion_minutos, rt.costo_estimado, rt.costo_total,
       rt.cancel_reason, rt.created_at
FROM rentals rt
JOIN stations so ON so.id = rt.estacion_origen_id
LEFT JOIN stations sd ON sd.id = rt.estacion_destino_id
`

const getByIDQuery = rentalColumns + `WHERE rt.id = $1 AND rt.user_id = $2`

// Open fetches the user's reserved and active rentals, newest first.
func (r *Repository) Open(ctx context.Context, userID string) ([]Rental, error) {
	rentals := []Rental{}
	err := r.db.SelectContext(ctx, &rentals, getOpenQuery, userID)
	return rentals, err
}

const getOpenQuery = rentalColumns + `
WHERE rt.user_id = $1 AND rt.estado IN ('reservado', 'activo')
ORDER BY rt.created_at DESC
`

// History fetches every rental the user has started, newest first.
func (r *Repository) History(ctx context.Context, userID string) ([]Rental, error) {
	rentals := []Rental{}
	err := r.db.SelectContext(ctx, &rentals, getHistoryQuery, userID)
	return rentals, err
}

const getHistoryQuery = rentalColumns + `
WHERE rt.user_id = $1 AND (rt.hora_inicio IS NOT NULL OR rt.estado = 'cancelado')
ORDER BY rt.created_at DESC
`

// Reserve creates a rental, assigns a bike at the origin station and, for
// wallet payments, debits the estimated cost. Everything happens in one
// transaction so a failure leaves no partial state.
func (r *Repository) Reserve(ctx context.Context, p ReserveParams) (Rental, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return Rental{}, err
	}
	defer tx.Rollback()

	// Lock the customer row so two concurrent reservations serialize.
	var balance Amount
	err = tx.GetContext(ctx, &balance, lockCustomerQuery, p.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return Rental{}, ErrBalance
	}
	if err != nil {
		return Rental{}, err
	}

	var open []int64
	if err = tx.SelectContext(ctx, &open, checkOpenQuery, p.UserID); err != nil {
		return Rental{}, err
	}
	if len(open) > 0 {
		return Rental{}, ErrOpenRental
	}

	var stations int
	if err = tx.GetContext(ctx, &stations, countStationsQuery, p.EstacionOrigenID, p.EstacionDestinoID); err != nil {
		return Rental{}, err
	}
	if stations != 2 {
		return Rental{}, ErrNoStation
	}

	var b bike.Bike
	err = tx.GetContext(ctx, &b, pickBikeQuery, p.EstacionOrigenID, p.TipoBicicleta, bike.MinBattery)
	if errors.Is(err, sql.ErrNoRows) {
		return Rental{}, ErrNoBike
	}
	if err != nil {
		return Rental{}, err
	}

	cost := EstimatedCost(p.TipoViaje)
	if p.MetodoPago == Wallet {
		if balance < cost {
			return Rental{}, ErrBalance
		}
		if _, err = tx.ExecContext(ctx, adjustBalanceQuery, -cost, p.UserID); err != nil {
			return Rental{}, err
		}
	} else {
		var cards int
		if err = tx.GetContext(ctx, &cards, countCardsQuery, p.UserID); err != nil {
			return Rental{}, err
		}
		if cards == 0 {
			return Rental{}, ErrNoCard
		}
	}

	if _, err = tx.ExecContext(ctx, setBikeEstadoQuery, bike.Reserved, b.ID); err != nil {
		return Rental{}, err
	}

	var id int64
	err = tx.GetContext(ctx, &id, createRentalQuery,
		p.UserID, p.EstacionOrigenID, p.EstacionDestinoID, p.TipoViaje, p.TipoBicicleta, p.MetodoPago,
		b.Serial, p.Codigo, p.FechaReserva, p.HoraReserva, cost)
	if err != nil {
		return Rental{}, err
	}

	var rental Rental
	if err = tx.GetContext(ctx, &rental, getByIDQuery, id, p.UserID); err != nil {
		return Rental{}, err
	}
	return rental, tx.Commit()
}

const lockCustomerQuery = `SELECT balance FROM customers WHERE user_id = $1 FOR UPDATE`

const checkOpenQuery = `SELECT id FROM rentals WHERE user_id = $1 AND estado IN ('reservado', 'activo') FOR UPDATE`

const countStationsQuery = `SELECT count(*) FROM stations WHERE id IN ($1, $2)`

const pickBikeQuery = `
SELECT id, serial, tipo, estado, station_id, battery FROM bikes
WHERE station_id = $1
  AND tipo = $2
  AND estado = 'available'
  AND (tipo <> 'electric' OR battery >= $3)
ORDER BY id
LIMIT 1
FOR UPDATE
`

const countCardsQuery = `SELECT count(*) FROM payment_methods WHERE user_id = $1`

const adjustBalanceQuery = `UPDATE customers SET balance = balance + $1 WHERE user_id = $2`

const setBikeEstadoQuery = `UPDATE bikes SET estado = $1 WHERE id = $2`

const setBikeBySerialQuery = `UPDATE bikes SET estado = $1, station_id = COALESCE($2, station_id) WHERE serial = $3`

const createRentalQuery = `
INSERT INTO rentals (user_id, estado, estacion_origen_id, estacion_destino_id, tipo_viaje, tipo_bicicleta,
                     metodo_pago, bike_serial, codigo_desbloqueo, fecha_reserva, hora_reserva, costo_estimado, created_at)
VALUES ($1, 'reservado', $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
RETURNING id
`

// Start activates the user's single reserved rental when codigo matches its
// unlock code or the bike serial.
func (r *Repository) Start(ctx context.Context, userID, codigo string, now time.Time) (Rental, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return Rental{}, err
	}
	defer tx.Rollback()

	var reserved []Rental
	if err = tx.SelectContext(ctx, &reserved, lockReservedQuery, userID); err != nil {
		return Rental{}, err
	}
	if len(reserved) == 0 {
		return Rental{}, ErrNoReserved
	}
	rental := reserved[0]
	if !rental.Unlocks(codigo) {
		return Rental{}, ErrInvalidCode
	}

	if _, err = tx.ExecContext(ctx, startRentalQuery, rental.ID, now); err != nil {
		return Rental{}, err
	}
	if _, err = tx.ExecContext(ctx, setBikeBySerialQuery, bike.InUse, nil, rental.BikeSerial); err != nil {
		return Rental{}, err
	}

	if err = tx.GetContext(ctx, &rental, getByIDQuery, rental.ID, userID); err != nil {
		return Rental{}, err
	}
	return rental, tx.Commit()
}

const lockReservedQuery = `
SELECT rt.*, ''::text AS estacion_origen, NULL::text AS estacion_destino FROM rentals rt
WHERE rt.user_id = $1 AND rt.estado = 'reservado'
ORDER BY rt.created_at DESC
FOR UPDATE
`

const startRentalQuery = `UPDATE rentals SET estado = 'activo', hora_inicio = $2 WHERE id = $1`

// End completes an active rental, prices it and charges the wallet the part
// of the total not already paid on reservation.
func (r *Repository) End(ctx context.Context, userID string, id int64, now time.Time) (Rental, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return Rental{}, err
	}
	defer tx.Rollback()

	var rental Rental
	err = tx.GetContext(ctx, &rental, lockRentalQuery, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return Rental{}, ErrNotFound
	}
	if err != nil {
		return Rental{}, err
	}
	if rental.Estado != EstadoActivo {
		return Rental{}, ErrNotActive
	}

	rental.Finish(now)
	_, err = tx.ExecContext(ctx, endRentalQuery, rental.ID, now, rental.DuracionMinutos, rental.CostoTotal)
	if err != nil {
		return Rental{}, err
	}
	if _, err = tx.ExecContext(ctx, setBikeBySerialQuery, bike.Blocked, rental.EstacionDestinoID, rental.BikeSerial); err != nil {
		return Rental{}, err
	}
	if rental.MetodoPago == Wallet {
		if _, err = tx.ExecContext(ctx, adjustBalanceQuery, rental.CostoEstimado-rental.CostoTotal, userID); err != nil {
			return Rental{}, err
		}
	}

	if err = tx.GetContext(ctx, &rental, getByIDQuery, rental.ID, userID); err != nil {
		return Rental{}, err
	}
	return rental, tx.Commit()
}

const lockRentalQuery = `
SELECT rt.*, ''::text AS estacion_origen, NULL::text AS estacion_destino FROM rentals rt
WHERE rt.id = $1 AND rt.user_id = $2
FOR UPDATE
`

const endRentalQuery = `
UPDATE rentals SET estado = 'completado', hora_fin = $2, duracion_minutos = $3, costo_total = $4
WHERE id = $1
`

// Cancel cancels a reserved rental and refunds wallet payments.
func (r *Repository) Cancel(ctx context.Context, userID string, id int64, reason string, now time.Time) (Rental, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return Rental{}, err
	}
	defer tx.Rollback()

	var rental Rental
	err = tx.GetContext(ctx, &rental, lockRentalQuery, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return Rental{}, ErrNotFound
	}
	if err != nil {
		return Rental{}, err
	}
	if rental.Estado != EstadoReservado {
		return Rental{}, ErrNotCancellable
	}

	if _, err = tx.ExecContext(ctx, cancelRentalQuery, rental.ID, now, reason); err != nil {
		return Rental{}, err
	}
	if _, err = tx.ExecContext(ctx, setBikeBySerialQuery, bike.Available, nil, rental.BikeSerial); err != nil {
		return Rental{}, err
	}
	if rental.MetodoPago == Wallet {
		if _, err = tx.ExecContext(ctx, adjustBalanceQuery, rental.CostoEstimado, userID); err != nil {
			return Rental{}, err
		}
	}

	if err = tx.GetContext(ctx, &rental, getByIDQuery, rental.ID, userID); err != nil {
		return Rental{}, err
	}
	return rental, tx.Commit()
}

const cancelRentalQuery = `UPDATE rentals SET estado = 'cancelado', hora_fin = $2, cancel_reason = NULLIF($3, '') WHERE id = $1`
