package coordinator

import (
	"context"
	"errors"
	"fmt"

	"github.com/semanticallynull/twomove-rider/client"
	"github.com/semanticallynull/twomove-rider/internal/money"
	"github.com/semanticallynull/twomove-rider/internal/notify"
	"github.com/semanticallynull/twomove-rider/payment"
	"github.com/semanticallynull/twomove-rider/reservation"
)

// ErrCardRejected is returned when the payment widget declines the card.
var ErrCardRejected = errors.New("card rejected by payment widget")

const msgConnection = "❌ Error de conexión con el servidor"

// Recharge tops up the wallet with amount charged to a saved card.
func (s *Session) Recharge(ctx context.Context, amount reservation.Amount, paymentMethodID string) (client.RechargeResult, error) {
	if v := validateRecharge(amount, paymentMethodID); v != nil {
		return client.RechargeResult{}, s.warn(v)
	}

	btn := s.buttons[ActionRecharge]
	if err := btn.acquire(); err != nil {
		return client.RechargeResult{}, err
	}
	defer btn.release()

	res, err := s.backend.Recharge(ctx, client.RechargeRequest{Amount: amount, PaymentMethodID: paymentMethodID})
	if err != nil {
		return client.RechargeResult{}, s.fail(ctx, "Failed to recharge wallet", err,
			"No se pudo procesar la recarga.", msgConnection)
	}
	s.logger.InfoContext(ctx, "Wallet recharged", "amount", amount.String(), "balance", res.Saldo.String())

	msg := res.Mensaje
	if msg == "" {
		msg = "Recarga exitosa."
	}
	s.alerts.Show(fmt.Sprintf("✅ %s Nuevo saldo: %s", msg, money.COP(res.Saldo)), notify.Success)
	return res, nil
}

// AddCard confirms card through the payment widget and saves the resulting
// payment method with the backend. It returns the payment method id.
func (s *Session) AddCard(ctx context.Context, widget payment.Widget, clientSecret string, card payment.CardDetails) (string, error) {
	if ev := payment.Inspect(card, s.now()); !ev.Complete {
		msg := ev.Error
		if msg == "" {
			msg = "Por favor, completa los datos de la tarjeta."
		}
		return "", s.warn(invalid(FieldCard, msg))
	}

	btn := s.buttons[ActionAddCard]
	if err := btn.acquire(); err != nil {
		return "", err
	}
	defer btn.release()

	setup, err := widget.ConfirmSetup(ctx, clientSecret, card)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to confirm card setup", "error", err)
		if errors.Is(err, payment.ErrNotMounted) || errors.Is(err, payment.ErrClientSecret) {
			s.alerts.Show("Error al inicializar el sistema de pagos", notify.Danger)
		} else {
			s.alerts.Show(msgConnection, notify.Danger)
		}
		return "", err
	}
	if setup.Error != "" {
		s.logger.InfoContext(ctx, "Card rejected", "reason", setup.Error)
		s.alerts.Show("❌ "+setup.Error, notify.Danger)
		return "", fmt.Errorf("%w: %s", ErrCardRejected, setup.Error)
	}

	saved, err := s.backend.SaveCard(ctx, setup.PaymentMethodID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to save card", "error", err)
		if _, ok := client.AsAPIError(err); ok {
			s.alerts.Show("❌ "+client.Message(err, "Error al guardar la tarjeta"), notify.Danger)
		} else {
			s.alerts.Show(msgConnection, notify.Danger)
		}
		return "", err
	}

	msg := saved.Mensaje
	if msg == "" {
		msg = "Tarjeta guardada correctamente"
	}
	s.alerts.Show("✅ "+msg, notify.Success)
	return setup.PaymentMethodID, nil
}
