package api

import (
	"errors"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v84"
	stripecustomer "github.com/stripe/stripe-go/v84/customer"
	"github.com/stripe/stripe-go/v84/paymentintent"
	"github.com/stripe/stripe-go/v84/paymentmethod"
	"github.com/stripe/stripe-go/v84/setupintent"

	"github.com/semanticallynull/twomove-rider/customer"
	"github.com/semanticallynull/twomove-rider/internal/middleware"
	"github.com/semanticallynull/twomove-rider/reservation"
)

// stripeCustomer returns the user's wallet, creating it and its Stripe
// customer on first use.
func (a *API) stripeCustomer(c *gin.Context, userID string) (*customer.Customer, error) {
	cust, err := a.wr.CreateCustomer(c, userID)
	if err != nil {
		return nil, err
	}
	if cust.StripeID.Valid {
		return cust, nil
	}

	sc, err := stripecustomer.New(&stripe.CustomerParams{
		Metadata: map[string]string{"user_id": userID},
	})
	if err != nil {
		return nil, err
	}
	if err := a.wr.AddStripeIDToCustomer(c, userID, sc.ID); err != nil {
		return nil, err
	}
	cust.StripeID.String, cust.StripeID.Valid = sc.ID, true
	return cust, nil
}

func (a *API) createSetupIntent(c *gin.Context) {
	logger := middleware.GetLogger(c)
	userID, _ := middleware.GetUserID(c)

	if !a.payments {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Pagos con tarjeta no disponibles."})
		return
	}

	cust, err := a.stripeCustomer(c, userID)
	if err != nil {
		logger.Error("Failed to prepare stripe customer", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	si, err := setupintent.New(&stripe.SetupIntentParams{
		Customer:           stripe.String(cust.StripeID.String),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Usage:              stripe.String(string(stripe.SetupIntentUsageOffSession)),
	})
	if err != nil {
		logger.Error("Failed to create setup intent", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, struct {
		SetupIntent string `json:"setupIntent"`
	}{
		SetupIntent: si.ClientSecret,
	})
}

type saveCardRequest struct {
	PaymentMethodID string `json:"payment_method_id" binding:"required"`
}

func (a *API) saveCardHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)
	userID, _ := middleware.GetUserID(c)

	var req saveCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Debe enviar 'payment_method_id'."})
		return
	}

	cust, err := a.wr.CreateCustomer(c, userID)
	if err != nil {
		logger.Error("Failed to create customer", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if a.payments && cust.StripeID.Valid {
		_, err := paymentmethod.Attach(req.PaymentMethodID, &stripe.PaymentMethodAttachParams{
			Customer: stripe.String(cust.StripeID.String),
		})
		if err != nil {
			logger.Warn("Failed to attach payment method", "error", err, "payment_method", req.PaymentMethodID)
			c.JSON(http.StatusBadRequest, gin.H{"error": "No se pudo registrar la tarjeta."})
			return
		}
	}

	if err := a.wr.SavePaymentMethod(c, userID, req.PaymentMethodID); err != nil {
		if errors.Is(err, customer.ErrDuplicateCard) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "La tarjeta ya está registrada."})
			return
		}
		logger.Error("Failed to save payment method", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"mensaje": "Tarjeta guardada exitosamente."})
}

type rechargeRequest struct {
	Amount          reservation.Amount `json:"amount"`
	PaymentMethodID string             `json:"payment_method_id"`
}

type rechargeResponse struct {
	Mensaje string             `json:"mensaje"`
	Estado  string             `json:"estado"`
	Monto   reservation.Amount `json:"monto"`
	Saldo   reservation.Amount `json:"saldo"`
}

func (a *API) rechargeHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)
	userID, _ := middleware.GetUserID(c)

	var req rechargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Datos de recarga inválidos."})
		return
	}
	if req.Amount < reservation.Pesos(customer.MinRecharge) {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "El monto mínimo de recarga es $1,000 COP"})
		return
	}
	if req.PaymentMethodID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Debe seleccionar un método de pago."})
		return
	}

	cust, err := a.wr.CreateCustomer(c, userID)
	if err != nil {
		logger.Error("Failed to create customer", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Error interno del servidor."})
		return
	}

	methods, err := a.wr.PaymentMethods(c, userID)
	if err != nil {
		logger.Error("Failed to list payment methods", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Error interno del servidor."})
		return
	}
	owned := slices.ContainsFunc(methods, func(pm customer.PaymentMethod) bool {
		return pm.ID == req.PaymentMethodID
	})
	if !owned {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Método de pago no válido."})
		return
	}

	if a.payments && cust.StripeID.Valid {
		pi, err := paymentintent.New(&stripe.PaymentIntentParams{
			Amount:        stripe.Int64(int64(req.Amount)),
			Currency:      stripe.String(string(stripe.CurrencyCOP)),
			Customer:      stripe.String(cust.StripeID.String),
			PaymentMethod: stripe.String(req.PaymentMethodID),
			Confirm:       stripe.Bool(true),
			OffSession:    stripe.Bool(true),
		})
		if err != nil {
			logger.Warn("Recharge payment failed", "error", err)
			c.JSON(http.StatusPaymentRequired, gin.H{"detail": "El pago fue rechazado."})
			return
		}
		if pi.Status != stripe.PaymentIntentStatusSucceeded {
			logger.Warn("Recharge payment not completed", "status", pi.Status, "payment_intent", pi.ID)
			c.JSON(http.StatusPaymentRequired, gin.H{"detail": "El pago no pudo completarse."})
			return
		}
	}

	balance, err := a.wr.Recharge(c, userID, req.Amount)
	if err != nil {
		if errors.Is(err, customer.ErrMinRecharge) {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "El monto mínimo de recarga es $1,000 COP"})
			return
		}
		logger.Error("Failed to recharge wallet", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Error interno del servidor."})
		return
	}

	c.JSON(http.StatusOK, rechargeResponse{
		Mensaje: "Recarga exitosa.",
		Estado:  "exitoso",
		Monto:   req.Amount,
		Saldo:   balance,
	})
}
