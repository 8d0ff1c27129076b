package payment

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/setupintent"
)

// StripeWidget confirms SetupIntents with a publishable key, the same call
// Stripe's card element makes from the browser.
type StripeWidget struct {
	client setupintent.Client
	now    func() time.Time

	mu       sync.Mutex
	element  string
	handlers []func(ChangeEvent)
}

// NewStripeWidget builds a widget for publishableKey. backend may be nil to
// talk to the live Stripe API.
func NewStripeWidget(publishableKey string, backend stripe.Backend) *StripeWidget {
	if backend == nil {
		backend = stripe.GetBackend(stripe.APIBackend)
	}
	return &StripeWidget{
		client: setupintent.Client{B: backend, Key: publishableKey},
		now:    time.Now,
	}
}

func (w *StripeWidget) Mount(element string) error {
	if element == "" {
		return errors.New("mount element is required")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.element = element
	return nil
}

func (w *StripeWidget) OnChange(fn func(ChangeEvent)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = append(w.handlers, fn)
}

// Update feeds new form content to the widget and notifies change handlers.
func (w *StripeWidget) Update(card CardDetails) ChangeEvent {
	ev := Inspect(card, w.now())
	w.mu.Lock()
	handlers := append([]func(ChangeEvent){}, w.handlers...)
	w.mu.Unlock()
	for _, h := range handlers {
		h(ev)
	}
	return ev
}

func (w *StripeWidget) ConfirmSetup(ctx context.Context, clientSecret string, card CardDetails) (SetupResult, error) {
	w.mu.Lock()
	mounted := w.element != ""
	w.mu.Unlock()
	if !mounted {
		return SetupResult{}, ErrNotMounted
	}
	if ev := w.Update(card); !ev.Complete {
		return SetupResult{Error: ev.Error}, nil
	}

	id, err := SetupIntentID(clientSecret)
	if err != nil {
		return SetupResult{}, err
	}

	params := &stripe.SetupIntentConfirmParams{}
	params.Context = ctx
	params.AddExtra("client_secret", clientSecret)
	params.AddExtra("payment_method_data[type]", "card")
	params.AddExtra("payment_method_data[card][number]", digits(card.Number))
	params.AddExtra("payment_method_data[card][exp_month]", strconv.Itoa(card.ExpMonth))
	params.AddExtra("payment_method_data[card][exp_year]", strconv.Itoa(card.ExpYear))
	params.AddExtra("payment_method_data[card][cvc]", digits(card.CVC))
	params.AddExtra("payment_method_data[billing_details][name]", card.HolderName)

	si, err := w.client.Confirm(id, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
			return SetupResult{Error: stripeErr.Msg}, nil
		}
		return SetupResult{}, err
	}
	if si.PaymentMethod == nil {
		return SetupResult{Error: "La tarjeta no fue confirmada."}, nil
	}
	return SetupResult{PaymentMethodID: si.PaymentMethod.ID}, nil
}
