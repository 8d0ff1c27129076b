package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/semanticallynull/twomove-rider/bike"
	"github.com/semanticallynull/twomove-rider/coordinator"
	"github.com/semanticallynull/twomove-rider/history"
	"github.com/semanticallynull/twomove-rider/internal/money"
	"github.com/semanticallynull/twomove-rider/payment"
	"github.com/semanticallynull/twomove-rider/reservation"
)

type stationsCmd struct{}

func (c *stationsCmd) Run(a *app) error {
	stations, err := a.session.LoadStations(a.ctx)
	if err != nil {
		return settled(err)
	}
	a.dump(stations)
	for _, st := range stations {
		fmt.Printf("%3d  %s\n", st.ID, st.Label())
	}
	return nil
}

type reservationsCmd struct{}

func (c *reservationsCmd) Run(a *app) error {
	list, err := a.session.LoadReservations(a.ctx)
	if err != nil {
		return settled(err)
	}
	a.dump(list)
	printState(a)
	return nil
}

func printState(a *app) {
	r, ok := a.session.Active()
	if !ok {
		fmt.Println("No tienes reservas activas.")
		return
	}
	fmt.Printf("Reserva #%d (%s)\n", r.ID, r.Estado)
	fmt.Printf("  %s → %s\n", r.EstacionOrigen, r.EstacionDestino)
	fmt.Printf("  Bicicleta: %s · %s · %s\n", r.BikeSerial, r.TipoViaje.Label(), r.MetodoPago.Label())
	fmt.Printf("  Fecha: %s %s · Costo estimado: %s\n", r.FechaReserva, r.HoraReserva, money.COP(r.CostoEstimado))
	if code := a.session.UnlockCode(); code != "" && r.Estado == reservation.EstadoReservado {
		fmt.Printf("  Código de desbloqueo: %s\n", code)
	}
	if elapsed, ok := a.session.TripTimer(); ok {
		fmt.Printf("  Tiempo de viaje: %s\n", elapsed)
	}
}

type reserveCmd struct {
	Origen  int64                  `arg:"" help:"Origin station id."`
	Destino int64                  `arg:"" help:"Destination station id."`
	Tipo    bike.Tipo              `name:"tipo" default:"electric" enum:"electric,manual"`
	Viaje   reservation.TipoViaje  `name:"viaje" default:"ultima_milla" enum:"ultima_milla,recorrido_largo"`
	Pago    reservation.MetodoPago `name:"pago" default:"wallet" enum:"wallet,card"`
	Fecha   string                 `name:"fecha" help:"YYYY-MM-DD, today when empty."`
	Hora    string                 `name:"hora" help:"HH:MM, now when empty."`
}

func (c *reserveCmd) Run(a *app) error {
	if _, err := a.session.LoadStations(a.ctx); err != nil {
		return settled(err)
	}

	now := time.Now()
	form := coordinator.NewReservationForm(now)
	form.Origen, form.Destino = c.Origen, c.Destino
	form.TipoBicicleta, form.TipoViaje, form.MetodoPago = c.Tipo, c.Viaje, c.Pago
	if c.Fecha != "" {
		form.Fecha = c.Fecha
	}
	form.Hora = c.Hora
	if form.Hora == "" {
		form.Hora = now.Format("15:04")
	}

	created, err := a.session.Reserve(a.ctx, form)
	if err != nil {
		return settled(err)
	}
	a.dump(created)
	printState(a)
	return nil
}

type startCmd struct {
	Codigo string `arg:"" help:"Unlock code or bike serial."`
}

func (c *startCmd) Run(a *app) error {
	res, err := a.session.StartTrip(a.ctx, c.Codigo)
	if err != nil {
		return settled(err)
	}
	a.dump(res)
	printState(a)
	return nil
}

type endCmd struct{}

func (c *endCmd) Run(a *app) error {
	if _, err := a.session.LoadReservations(a.ctx); err != nil {
		return settled(err)
	}
	res, err := a.session.EndTrip(a.ctx)
	if err != nil {
		return settled(err)
	}
	a.dump(res)
	return nil
}

type cancelCmd struct {
	RentalID int64  `arg:"" name:"rental-id"`
	Reason   string `name:"reason" short:"r" help:"Why the reservation is cancelled."`
}

func (c *cancelCmd) Run(a *app) error {
	if _, err := a.session.LoadReservations(a.ctx); err != nil {
		return settled(err)
	}
	res, err := a.session.Cancel(a.ctx, c.RentalID, c.Reason)
	if err != nil {
		return settled(err)
	}
	a.dump(res)
	return nil
}

type historyCmd struct {
	Estado reservation.Estado    `name:"estado" help:"completado, cancelado or activo."`
	Viaje  reservation.TipoViaje `name:"viaje" help:"ultima_milla or recorrido_largo."`
	Fecha  string                `name:"fecha" help:"Only trips of this YYYY-MM-DD day (UTC)."`
	Page   int                   `name:"page" default:"1"`
}

func (c *historyCmd) Run(a *app) error {
	resp, err := a.session.LoadHistory(a.ctx)
	if err != nil {
		return settled(err)
	}
	a.dump(resp)

	pager := a.session.History()
	pager.SetFilter(history.Filter{Estado: c.Estado, TipoViaje: c.Viaje, Fecha: c.Fecha})
	pager.GoTo(c.Page)

	trips := pager.Page()
	if len(trips) == 0 {
		fmt.Println("No hay viajes que coincidan con los filtros.")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFECHA\tORIGEN\tDESTINO\tTIPO\tDURACIÓN\tCOSTO\tESTADO")
	for _, t := range trips {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Day(), t.EstacionOrigen, t.EstacionDestino, t.TipoViaje.Label(),
			money.Minutes(t.DuracionMinutos), money.COP(t.CostoTotal), t.Estado)
	}
	w.Flush()

	stats := a.session.Statistics()
	fmt.Printf("Página %d de %d · %d viajes · Total gastado: %s\n",
		pager.PageNumber(), pager.Pages(), stats.TotalViajes, money.COP(stats.TotalGastado))
	return nil
}

type statsCmd struct{}

func (c *statsCmd) Run(a *app) error {
	d, err := a.session.LoadDashboard(a.ctx)
	if err != nil {
		return settled(err)
	}
	a.dump(d)
	fmt.Printf("Saldo: %s\n", money.COP(d.Saldo))
	fmt.Printf("Viajes: %d (%d este mes)\n", d.TotalViajes, d.ViajesMes)
	fmt.Printf("Tiempo total: %s\n", money.Minutes(d.MinutosTotales))
	fmt.Printf("Total gastado: %s\n", money.COP(d.TotalGastado))
	return nil
}

type rechargeCmd struct {
	Amount        string `arg:"" help:"Amount in pesos."`
	PaymentMethod string `name:"payment-method" short:"p" help:"Saved card id."`
}

func (c *rechargeCmd) Run(a *app) error {
	amount, err := reservation.ParseAmount(c.Amount)
	if err != nil {
		return err
	}
	res, err := a.session.Recharge(a.ctx, amount, c.PaymentMethod)
	if err != nil {
		return settled(err)
	}
	a.dump(res)
	return nil
}

type addCardCmd struct {
	Number   string `name:"number" required:""`
	ExpMonth int    `name:"exp-month" required:""`
	ExpYear  int    `name:"exp-year" required:""`
	CVC      string `name:"cvc" required:""`
	Holder   string `name:"holder"`
}

func (c *addCardCmd) Run(a *app, g *Globals) error {
	if g.StripePublishableKey == "" {
		return errors.New("--stripe-publishable-key is required to save cards")
	}
	secret, err := a.client.CreateSetupIntent(a.ctx)
	if err != nil {
		return fmt.Errorf("create setup intent: %w", err)
	}

	widget := payment.NewStripeWidget(g.StripePublishableKey, nil)
	if err := widget.Mount("card-element"); err != nil {
		return err
	}

	id, err := a.session.AddCard(a.ctx, widget, secret, payment.CardDetails{
		Number:     c.Number,
		ExpMonth:   c.ExpMonth,
		ExpYear:    c.ExpYear,
		CVC:        c.CVC,
		HolderName: c.Holder,
	})
	if err != nil {
		return settled(err)
	}
	fmt.Println(id)
	return nil
}
