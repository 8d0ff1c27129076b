package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/alecthomas/kong"
	"github.com/davecgh/go-spew/spew"
	"github.com/joho/godotenv"

	"github.com/semanticallynull/twomove-rider/client"
	"github.com/semanticallynull/twomove-rider/coordinator"
	"github.com/semanticallynull/twomove-rider/internal/notify"
	"github.com/semanticallynull/twomove-rider/internal/o11y"
)

type Globals struct {
	BaseURL   string        `name:"base-url" env:"TWOMOVE_BASE_URL" default:"http://localhost:8000"`
	SessionID string        `name:"session-id" env:"TWOMOVE_SESSION_ID" help:"Value of the sessionid cookie."`
	CSRFToken string        `name:"csrf-token" env:"TWOMOVE_CSRF_TOKEN" help:"Value of the csrftoken cookie."`
	Timeout   time.Duration `name:"timeout" env:"TWOMOVE_TIMEOUT" default:"15s"`

	StripePublishableKey string `name:"stripe-publishable-key" env:"STRIPE_PUBLISHABLE_KEY"`

	LogLevel     string `name:"log-level" env:"LOG_LEVEL" default:"warn"`
	OTLPEndpoint string `name:"otlp-endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Debug        bool   `name:"debug" help:"Dump every backend response."`
}

var cli struct {
	Globals

	Stations     stationsCmd     `cmd:"" help:"List stations and their available bikes."`
	Reservations reservationsCmd `cmd:"" help:"Show the current reservation or trip."`
	Reserve      reserveCmd      `cmd:"" help:"Reserve a bike."`
	Start        startCmd        `cmd:"" help:"Start the reserved trip with its unlock code."`
	End          endCmd          `cmd:"" help:"End the active trip."`
	Cancel       cancelCmd       `cmd:"" help:"Cancel a reservation."`
	History      historyCmd      `cmd:"" help:"List past trips."`
	Stats        statsCmd        `cmd:"" help:"Show the dashboard figures."`
	Recharge     rechargeCmd     `cmd:"" help:"Top up the wallet."`
	AddCard      addCardCmd      `cmd:"" name:"add-card" help:"Save a card for payments."`
}

// app is what every command runs against.
type app struct {
	ctx     context.Context
	client  *client.Client
	session *coordinator.Session
	alerts  *notify.Presenter
	debug   bool
}

func (a *app) dump(v ...any) {
	if a.debug {
		spew.Fdump(os.Stderr, v...)
	}
}

func main() {
	err := run()
	var seen alerted
	switch {
	case errors.As(err, &seen):
		os.Exit(1)
	case err != nil:
		log.Fatalf("unexpected error: %v", err)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	kctx := kong.Parse(&cli,
		kong.Name("rider"),
		kong.Description("Reserve and ride TwoMove bikes from the terminal."),
		kong.UsageOnError(),
	)

	obs, cleanup, err := o11y.Setup(ctx, o11y.Config{
		Service:     "twomove-rider",
		Level:       cli.LogLevel,
		Endpoint:    cli.OTLPEndpoint,
		SampleRatio: 1,
		Output:      os.Stderr,
	})
	if err != nil {
		return err
	}
	defer cleanup()

	c, err := client.New(client.Config{
		BaseURL:   cli.BaseURL,
		SessionID: cli.SessionID,
		CSRFToken: cli.CSRFToken,
		Timeout:   cli.Timeout,
		Logger:    obs.Logger,
		Registry:  obs.Registry,
	})
	if err != nil {
		return err
	}

	alerts := notify.NewPresenter(notify.NewTerminalSink(os.Stdout), notify.PageDelay)
	a := &app{
		ctx:    ctx,
		client: c,
		alerts: alerts,
		debug:  cli.Debug,
		session: coordinator.New(c, alerts,
			coordinator.WithLogger(obs.Logger),
			coordinator.WithFocus(func(f coordinator.Field) {
				obs.Logger.Debug("validation failed", "field", f)
			}),
		),
	}

	return kctx.Run(a, &cli.Globals)
}

// alerted marks an error the rider has already seen as an alert.
type alerted struct{ error }

func (e alerted) Unwrap() error { return e.error }

// settled wraps a coordinator failure, which always reaches the rider as an
// alert.
func settled(err error) error {
	if err == nil {
		return nil
	}
	return alerted{err}
}
