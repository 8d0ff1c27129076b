package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/alecthomas/kong"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/stripe/stripe-go/v84"

	"github.com/semanticallynull/twomove-rider/api"
	"github.com/semanticallynull/twomove-rider/bike"
	"github.com/semanticallynull/twomove-rider/customer"
	"github.com/semanticallynull/twomove-rider/internal/memstore"
	"github.com/semanticallynull/twomove-rider/internal/o11y"
	"github.com/semanticallynull/twomove-rider/internal/schema"
	"github.com/semanticallynull/twomove-rider/reservation"
	"github.com/semanticallynull/twomove-rider/station"
)

var cli = struct {
	// DatabaseURL selects Postgres; the in-memory store is used when empty.
	DatabaseURL string `name:"database-url" env:"DATABASE_URL"`
	Port        int    `name:"port" env:"PORT" default:"8000"`
	Seed        bool   `name:"seed" env:"SEED" default:"true" negatable:"" help:"Load the demo stations and bikes."`

	AllowOrigins    []string `name:"allow-origin" env:"ALLOW_ORIGINS" help:"Browser origins allowed by CORS."`
	StripeSecretKey string   `name:"stripe-secret-key" env:"STRIPE_SECRET_KEY"`

	MetricsUsername string `name:"metrics-username" env:"METRICS_USERNAME"`
	MetricsPassword string `name:"metrics-password" env:"METRICS_PASSWORD"`

	LogLevel     string `name:"log-level" env:"LOG_LEVEL" default:"info"`
	OTLPEndpoint string `name:"otlp-endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}{}

type stores struct {
	stations interface {
		api.StationStore
		CreateStation(ctx context.Context, s *station.Station) error
	}
	bikes interface {
		api.BikeStore
		CreateBike(ctx context.Context, b *bike.Bike) error
	}
	rentals api.RentalStore
	wallets api.WalletStore
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("unexpected error: %v", err)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	kong.Parse(&cli)

	obs, cleanup, err := o11y.Setup(ctx, o11y.Config{
		Service:     "twomove-sandbox",
		Level:       cli.LogLevel,
		Endpoint:    cli.OTLPEndpoint,
		SampleRatio: 1,
	})
	if err != nil {
		return err
	}
	defer cleanup()

	st, err := open(ctx)
	if err != nil {
		return err
	}
	if cli.Seed {
		if err := seed(ctx, st); err != nil {
			return err
		}
	}

	if cli.StripeSecretKey != "" {
		stripe.Key = cli.StripeSecretKey
	}

	a := api.New(st.stations, st.bikes, st.rentals, st.wallets, obs, api.Config{
		MetricsUsername: cli.MetricsUsername,
		MetricsPassword: cli.MetricsPassword,
		AllowOrigins:    cli.AllowOrigins,
		Payments:        cli.StripeSecretKey != "",
	})

	serv := http.Server{
		Addr:    fmt.Sprintf(":%d", cli.Port),
		Handler: a.Router(),
	}

	go func() {
		obs.Logger.Info("listening", "addr", serv.Addr, "postgres", cli.DatabaseURL != "")
		if err := serv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return serv.Shutdown(ctx)
}

func open(ctx context.Context) (stores, error) {
	if cli.DatabaseURL == "" {
		m := memstore.New()
		return stores{stations: m, bikes: m, rentals: m, wallets: m}, nil
	}

	db, err := sqlx.ConnectContext(ctx, "pgx", cli.DatabaseURL)
	if err != nil {
		return stores{}, err
	}
	if err := db.PingContext(ctx); err != nil {
		return stores{}, err
	}
	if err := schema.Apply(ctx, db); err != nil {
		return stores{}, err
	}
	return stores{
		stations: station.NewRepository(db),
		bikes:    bike.NewRepository(db),
		rentals:  reservation.NewRepository(db),
		wallets:  customer.NewRepository(db),
	}, nil
}
