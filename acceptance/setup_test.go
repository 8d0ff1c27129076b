package acceptance

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/semanticallynull/twomove-rider/api"
	"github.com/semanticallynull/twomove-rider/bike"
	"github.com/semanticallynull/twomove-rider/client"
	"github.com/semanticallynull/twomove-rider/coordinator"
	"github.com/semanticallynull/twomove-rider/customer"
	"github.com/semanticallynull/twomove-rider/internal/memstore"
	"github.com/semanticallynull/twomove-rider/internal/notify"
	"github.com/semanticallynull/twomove-rider/internal/o11y"
	"github.com/semanticallynull/twomove-rider/internal/schema"
	"github.com/semanticallynull/twomove-rider/reservation"
	"github.com/semanticallynull/twomove-rider/station"
)

const (
	riderID   = "rider-e2e"
	csrfToken = "e2e-token"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

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

type TestServer struct {
	Server *httptest.Server
	Clock  *clock
	stores stores

	Origen  int64
	Destino int64
	Empty   int64
}

// NewTestServer starts the sandbox backend on an in-memory store, or on the
// Postgres database in DATABASE_URL when it is set.
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	ts := &TestServer{
		Clock:  &clock{now: time.Now().UTC().Truncate(time.Second)},
		stores: openStores(t),
	}

	ts.Origen = ts.CreateTestStation(t, "Station1")
	ts.Destino = ts.CreateTestStation(t, "Station2")
	ts.Empty = ts.CreateTestStation(t, "Station3")
	ts.CreateTestBike(t, "E2E-E-1", bike.Electric, ts.Origen, 90)
	ts.CreateTestBike(t, "E2E-M-1", bike.Manual, ts.Origen, 0)

	if _, err := ts.stores.wallets.CreateCustomer(ctx, riderID); err != nil {
		t.Fatalf("failed to create customer: %v", err)
	}
	if _, err := ts.stores.wallets.Recharge(ctx, riderID, reservation.Pesos(50000)); err != nil {
		t.Fatalf("failed to fund wallet: %v", err)
	}

	obs := &o11y.Observability{Logger: discard, Registry: prometheus.NewRegistry()}
	a := api.New(ts.stores.stations, ts.stores.bikes, ts.stores.rentals, ts.stores.wallets, obs, api.Config{
		Now: ts.Clock.Now,
	})
	ts.Server = httptest.NewServer(a.Router())
	t.Cleanup(ts.Server.Close)
	return ts
}

func openStores(t *testing.T) stores {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		m := memstore.New()
		return stores{stations: m, bikes: m, rentals: m, wallets: m}
	}

	db, err := sqlx.Connect("pgx", dbURL)
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := schema.Apply(context.Background(), db); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}
	cleanupTestData(t, db)

	return stores{
		stations: station.NewRepository(db),
		bikes:    bike.NewRepository(db),
		rentals:  reservation.NewRepository(db),
		wallets:  customer.NewRepository(db),
	}
}

func cleanupTestData(t *testing.T, db *sqlx.DB) {
	t.Helper()

	// Delete in order of dependencies
	for _, table := range []string{"rentals", "payment_methods", "customers", "bikes", "stations"} {
		if _, err := db.Exec("DELETE FROM " + table); err != nil {
			t.Logf("warning: failed to clean %s: %v", table, err)
		}
	}
}

func (ts *TestServer) CreateTestStation(t *testing.T, name string) int64 {
	t.Helper()
	st := station.Station{Nombre: name, Direccion: "Test Address"}
	if err := ts.stores.stations.CreateStation(context.Background(), &st); err != nil {
		t.Fatalf("failed to create test station: %v", err)
	}
	return st.ID
}

func (ts *TestServer) CreateTestBike(t *testing.T, serial string, tipo bike.Tipo, stationID int64, battery int) {
	t.Helper()
	b := bike.Bike{Serial: serial, Tipo: tipo, Estado: bike.Available, StationID: stationID, Battery: battery}
	if err := ts.stores.bikes.CreateBike(context.Background(), &b); err != nil {
		t.Fatalf("failed to create test bike: %v", err)
	}
}

func (ts *TestServer) Balance(t *testing.T) reservation.Amount {
	t.Helper()
	c, err := ts.stores.wallets.GetCustomer(context.Background(), riderID)
	if err != nil {
		t.Fatalf("failed to get customer: %v", err)
	}
	return c.Balance
}

// Rider is one rider session against the test server, wired the way the
// rider CLI wires it.
type Rider struct {
	Client  *client.Client
	Session *coordinator.Session
	Alerts  *notify.Recorder
}

func (ts *TestServer) NewRider(t *testing.T, sessionID string) *Rider {
	t.Helper()
	c, err := client.New(client.Config{
		BaseURL:   ts.Server.URL,
		SessionID: sessionID,
		CSRFToken: csrfToken,
		Timeout:   5 * time.Second,
		Logger:    discard,
		Registry:  prometheus.NewRegistry(),
	})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	rec := &notify.Recorder{}
	return &Rider{
		Client:  c,
		Alerts:  rec,
		Session: coordinator.New(c, notify.NewPresenter(rec, 0), coordinator.WithLogger(discard)),
	}
}

func (r *Rider) LastAlert() notify.Alert {
	return r.Alerts.Last()
}
