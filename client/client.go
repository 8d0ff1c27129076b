// Package client talks to the TwoMove rentals, stations and payment
// endpoints on behalf of a logged-in rider.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/semanticallynull/twomove-rider/history"
	"github.com/semanticallynull/twomove-rider/internal/csrf"
	"github.com/semanticallynull/twomove-rider/internal/transport"
	"github.com/semanticallynull/twomove-rider/reservation"
	"github.com/semanticallynull/twomove-rider/station"
)

const (
	DefaultTimeout       = 15 * time.Second
	DefaultSessionCookie = "sessionid"

	maxBody = 1 << 20
)

const (
	pathMisReservas  = "/alquileres/api/rentals/mis_reservas/"
	pathHistorial    = "/alquileres/api/rentals/historial/"
	pathEstadisticas = "/alquileres/api/rentals/estadisticas/"
	pathReserve      = "/alquileres/api/rentals/reserve/"
	pathStart        = "/alquileres/api/rentals/start_by_user/"
	pathEnd          = "/alquileres/api/rentals/end_trip/"
	pathCancel       = "/alquileres/api/rentals/cancel_general/"
	pathStations     = "/estaciones/stations/"
	pathRecharge     = "/payment/api/recargar-saldo/"
	pathSaveCard     = "/payment/guardar-tarjeta/"
	pathSetupIntent  = "/payment/api/setup-intent/"
)

type Config struct {
	BaseURL string
	// SessionID and CSRFToken seed the cookie jar. Both cookies are issued by
	// the backend's login flow.
	SessionID     string
	SessionCookie string
	CSRFToken     string
	CSRFCookie    string
	Timeout       time.Duration
	Logger        *slog.Logger
	Registry      prometheus.Registerer
	Transport     http.RoundTripper
}

type Client struct {
	base   *url.URL
	http   *http.Client
	csrf   *csrf.Provider
	logger *slog.Logger
}

func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", cfg.BaseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	if cfg.SessionCookie == "" {
		cfg.SessionCookie = DefaultSessionCookie
	}
	if cfg.CSRFCookie == "" {
		cfg.CSRFCookie = csrf.DefaultCookie
	}
	var seed []*http.Cookie
	if cfg.SessionID != "" {
		seed = append(seed, &http.Cookie{Name: cfg.SessionCookie, Value: cfg.SessionID, Path: "/"})
	}
	if cfg.CSRFToken != "" {
		seed = append(seed, &http.Cookie{Name: cfg.CSRFCookie, Value: url.PathEscape(cfg.CSRFToken), Path: "/"})
	}
	jar.SetCookies(base, seed)

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	rt := transport.Chain(cfg.Transport,
		transport.Tracing(),
		transport.Metrics(cfg.Registry),
		transport.Logging(logger),
	)

	return &Client{
		base:   base,
		http:   &http.Client{Jar: jar, Timeout: timeout, Transport: rt},
		csrf:   csrf.New(jar, base, cfg.CSRFCookie),
		logger: logger,
	}, nil
}

// CSRFToken is the token the next POST will carry.
func (c *Client) CSRFToken() string {
	return c.csrf.Token()
}

func (c *Client) Reservations(ctx context.Context) ([]reservation.Reservation, error) {
	list := []reservation.Reservation{}
	err := c.do(ctx, http.MethodGet, pathMisReservas, nil, &list)
	return list, err
}

func (c *Client) History(ctx context.Context) (history.Response, error) {
	var resp history.Response
	err := c.do(ctx, http.MethodGet, pathHistorial, nil, &resp)
	return resp, err
}

func (c *Client) Dashboard(ctx context.Context) (history.Dashboard, error) {
	var d history.Dashboard
	err := c.do(ctx, http.MethodGet, pathEstadisticas, nil, &d)
	return d, err
}

func (c *Client) Stations(ctx context.Context) ([]station.Station, error) {
	list := []station.Station{}
	err := c.do(ctx, http.MethodGet, pathStations, nil, &list)
	return list, err
}

func (c *Client) Reserve(ctx context.Context, req ReserveRequest) (reservation.Reservation, error) {
	var r reservation.Reservation
	err := c.do(ctx, http.MethodPost, pathReserve, req, &r)
	return r, err
}

func (c *Client) StartTrip(ctx context.Context, codigo string) (StartResult, error) {
	var res StartResult
	err := c.do(ctx, http.MethodPost, pathStart, StartRequest{Codigo: codigo}, &res)
	return res, err
}

func (c *Client) EndTrip(ctx context.Context, rentalID int64) (EndResult, error) {
	var res EndResult
	err := c.do(ctx, http.MethodPost, pathEnd, EndRequest{RentalID: rentalID}, &res)
	return res, err
}

func (c *Client) Cancel(ctx context.Context, rentalID int64, reason string) (CancelResult, error) {
	var res CancelResult
	err := c.do(ctx, http.MethodPost, pathCancel, CancelRequest{RentalID: rentalID, Reason: reason}, &res)
	return res, err
}

func (c *Client) Recharge(ctx context.Context, req RechargeRequest) (RechargeResult, error) {
	var res RechargeResult
	err := c.do(ctx, http.MethodPost, pathRecharge, req, &res)
	return res, err
}

func (c *Client) SaveCard(ctx context.Context, paymentMethodID string) (SaveCardResult, error) {
	var res SaveCardResult
	err := c.do(ctx, http.MethodPost, pathSaveCard, SaveCardRequest{PaymentMethodID: paymentMethodID}, &res)
	return res, err
}

// CreateSetupIntent asks the backend for the client secret the card widget
// confirms against.
func (c *Client) CreateSetupIntent(ctx context.Context) (string, error) {
	var res SetupIntentResult
	if err := c.do(ctx, http.MethodPost, pathSetupIntent, struct{}{}, &res); err != nil {
		return "", err
	}
	return res.SetupIntent, nil
}

// do sends one request. There is no retry: a failure is returned to the
// caller, who decides whether the rider tries again.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.JoinPath(path).String(), body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		req.Header.Set(csrf.Header, c.csrf.Token())
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return fmt.Errorf("%w: read %s: %w", ErrTransport, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Detail: detailOf(raw)}
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrTransport, path, err)
	}
	return nil
}
