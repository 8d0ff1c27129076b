package coordinator

import (
	"context"
	"fmt"
	"time"

	"github.com/semanticallynull/twomove-rider/history"
	"github.com/semanticallynull/twomove-rider/internal/notify"
	"github.com/semanticallynull/twomove-rider/reservation"
)

// LoadHistory fetches the trip history and resets the pager to page 1,
// keeping the active filter.
func (s *Session) LoadHistory(ctx context.Context) (history.Response, error) {
	resp, err := s.backend.History(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load trip history", "error", err)
		s.alerts.Show(msgHistoryLoad, notify.Danger)
		return history.Response{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pager.Reset(resp.Viajes)
	s.stats = resp.Estadisticas
	return resp, nil
}

// History is the pager over the last loaded history. It belongs to the
// session and must not be shared between goroutines.
func (s *Session) History() *history.Pager {
	return s.pager
}

func (s *Session) Statistics() history.Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// LoadDashboard fetches the landing page figures.
func (s *Session) LoadDashboard(ctx context.Context) (history.Dashboard, error) {
	d, err := s.backend.Dashboard(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load dashboard", "error", err)
		s.alerts.Show(msgTripLoad, notify.Danger)
		return history.Dashboard{}, err
	}
	s.mu.Lock()
	s.dashboard = d
	s.mu.Unlock()
	return d, nil
}

func (s *Session) Dashboard() history.Dashboard {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dashboard
}

// TripTimer is the elapsed time of the trip in progress, formatted for the
// dashboard. It reports false when no trip is active.
func (s *Session) TripTimer() (string, bool) {
	s.mu.Lock()
	started := s.startedAt
	active := s.state == reservation.Active
	s.mu.Unlock()

	if r, ok := s.Active(); ok && r.HoraInicio != nil {
		started = *r.HoraInicio
		active = true
	}
	if !active || started.IsZero() {
		return "", false
	}
	return FormatElapsed(s.now().Sub(started)), true
}

// FormatElapsed renders d as HH:MM:SS. Hours are not wrapped at 24.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, secs/60%60, secs%60)
}
