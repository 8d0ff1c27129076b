// Package notify shows transient status messages in a single slot.
package notify

import (
	"sync"
	"time"
)

type Kind string

const (
	Info    Kind = "info"
	Success Kind = "success"
	Warning Kind = "warning"
	Danger  Kind = "danger"
)

const (
	PageDelay  = 5 * time.Second
	ToastDelay = 3 * time.Second
)

type Alert struct {
	Message string
	Kind    Kind
}

// Sink renders alerts. Hide is only called for the alert currently shown.
type Sink interface {
	Show(Alert)
	Hide(Alert)
}

// Presenter owns one alert slot. A new alert replaces the visible one, so at
// most one is ever shown.
type Presenter struct {
	sink  Sink
	delay time.Duration

	mu      sync.Mutex
	gen     uint64
	current *Alert
	timer   *time.Timer
}

func NewPresenter(sink Sink, delay time.Duration) *Presenter {
	return &Presenter{sink: sink, delay: delay}
}

func (p *Presenter) Show(message string, kind Kind) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.timer != nil {
		p.timer.Stop()
	}
	p.gen++
	a := Alert{Message: message, Kind: kind}
	p.current = &a
	p.sink.Show(a)

	if p.delay <= 0 {
		return
	}
	gen := p.gen
	p.timer = time.AfterFunc(p.delay, func() { p.expire(gen) })
}

func (p *Presenter) expire(gen uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen || p.current == nil {
		return
	}
	p.sink.Hide(*p.current)
	p.current = nil
}

// Dismiss hides the visible alert early.
func (p *Presenter) Dismiss() {
	p.mu.Lock()
	gen := p.gen
	p.mu.Unlock()
	p.expire(gen)
}

// Current returns the visible alert, if any.
func (p *Presenter) Current() (Alert, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return Alert{}, false
	}
	return *p.current, true
}
