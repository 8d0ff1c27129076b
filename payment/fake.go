package payment

import (
	"context"
	"sync"
)

// FakeWidget is a Widget for tests. Results are keyed by client secret; an
// unknown secret confirms to "pm_fake".
type FakeWidget struct {
	mu       sync.Mutex
	Element  string
	Results  map[string]SetupResult
	Err      error
	Calls    []string
	handlers []func(ChangeEvent)
}

func NewFakeWidget() *FakeWidget {
	return &FakeWidget{Results: map[string]SetupResult{}}
}

func (f *FakeWidget) Mount(element string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Element = element
	return nil
}

func (f *FakeWidget) OnChange(fn func(ChangeEvent)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers = append(f.handlers, fn)
}

func (f *FakeWidget) ConfirmSetup(_ context.Context, clientSecret string, _ CardDetails) (SetupResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Element == "" {
		return SetupResult{}, ErrNotMounted
	}
	f.Calls = append(f.Calls, clientSecret)
	if f.Err != nil {
		return SetupResult{}, f.Err
	}
	if r, ok := f.Results[clientSecret]; ok {
		return r, nil
	}
	return SetupResult{PaymentMethodID: "pm_fake"}, nil
}
