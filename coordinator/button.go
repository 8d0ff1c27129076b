package coordinator

import (
	"errors"
	"sync"
)

// ErrBusy is returned when an action is triggered while its previous request
// is still in flight.
var ErrBusy = errors.New("action already in progress")

type Action string

const (
	ActionReserve  Action = "reserve"
	ActionStart    Action = "start"
	ActionEnd      Action = "end"
	ActionCancel   Action = "cancel"
	ActionRecharge Action = "recharge"
	ActionAddCard  Action = "add_card"
)

// Button is the control that triggers an action. It is disabled and shows a
// busy label for exactly one in-flight request.
type Button struct {
	idle string
	busy string

	mu       sync.Mutex
	disabled bool
}

func newButtons() map[Action]*Button {
	return map[Action]*Button{
		ActionReserve:  {idle: "Confirmar Reserva", busy: "Procesando..."},
		ActionStart:    {idle: "Iniciar Viaje", busy: "Iniciando viaje..."},
		ActionEnd:      {idle: "Finalizar Viaje", busy: "Finalizando viaje..."},
		ActionCancel:   {idle: "Cancelar Reserva", busy: "Cancelando..."},
		ActionRecharge: {idle: "Recargar Saldo", busy: "Procesando..."},
		ActionAddCard:  {idle: "Guardar Tarjeta", busy: "Procesando..."},
	}
}

func (b *Button) acquire() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.disabled {
		return ErrBusy
	}
	b.disabled = true
	return nil
}

func (b *Button) release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.disabled = false
}

func (b *Button) Disabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.disabled
}

func (b *Button) Label() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.disabled {
		return b.busy
	}
	return b.idle
}
