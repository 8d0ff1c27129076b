// Package bike holds the physical bikes a reservation is assigned.
package bike

// Tipo is the kind of bike a rider asks for when reserving.
type Tipo string

const (
	Electric Tipo = "electric"
	Manual   Tipo = "manual"
)

func (t Tipo) Valid() bool {
	return t == Electric || t == Manual
}

func (t Tipo) Label() string {
	if t == Electric {
		return "Eléctrica ⚡"
	}
	return "Convencional 🚴"
}

// Estado is the availability of a physical bike.
type Estado string

const (
	Available Estado = "available"
	Reserved  Estado = "reserved"
	InUse     Estado = "en_uso"
	Blocked   Estado = "block"
)

// Bike represents a bike which can be assigned to a reservation.
type Bike struct {
	ID int64
	// Serial is the physical label on the bike, shown to the rider as
	// bike_serial_reservada.
	Serial    string `db:"serial"`
	Tipo      Tipo
	Estado    Estado
	StationID int64 `db:"station_id"`
	// Battery is the charge percentage; electric bikes under MinBattery are
	// never assigned.
	Battery int
}

const MinBattery = 40

// Assignable reports whether the bike can be handed out for a reservation of
// the given type.
func (b Bike) Assignable(t Tipo) bool {
	if b.Estado != Available || b.Tipo != t {
		return false
	}
	return b.Tipo != Electric || b.Battery >= MinBattery
}
