package model

// Role is a household's trading role, recomputed every tick.
type Role string

const (
	RoleSeller Role = "seller"
	RoleBuyer  Role = "buyer"
	RoleIdle   Role = "idle"
)

// Orientation is the compass direction of a household's solar panels.
type Orientation string

const (
	OrientationSouth Orientation = "south"
	OrientationEast  Orientation = "east"
	OrientationWest  Orientation = "west"
	OrientationNorth Orientation = "north"
)

// Factor returns the generation multiplier for the panel orientation.
func (o Orientation) Factor() float64 {
	switch o {
	case OrientationSouth:
		return 1.0
	case OrientationEast, OrientationWest:
		return 0.8
	case OrientationNorth:
		return 0.6
	default:
		return 1.0
	}
}

// Valid reports whether the orientation is one of the recognized values.
func (o Orientation) Valid() bool {
	switch o {
	case OrientationSouth, OrientationEast, OrientationWest, OrientationNorth:
		return true
	}
	return false
}

// HouseholdType selects one of the built-in 24-hour demand shapes.
type HouseholdType string

const (
	TypeTypical    HouseholdType = "typical"
	TypeHighUsage  HouseholdType = "high_usage"
	TypeLowUsage   HouseholdType = "low_usage"
	TypeNightShift HouseholdType = "night_shift"
)

// Valid reports whether the household type is one of the recognized values.
func (t HouseholdType) Valid() bool {
	switch t {
	case TypeTypical, TypeHighUsage, TypeLowUsage, TypeNightShift:
		return true
	}
	return false
}

// HouseholdConfig describes a household at setup time. Immutable for the
// lifetime of the simulation.
type HouseholdConfig struct {
	ID                  string        `json:"id"`
	SolarCapacityKW     float64       `json:"solar_capacity"`
	BatterySizeKWh      float64       `json:"battery_size"`
	DemandPattern       []float64     `json:"demand_pattern,omitempty"`
	InitialBatteryLevel float64       `json:"initial_battery_level"`
	Orientation         Orientation   `json:"orientation"`
	Type                HouseholdType `json:"household_type"`
	EnergyConscious     bool          `json:"energy_conscious"`
	EnergyHoarder       bool          `json:"energy_hoarder"`
}

// Household is the engine-owned runtime state of one household. It is
// mutated exactly once per tick (household update, then possibly trading)
// and never outside a tick boundary.
type Household struct {
	Config HouseholdConfig

	StoredEnergyPct float64
	Role            Role

	SolarKW     float64
	DemandKW    float64
	NetEnergyKW float64

	TotalGeneratedKWh float64
	TotalConsumedKWh  float64
	TotalTradedKWh    float64
}

// NewHousehold creates a household with the battery charged to the
// configured initial level.
func NewHousehold(cfg HouseholdConfig) *Household {
	return &Household{
		Config:          cfg,
		StoredEnergyPct: cfg.InitialBatteryLevel * 100,
		Role:            RoleIdle,
	}
}

// StoredKWh returns the energy currently held in the battery.
func (h *Household) StoredKWh() float64 {
	return h.StoredEnergyPct / 100 * h.Config.BatterySizeKWh
}

// AvailableAboveReserveKWh returns the energy a seller may release without
// dipping below the reserve floor.
func (h *Household) AvailableAboveReserveKWh(reservePct float64) float64 {
	avail := (h.StoredEnergyPct - reservePct) / 100 * h.Config.BatterySizeKWh
	if avail < 0 {
		return 0
	}
	return avail
}

// HeadroomKWh returns the energy the battery can still absorb.
func (h *Household) HeadroomKWh() float64 {
	return (100 - h.StoredEnergyPct) / 100 * h.Config.BatterySizeKWh
}
