package models

// SchedulingConfig holds the base intervals used for cards with no prior interval.
type SchedulingConfig struct {
	AgainMinutes float64 `json:"againMinutes" validate:"gt=0"`
	HardMinutes  float64 `json:"hardMinutes" validate:"gt=0"`
	GoodMinutes  float64 `json:"goodMinutes" validate:"gt=0"`
	EasyDays     float64 `json:"easyDays" validate:"gt=0"`
}

// DefaultSchedulingConfig returns the settings a new installation starts with.
func DefaultSchedulingConfig() SchedulingConfig {
	return SchedulingConfig{
		AgainMinutes: 1,
		HardMinutes:  5,
		GoodMinutes:  10,
		EasyDays:     4,
	}
}
