package models

// Prize is one wheel segment. Weight is the draw probability in percent;
// the weights of a wheel always sum to 100.
type Prize struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Weight int    `json:"weight"`
	// Empty-handed segments set Win to false.
	Win bool `json:"win"`
}

type SpinStatus struct {
	Allowed       bool    `json:"allowed"`
	RemainingDays int     `json:"remaining_days"`
	LastSpinTime  int64   `json:"last_spin_time,omitempty"`
	Prizes        []Prize `json:"prizes"`
}

type SpinResult struct {
	Prize        Prize `json:"prize"`
	LastSpinTime int64 `json:"last_spin_time"`
}
