package domain

// Ship is a ferry in the fleet.
type Ship struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity"` // passengers
}
