// README: Technician read model owned by the administrative system.
package technician

import "fieldops/internal/types"

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Technician is read-only from the dispatch engine's point of view; the
// administrative system creates and mutates these records.
type Technician struct {
	ID             int64
	Name           string
	Email          string
	Phone          string
	Skills         []string
	Home           *types.Point
	MaxRadiusMiles float64
	Status         Status
}

func (t *Technician) HasSkill(serviceType string) bool {
	for _, s := range t.Skills {
		if s == serviceType {
			return true
		}
	}
	return false
}
