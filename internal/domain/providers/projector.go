package providers

import "github.com/restaurant-guide/dashboard/pkg/mercator"

// Projector maps geographic coordinates onto a planar map
type Projector interface {
	Forward(lat, lon float64) (mercator.Point, error)
}
