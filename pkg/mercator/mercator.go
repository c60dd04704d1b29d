// Package mercator converts geographic coordinates into the spherical Web
// Mercator plane used by tile-based web maps (EPSG:3857).
package mercator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
)

// EarthRadius is the WGS84 equatorial radius in metres.
const EarthRadius = 6378137.000

// MaxLatitude is where the square Web Mercator tile pyramid ends. Latitudes
// beyond it (including the poles) are clamped to it.
const MaxLatitude = 85.05112877980659

var (
	// ErrInvalidCoordinate is returned for NaN, infinite or out-of-range input.
	ErrInvalidCoordinate = errors.New("invalid coordinate")

	// ErrZeroLongitude is returned for longitude 0 under ZeroLongitudeReject.
	ErrZeroLongitude = errors.New("longitude 0 has no projection scale")
)

// ZeroLongitudePolicy decides how a point on the prime meridian is scaled.
//
// The scale factor is derived as x/longitude, which is 0/0 on the prime
// meridian. ZeroLongitudeLimit substitutes the limiting value R*pi/180;
// ZeroLongitudeReject reports the division as ErrZeroLongitude.
type ZeroLongitudePolicy string

const (
	ZeroLongitudeLimit  ZeroLongitudePolicy = "limit"
	ZeroLongitudeReject ZeroLongitudePolicy = "reject"
)

// ParseZeroLongitudePolicy parses a policy name, case-insensitively.
func ParseZeroLongitudePolicy(s string) (ZeroLongitudePolicy, error) {
	switch p := ZeroLongitudePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case ZeroLongitudeLimit, ZeroLongitudeReject:
		return p, nil
	case "":
		return ZeroLongitudeLimit, nil
	default:
		return "", fmt.Errorf("unknown zero longitude policy %q", s)
	}
}

// Point is a position in the projected plane, in metres.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LatLon is a geographic position in degrees.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Options configures a Projector.
type Options struct {
	ZeroLongitude ZeroLongitudePolicy
	MaxLatitude   float64
}

// DefaultOptions returns the limit policy clamped at the tile bound.
func DefaultOptions() Options {
	return Options{
		ZeroLongitude: ZeroLongitudeLimit,
		MaxLatitude:   MaxLatitude,
	}
}

// Projector is a stateless Web Mercator projection. It is safe for concurrent use.
type Projector struct {
	opts Options
}

// NewProjector validates opts and returns a Projector.
func NewProjector(opts Options) (*Projector, error) {
	if opts.ZeroLongitude == "" {
		opts.ZeroLongitude = ZeroLongitudeLimit
	}
	if opts.ZeroLongitude != ZeroLongitudeLimit && opts.ZeroLongitude != ZeroLongitudeReject {
		return nil, fmt.Errorf("unknown zero longitude policy %q", opts.ZeroLongitude)
	}
	if opts.MaxLatitude == 0 {
		opts.MaxLatitude = MaxLatitude
	}
	if math.IsNaN(opts.MaxLatitude) || opts.MaxLatitude < 0 || opts.MaxLatitude >= 90 {
		return nil, fmt.Errorf("max latitude must be in (0, 90), got %v", opts.MaxLatitude)
	}
	return &Projector{opts: opts}, nil
}

// Options returns the projector's effective options.
func (p *Projector) Options() Options {
	return p.opts
}

// Forward projects (lat, lon) in degrees to (x, y) in metres.
func (p *Projector) Forward(lat, lon float64) (Point, error) {
	if !isFinite(lat) || !isFinite(lon) || math.Abs(lat) > 90 || math.Abs(lon) > 180 {
		return Point{}, fmt.Errorf("%w: lat=%v lon=%v", ErrInvalidCoordinate, lat, lon)
	}

	x := EarthRadius * degToRad(lon)

	var scale float64
	if lon == 0 {
		if p.opts.ZeroLongitude == ZeroLongitudeReject {
			return Point{}, fmt.Errorf("%w: lat=%v", ErrZeroLongitude, lat)
		}
		scale = EarthRadius * math.Pi / 180
	} else {
		scale = x / lon
	}

	if lat > p.opts.MaxLatitude {
		lat = p.opts.MaxLatitude
	} else if lat < -p.opts.MaxLatitude {
		lat = -p.opts.MaxLatitude
	}

	// atanh(sin(phi)) == ln(tan(pi/4 + phi/2)), exact at phi == 0.
	y := 180.0 / math.Pi * math.Atanh(math.Sin(degToRad(lat))) * scale

	return Point{X: x, Y: y}, nil
}

// Inverse maps a projected point back to degrees.
func (p *Projector) Inverse(pt Point) LatLon {
	return LatLon{
		Lat: radToDeg(math.Atan(math.Sinh(pt.Y / EarthRadius))),
		Lon: radToDeg(pt.X / EarthRadius),
	}
}

// Project projects a batch of positions, stopping at the first failure.
// The error names the index of the offending position.
func (p *Projector) Project(ctx context.Context, positions []LatLon) ([]Point, error) {
	out := make([]Point, len(positions))
	for i, pos := range positions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pt, err := p.Forward(pos.Lat, pos.Lon)
		if err != nil {
			return nil, fmt.Errorf("position %d: %w", i, err)
		}
		out[i] = pt
	}
	return out, nil
}

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180.0
}

func radToDeg(rad float64) float64 {
	return rad * 180.0 / math.Pi
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
