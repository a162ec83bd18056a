// Package wind converts wind vector components to speed and direction
package wind

import (
	"errors"
	"fmt"
	"math"
)

// ErrShapeMismatch is returned when the component arrays differ in length
var ErrShapeMismatch = errors.New("wind component arrays differ in shape")

const degPerRad = 180 / math.Pi

// Speed returns the magnitude of the (u, v) wind vector
func Speed(u, v float64) float64 {
	return math.Hypot(u, v)
}

// Direction returns the bearing in degrees clockwise from north that the
// wind blows from, in [0, 360). Calm wind (0, 0) is reported as 0.
func Direction(u, v float64) float64 {
	if u == 0 && v == 0 {
		return 0
	}
	dir := math.Atan2(-u, -v) * degPerRad
	if dir <= 0 {
		dir += 360
	}
	if dir >= 360 {
		dir -= 360
	}
	return dir
}

// Components returns the eastward and northward components of a wind with
// the given speed blowing from direction (degrees).
func Components(speed, direction float64) (u, v float64) {
	rad := direction / degPerRad
	return -speed * math.Sin(rad), -speed * math.Cos(rad)
}

// Derive computes speed and direction element-wise. NaN inputs produce NaN outputs.
func Derive(u, v []float64) (speed, direction []float64, err error) {
	if len(u) != len(v) {
		return nil, nil, fmt.Errorf("%w: %d eastward vs %d northward values", ErrShapeMismatch, len(u), len(v))
	}

	speed = make([]float64, len(u))
	direction = make([]float64, len(u))
	for i := range u {
		if math.IsNaN(u[i]) || math.IsNaN(v[i]) {
			speed[i] = math.NaN()
			direction[i] = math.NaN()
			continue
		}
		speed[i] = Speed(u[i], v[i])
		direction[i] = Direction(u[i], v[i])
	}
	return speed, direction, nil
}
