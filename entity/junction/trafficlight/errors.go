package trafficlight

import "errors"

var (
	ErrMissingLane     = errors.New("traffic light must control exactly one lane per direction")
	ErrAsymmetricPhase = errors.New("traffic light phases are not symmetric")
)
