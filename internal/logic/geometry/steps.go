package geometry

import "math"

// StepsCalculator converts linear distances and tray angles to motor step counts.
// The two linear axes and the rotation axis are calibrated independently.
type StepsCalculator struct {
	xStepsPerUnit       float64
	yStepsPerUnit       float64
	rotationStepsPerRev float64
}

// NewStepsCalculator creates a step calculator.
// rotationStepsPerRev is the number of steps for one full turn of the tray.
func NewStepsCalculator(xStepsPerUnit, yStepsPerUnit, rotationStepsPerRev float64) *StepsCalculator {
	return &StepsCalculator{
		xStepsPerUnit:       xStepsPerUnit,
		yStepsPerUnit:       yStepsPerUnit,
		rotationStepsPerRev: rotationStepsPerRev,
	}
}

// XSteps converts an X distance (signed, in calibration units) to steps.
func (s *StepsCalculator) XSteps(distance float64) int64 {
	return truncate(distance * s.xStepsPerUnit)
}

// YSteps converts a Y distance (signed, in calibration units) to steps.
func (s *StepsCalculator) YSteps(distance float64) int64 {
	return truncate(distance * s.yStepsPerUnit)
}

// RotationSteps converts a tray angle in degrees to steps.
func (s *StepsCalculator) RotationSteps(angleDegrees float64) int64 {
	// multiply before dividing so whole-degree turns stay exact
	return truncate(angleDegrees * s.rotationStepsPerRev / 360.0)
}

// RotationStepsPerDegree returns the rotation calibration ratio.
func (s *StepsCalculator) RotationStepsPerDegree() float64 {
	return s.rotationStepsPerRev / 360.0
}

// Fractional steps are dropped toward zero, the way the step counts have
// always been computed on this machine.
func truncate(v float64) int64 {
	return int64(math.Trunc(v))
}
