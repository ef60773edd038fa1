// scheduler.go - Lernraten-Planer pro Geraet
// Warmup linear, danach polynomieller Abfall bis EndLR.
package optimizer

import "math"

// Scheduler yields the learning rate for a training step.
type Scheduler interface {
	LearningRate(step int) float32
}

type PolynomialScheduler struct {
	BaseLR      float32
	WarmupSteps int
	DecayStart  int
	DecaySteps  int
	DecayPower  float32
	EndLR       float32
}

func (s PolynomialScheduler) LearningRate(step int) float32 {
	if s.WarmupSteps > 1 && step < s.WarmupSteps {
		return s.BaseLR * float32(step+1) / float32(s.WarmupSteps)
	}

	if s.DecayStart <= 0 || step < s.DecayStart {
		return s.BaseLR
	}

	if s.DecaySteps <= 0 {
		return s.EndLR
	}

	progress := float64(step-s.DecayStart) / float64(s.DecaySteps)
	if progress >= 1 {
		return s.EndLR
	}

	scale := math.Pow(1-progress, float64(s.DecayPower))
	return s.EndLR + (s.BaseLR-s.EndLR)*float32(scale)
}

// NewSchedulers returns one scheduler per local device.
func NewSchedulers(devices int, s PolynomialScheduler) []Scheduler {
	out := make([]Scheduler, devices)
	for i := range out {
		out[i] = s
	}
	return out
}
