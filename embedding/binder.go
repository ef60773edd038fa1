// binder.go - Eintragen der Backend-Ausgaben in die Registries
package embedding

import (
	"errors"
	"fmt"

	"github.com/ollama/embedforge/logutil"
	"github.com/ollama/embedforge/ml"
)

// ErrNotFinalized is returned when a backend has fewer outputs than devices.
var ErrNotFinalized = errors.New("backend outputs not finalized")

// Bind appends (top, output) of b for every device of res to the train and
// evaluate registries. All devices are checked before anything is appended,
// so a failed bind leaves both registries unchanged.
func Bind(b Backend, top string, res ml.ResourceManager, train, eval *Registry) error {
	n := res.LocalDeviceCount()
	trainOut, evalOut := b.TrainOutputs(), b.EvalOutputs()

	if len(trainOut) < n || len(evalOut) < n {
		return fmt.Errorf("%s: %d train and %d eval outputs for %d devices: %w", top, len(trainOut), len(evalOut), n, ErrNotFinalized)
	}
	if train.Len() != n || eval.Len() != n {
		return fmt.Errorf("%s: registries cover %d/%d devices, have %d", top, train.Len(), eval.Len(), n)
	}
	if train.Frozen() || eval.Frozen() {
		return ErrRegistryFrozen
	}

	for i := range n {
		dev := res.LocalDevice(i).DeviceID
		for _, t := range []ml.Tensor{trainOut[i], evalOut[i]} {
			if t == nil {
				return fmt.Errorf("%s: device %d: %w", top, i, ErrNotFinalized)
			}
			if t.Device() != dev {
				return fmt.Errorf("%s: output for device %d lives on %s, expected %s", top, i, t.Device(), dev)
			}
		}
	}

	for i := range n {
		if err := train.Append(i, TensorEntry{Name: top, Tensor: trainOut[i]}); err != nil {
			return err
		}
		if err := eval.Append(i, TensorEntry{Name: top, Tensor: evalOut[i]}); err != nil {
			return err
		}
		logutil.Trace("bound embedding output", "embedding", top, "device", i, "train", trainOut[i].Shape(), "eval", evalOut[i].Shape())
	}
	return nil
}
