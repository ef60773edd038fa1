// resolve.go - Uebersetzung von Konfigurationsbloecken in Hyperparameter
// Hauptfunktionen: Resolve, ParseParams, DefaultParams
package optimizer

import (
	"github.com/ollama/embedforge/config"
	"github.com/ollama/embedforge/types/errtypes"
)

// Resolve reads the hyperparameters of kind from its nested block, e.g. the
// contents of "adam_hparam". Every field of the variant is required.
func Resolve(kind Kind, b config.Block) (Hyperparameters, error) {
	switch kind {
	case Ftrl:
		var p FtrlParams
		var err error
		if p.Beta, err = b.Float32("beta"); err != nil {
			return nil, err
		}
		if p.Lambda1, err = b.Float32("lambda1"); err != nil {
			return nil, err
		}
		if p.Lambda2, err = b.Float32("lambda2"); err != nil {
			return nil, err
		}
		return p, nil

	case Adam:
		var p AdamParams
		var err error
		if p.Beta1, err = b.Float32("beta1"); err != nil {
			return nil, err
		}
		if p.Beta2, err = b.Float32("beta2"); err != nil {
			return nil, err
		}
		if p.Epsilon, err = b.Float32("epsilon"); err != nil {
			return nil, err
		}
		return p, nil

	case AdaGrad:
		var p AdaGradParams
		var err error
		if p.InitialAccuValue, err = b.Float32("initial_accu_value"); err != nil {
			return nil, err
		}
		if p.Epsilon, err = b.Float32("epsilon"); err != nil {
			return nil, err
		}
		return p, nil

	case MomentumSGD:
		factor, err := b.Float32("momentum_factor")
		if err != nil {
			return nil, err
		}
		return MomentumSGDParams{Factor: factor}, nil

	case Nesterov:
		mu, err := b.Float32("momentum_factor")
		if err != nil {
			return nil, err
		}
		return NesterovParams{Mu: mu}, nil

	case SGD:
		atomic, err := b.Bool("atomic_update")
		if err != nil {
			return nil, err
		}
		return SGDParams{AtomicUpdate: atomic}, nil

	default:
		return nil, errtypes.Invalid("type", "unrecognized optimizer %d", int(kind))
	}
}

// ParseParams reads a complete optimizer block:
//
//	{"type": "Adam", "update_type": "Global", "adam_hparam": {...}}
//
// learning_rate is optional and falls back to def.
func ParseParams(b config.Block, def Params) (Params, error) {
	name, err := b.String("type")
	if err != nil {
		return Params{}, err
	}
	kind, err := ParseKind(name)
	if err != nil {
		return Params{}, err
	}

	updateName, err := b.String("update_type")
	if err != nil {
		return Params{}, err
	}
	update, err := ParseUpdateType(updateName)
	if err != nil {
		return Params{}, err
	}

	nested, err := b.Block(kind.blockKey())
	if err != nil {
		return Params{}, err
	}
	h, err := Resolve(kind, nested)
	if err != nil {
		return Params{}, err
	}

	lr, err := b.Float32Or("learning_rate", def.LearningRate)
	if err != nil {
		return Params{}, err
	}

	return Params{
		Kind:            kind,
		UpdateType:      update,
		Hyperparameters: h,
		LearningRate:    lr,
		Scaler:          def.Scaler,
		Initialized:     true,
	}, nil
}
