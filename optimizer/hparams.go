// hparams.go - Hyperparameter-Varianten der Update-Regeln
// Genau eine Variante ist aktiv; sie wird einmal erzeugt und danach nicht veraendert.
package optimizer

// Hyperparameters is implemented only by the variant records in this file.
type Hyperparameters interface {
	Kind() Kind
	hyperparameters()
}

type FtrlParams struct {
	Beta    float32 `json:"beta"`
	Lambda1 float32 `json:"lambda1"`
	Lambda2 float32 `json:"lambda2"`
}

type AdamParams struct {
	Beta1   float32 `json:"beta1"`
	Beta2   float32 `json:"beta2"`
	Epsilon float32 `json:"epsilon"`
}

type AdaGradParams struct {
	InitialAccuValue float32 `json:"initial_accu_value"`
	Epsilon          float32 `json:"epsilon"`
}

type MomentumSGDParams struct {
	Factor float32 `json:"momentum_factor"`
}

type NesterovParams struct {
	Mu float32 `json:"momentum_factor"`
}

type SGDParams struct {
	AtomicUpdate bool `json:"atomic_update"`
}

func (FtrlParams) Kind() Kind        { return Ftrl }
func (AdamParams) Kind() Kind        { return Adam }
func (AdaGradParams) Kind() Kind     { return AdaGrad }
func (MomentumSGDParams) Kind() Kind { return MomentumSGD }
func (NesterovParams) Kind() Kind    { return Nesterov }
func (SGDParams) Kind() Kind         { return SGD }

func (FtrlParams) hyperparameters()        {}
func (AdamParams) hyperparameters()        {}
func (AdaGradParams) hyperparameters()     {}
func (MomentumSGDParams) hyperparameters() {}
func (NesterovParams) hyperparameters()    {}
func (SGDParams) hyperparameters()         {}

// StateSlots is the number of per-row state vectors the update rule keeps.
func StateSlots(h Hyperparameters) int {
	switch h.(type) {
	case AdamParams, FtrlParams:
		return 2
	case AdaGradParams, MomentumSGDParams, NesterovParams:
		return 1
	default:
		return 0
	}
}

// InitialState is the value optimizer state rows start from.
func InitialState(h Hyperparameters) float32 {
	if p, ok := h.(AdaGradParams); ok {
		return p.InitialAccuValue
	}
	return 0
}
