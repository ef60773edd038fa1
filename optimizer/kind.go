// kind.go - Optimizer- und Update-Typen
// Dieses Modul definiert die Aufzaehlungen und ihr Parsing aus Konfigurations-Strings.
package optimizer

import (
	"log/slog"

	"github.com/ollama/embedforge/types/errtypes"
)

// Kind selects one of the embedding update rules.
type Kind int

const (
	Adam Kind = iota
	AdaGrad
	MomentumSGD
	Nesterov
	SGD
	Ftrl
)

var kindNames = map[string]Kind{
	"Adam":        Adam,
	"AdaGrad":     AdaGrad,
	"MomentumSGD": MomentumSGD,
	"Nesterov":    Nesterov,
	"SGD":         SGD,
	"Ftrl":        Ftrl,
}

// ParseKind parses an optimizer name as written in model configs.
func ParseKind(s string) (Kind, error) {
	if k, ok := kindNames[s]; ok {
		return k, nil
	}
	return 0, errtypes.Invalid("type", "no such optimizer: %s", s)
}

func (k Kind) String() string {
	switch k {
	case Adam:
		return "Adam"
	case AdaGrad:
		return "AdaGrad"
	case MomentumSGD:
		return "MomentumSGD"
	case Nesterov:
		return "Nesterov"
	case SGD:
		return "SGD"
	case Ftrl:
		return "Ftrl"
	default:
		return "unknown"
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) (err error) {
	*k, err = ParseKind(string(b))
	return err
}

func (k Kind) LogValue() slog.Value {
	return slog.StringValue(k.String())
}

// blockKey is the nested block holding the hyperparameters of k.
func (k Kind) blockKey() string {
	switch k {
	case Adam:
		return "adam_hparam"
	case AdaGrad:
		return "adagrad_hparam"
	case MomentumSGD:
		return "momentum_sgd_hparam"
	case Nesterov:
		return "nesterov_hparam"
	case SGD:
		return "sgd_hparam"
	case Ftrl:
		return "ftrl_hparam"
	default:
		return ""
	}
}

// UpdateType controls which embedding rows an optimizer step touches.
type UpdateType int

const (
	// Local updates only the rows that were looked up on this device
	Local UpdateType = iota
	// Global updates every row of the table
	Global
	// LazyGlobal updates every row but defers the work until a row is read
	LazyGlobal
)

var updateTypeNames = map[string]UpdateType{
	"Local":      Local,
	"Global":     Global,
	"LazyGlobal": LazyGlobal,
}

// ParseUpdateType parses an update type name.
func ParseUpdateType(s string) (UpdateType, error) {
	if u, ok := updateTypeNames[s]; ok {
		return u, nil
	}
	return 0, errtypes.Invalid("update_type", "no such update type: %s", s)
}

func (u UpdateType) String() string {
	switch u {
	case Local:
		return "Local"
	case Global:
		return "Global"
	case LazyGlobal:
		return "LazyGlobal"
	default:
		return "unknown"
	}
}

func (u UpdateType) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

func (u *UpdateType) UnmarshalText(b []byte) (err error) {
	*u, err = ParseUpdateType(string(b))
	return err
}
