// exchange.go - Zugriff auf die Gradienten-Austauschpuffer
//
// Der Puffer-Manager besitzt die Kommunikationspuffer; der Embedding-Aufbau
// waehlt nur aus, welche Zugriffsfamilie gebunden wird.
package exchange

import (
	"errors"
	"log/slog"

	"github.com/ollama/embedforge/ml"
)

// Accessor returns the per-device buffers embedding gradients are written
// to before cross-device reduction.
type Accessor interface {
	Name() string
	EmbedWgradBuffers() []ml.Tensor
}

// Exchange exposes both accessor families of a gradient-exchange manager.
type Exchange interface {
	// Grouped buffers merge gradients of all tables before reduction
	Grouped() Accessor

	// Network buffers reduce gradients per network
	Network() Accessor
}

var ErrNoExchange = errors.New("no gradient exchange configured")

// Select resolves the accessor once so construction code never sees the flag.
func Select(x Exchange, grouped bool) (Accessor, error) {
	if x == nil {
		return nil, ErrNoExchange
	}

	var a Accessor
	if grouped {
		a = x.Grouped()
	} else {
		a = x.Network()
	}
	if a == nil {
		return nil, ErrNoExchange
	}

	slog.Debug("selected gradient exchange accessor", "accessor", a.Name(), "grouped", grouped)
	return a, nil
}
