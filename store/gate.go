package store

import "context"

// Gate tells reads when the caller's authentication state has settled and
// which role the results are being produced for.
type Gate interface {
	Ready() <-chan struct{}
	Role() string
}

type gateKey struct{}

func WithGate(ctx context.Context, g Gate) context.Context {
	return context.WithValue(ctx, gateKey{}, g)
}

type anonymousGate struct{}

var alwaysReady = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

func (anonymousGate) Ready() <-chan struct{} { return alwaysReady }
func (anonymousGate) Role() string           { return "anon" }

func gateFrom(ctx context.Context) Gate {
	if g, ok := ctx.Value(gateKey{}).(Gate); ok && g != nil {
		return g
	}
	return anonymousGate{}
}

// waitGate blocks until the gate opens and returns the role to read as.
func waitGate(ctx context.Context) (string, error) {
	g := gateFrom(ctx)
	select {
	case <-g.Ready():
		return g.Role(), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
