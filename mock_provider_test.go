package tether

import (
	"context"
	"sync"

	"github.com/tetherd/tether.go/pkg/provider"
)

// fakeConn is the handle type used by the supervisor tests. The id tells
// successive connections apart.
type fakeConn struct {
	id int
}

// scriptedProvider fails or succeeds each connection attempt according to
// a script: entry i is the error for attempt i, nil meaning success.
// Attempts past the end of the script succeed.
type scriptedProvider struct {
	mu     sync.Mutex
	script []error

	connects int
	onLoss   provider.LossFunc
}

func (p *scriptedProvider) Connect(ctx context.Context, onLoss provider.LossFunc) (*fakeConn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := p.connects
	p.connects++

	if i < len(p.script) && p.script[i] != nil {
		return nil, p.script[i]
	}

	p.onLoss = onLoss
	return &fakeConn{id: i}, nil
}

func (p *scriptedProvider) connectCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.connects
}

// reportLoss invokes the loss callback armed by the most recent successful
// connect. The supervisor handles loss on the caller's goroutine, so this
// returns only after the resulting reconnection episode has finished.
func (p *scriptedProvider) reportLoss(err error, detail any) {
	p.mu.Lock()
	fn := p.onLoss
	p.mu.Unlock()

	fn(provider.Loss{Err: err, Detail: detail})
}
