package controller

import "context"

// pending counts requests whose outcome has not reached the UI loop yet.
// It is only touched from the loop.
type pending struct {
	n       int
	waiters []chan struct{}
}

func (p *pending) add() { p.n++ }

func (p *pending) done() {
	if p.n == 0 {
		return
	}
	p.n--
	if p.n > 0 {
		return
	}
	for _, w := range p.waiters {
		close(w)
	}
	p.waiters = nil
}

// wait blocks until the count drops to zero. It must not be called from
// the loop.
func (p *pending) wait(ctx context.Context, loop Loop) error {
	var idle chan struct{}
	if err := loop.Do(ctx, func() {
		if p.n == 0 {
			return
		}
		idle = make(chan struct{})
		p.waiters = append(p.waiters, idle)
	}); err != nil {
		return err
	}
	if idle == nil {
		return nil
	}
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
