// Package background groups related goroutines under a shared cancellation
// context so an owner can stop and await all of them at once.
package background

import (
	"context"
	"sync"
)

// Scope - a cancellation context paired with a wait group; members watch
// Context().Done() and report completion through Done().
type Scope struct {
	ctx     context.Context
	members sync.WaitGroup
}

// NewScope - builds a scope and its cancel function. Cancel expires the
// scope context and blocks until every registered member has reported done.
func NewScope() (scope *Scope, cancel func()) {
	ctx, expire := context.WithCancel(context.Background())
	s := &Scope{ctx: ctx}
	return s, func() {
		expire()
		s.members.Wait()
	}
}

// Context - the scope cancellation context.
func (s *Scope) Context() context.Context {
	return s.ctx
}

// Add - registers members about to start.
func (s *Scope) Add(delta int) {
	s.members.Add(delta)
}

// Done - reports one member finished.
func (s *Scope) Done() {
	s.members.Done()
}

// Go - runs f as a registered member goroutine.
func (s *Scope) Go(f func()) {
	s.members.Add(1)
	go func() {
		defer s.members.Done()
		f()
	}()
}
