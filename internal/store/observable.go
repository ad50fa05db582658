package store

import "sync"

// observable fans snapshots out to subscribers.
type observable[S any] struct {
	mu   sync.Mutex
	next int
	subs map[int]func(S)
}

// Subscribe registers fn to receive every published snapshot and returns a func that unregisters it.
//
// fn runs on the goroutine that settled the operation and must not call back into the store's
// mutating methods.
func (o *observable[S]) Subscribe(fn func(S)) (cancel func()) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.subs == nil {
		o.subs = make(map[int]func(S))
	}
	id := o.next
	o.next++
	o.subs[id] = fn

	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		delete(o.subs, id)
	}
}

func (o *observable[S]) publish(snap S) {
	o.mu.Lock()
	fns := make([]func(S), 0, len(o.subs))
	for _, fn := range o.subs {
		fns = append(fns, fn)
	}
	o.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// container owns a store's state. Every mutation goes through update, which publishes a copy.
//
// pubMu serializes mutate-then-publish so subscribers receive snapshots in mutation order,
// even when updates arrive from several goroutines (upload progress and settlement).
type container[S any] struct {
	observable[S]

	pubMu sync.Mutex
	mu    sync.Mutex
	state S
	clone func(S) S
}

func (c *container[S]) init(initial S, clone func(S) S) {
	c.state = initial
	c.clone = clone
}

// Snapshot returns a copy of the current state.
func (c *container[S]) Snapshot() S {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clone(c.state)
}

// update applies fn under the lock and publishes the result before the next update may begin.
func (c *container[S]) update(fn func(*S)) S {
	c.pubMu.Lock()
	defer c.pubMu.Unlock()

	c.mu.Lock()
	fn(&c.state)
	snap := c.clone(c.state)
	c.mu.Unlock()

	c.publish(snap)
	return snap
}

// Flags is the loading/error pair shared by all operations of one store.
type Flags struct {
	Loading bool
	Error   string
}

func (f *Flags) begin() {
	f.Loading = true
	f.Error = ""
}

func (f *Flags) succeed() {
	f.Loading = false
}

func (f *Flags) fail(msg string) {
	f.Loading = false
	f.Error = msg
}
