package sim

import (
	"context"
	"slices"
	"sync"
)

// registry tracks the cancel function of every running worker so a single
// worker can be stopped without ending the run.
//
// Used by: Runner (registers workers as they start, StopWorker)
type registry struct {
	active map[string]context.CancelFunc
	mutex  sync.Mutex
}

func newRegistry() *registry {
	return &registry{
		active: make(map[string]context.CancelFunc),
	}
}

// register tracks a running worker
func (r *registry) register(name string, cancel context.CancelFunc) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.active[name] = cancel
}

// unregister forgets a worker that returned
func (r *registry) unregister(name string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	delete(r.active, name)
}

// cancel stops one worker. Returns false if it was not running.
func (r *registry) cancel(name string) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	cancel, ok := r.active[name]
	if !ok {
		return false
	}
	cancel()
	delete(r.active, name)
	return true
}

// cancelAll stops every worker and returns how many were running
func (r *registry) cancelAll() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	n := len(r.active)
	for name, cancel := range r.active {
		cancel()
		delete(r.active, name)
	}
	return n
}

// names lists running workers in sorted order
func (r *registry) names() []string {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	names := make([]string, 0, len(r.active))
	for name := range r.active {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
