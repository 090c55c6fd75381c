package order

import (
	"fmt"
	"math/rand/v2"
)

// Generator produces randomized orders for a single origin. It is meant to
// be owned by one producer goroutine and is not safe for concurrent use.
type Generator struct {
	origin string
	count  int
	rng    *rand.Rand
}

// NewGenerator returns a generator seeded with seed, so runs can be replayed.
func NewGenerator(origin string, seed uint64) *Generator {
	return &Generator{
		origin: origin,
		rng:    rand.New(rand.NewPCG(seed, uint64(len(origin)))),
	}
}

// Next creates the origin's next order with a random kind and priority.
// Patients are numbered per origin: "<origin>-P1", "<origin>-P2", ...
func (g *Generator) Next() *TestOrder {
	g.count++
	kinds := Kinds()
	return New(g.origin,
		WithPatient(fmt.Sprintf("%s-P%d", g.origin, g.count)),
		WithKind(kinds[g.rng.IntN(len(kinds))]),
		WithPriority(MinPriority+g.rng.IntN(MaxPriority-MinPriority+1)),
	)
}

// Count returns how many orders the generator has produced.
func (g *Generator) Count() int {
	return g.count
}
