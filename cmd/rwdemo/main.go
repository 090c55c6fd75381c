package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/billie-coop/labsync/internal/policy"
)

// step is one staged request against the policy store
type step struct {
	name   string
	writer bool
	at     time.Duration
	hold   time.Duration
}

// The same arrivals under both modes: a reader holds the store, then a
// writer, a reader and a second writer arrive while it is busy.
var scenario = []step{
	{name: "R1", at: 0, hold: 100 * time.Millisecond},
	{name: "W1", writer: true, at: 10 * time.Millisecond, hold: 30 * time.Millisecond},
	{name: "R2", at: 20 * time.Millisecond, hold: 30 * time.Millisecond},
	{name: "W2", writer: true, at: 30 * time.Millisecond, hold: 30 * time.Millisecond},
}

func main() {
	modes := []policy.Mode{policy.WriterPriority, policy.StrictFair}

	// An argument picks a single mode
	if len(os.Args) > 1 {
		mode, err := policy.ParseMode(os.Args[1])
		if err != nil {
			log.Fatal("bad mode", "err", err)
		}
		modes = []policy.Mode{mode}
	}

	fmt.Println("🔬 Policy Admission Demo")
	fmt.Println("========================")
	fmt.Println()
	for _, s := range scenario {
		kind := "reader"
		if s.writer {
			kind = "writer"
		}
		fmt.Printf("  %s %s arrives at %s, holds %s\n", s.name, kind, s.at, s.hold)
	}
	fmt.Println()

	for _, mode := range modes {
		order, err := replay(mode)
		if err != nil {
			log.Fatal("replay failed", "mode", mode, "err", err)
		}
		fmt.Printf("%-16s %s\n", mode.String()+":", strings.Join(order, " → "))
	}
}

// replay runs the scenario and returns the order in which requests were
// admitted
func replay(mode policy.Mode) ([]string, error) {
	store := policy.New("NORMAL", mode)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var (
		mu       sync.Mutex
		admitted []string
		wg       sync.WaitGroup
		errs     = make(chan error, len(scenario))
	)
	start := time.Now()

	for _, s := range scenario {
		wg.Add(1)
		go func() {
			defer wg.Done()
			time.Sleep(time.Until(start.Add(s.at)))

			if s.writer {
				if err := store.Write(ctx, s.name); err != nil {
					errs <- fmt.Errorf("%s: %w", s.name, err)
					return
				}
				defer store.EndWrite()
			} else {
				if _, err := store.Read(ctx); err != nil {
					errs <- fmt.Errorf("%s: %w", s.name, err)
					return
				}
				defer store.EndRead()
			}

			mu.Lock()
			admitted = append(admitted, s.name)
			mu.Unlock()
			time.Sleep(s.hold)
		}()
	}

	wg.Wait()
	close(errs)
	if err := <-errs; err != nil {
		return nil, err
	}
	return admitted, nil
}
