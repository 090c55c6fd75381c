package queue_test

import (
	"context"
	"fmt"

	"github.com/billie-coop/labsync/internal/queue"
)

func ExampleBoundedChannel() {
	ch, err := queue.New[string](2)
	if err != nil {
		panic(err)
	}
	ctx := context.Background()

	go func() {
		for _, s := range []string{"BloodTest", "XRay", "MRI"} {
			_ = ch.Put(ctx, s)
		}
	}()

	for range 3 {
		s, _ := ch.Take(ctx)
		fmt.Println(s)
	}
	// Output:
	// BloodTest
	// XRay
	// MRI
}

func ExampleNew() {
	_, err := queue.New[int](0)
	fmt.Println(err)
	// Output: invalid channel capacity 0: must be positive
}
