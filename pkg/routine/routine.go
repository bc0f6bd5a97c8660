package routine

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-slark/svcindex/logger"
)

// Go runs fn in the calling goroutine and logs instead of crashing when fn
// panics.
func Go(ctx context.Context, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log(ctx, logger.ErrorLevel, map[string]interface{}{"error": fmt.Sprintf("%+v", r)}, "routine recover")
		}
	}()
	fn()
}

// GoSafe is Go on a new goroutine.
func GoSafe(ctx context.Context, fn func()) {
	go Go(ctx, fn)
}

type Routine interface {
	Start()
}

type Group struct {
	routines []Routine
}

func NewGroup() *Group {
	return &Group{}
}

func (g *Group) Append(r ...Routine) {
	g.routines = append(g.routines, r...)
}

// Start runs every routine concurrently and returns once all of them have
// returned or panicked.
func (g *Group) Start() {
	wg := sync.WaitGroup{}
	wg.Add(len(g.routines))
	for _, r := range g.routines {
		r := r
		go Go(context.TODO(), func() {
			defer wg.Done()
			r.Start()
		})
	}
	wg.Wait()
}
