// Package taskfarm hands independent units of work to a fixed set of workers.
//
// The boss keeps a FIFO queue of tasks and a FIFO queue of idle workers. A
// worker receives at most one task at a time and becomes idle again only
// once its reply has been collected. When the task queue is empty and no
// replies are outstanding, every worker is sent a DONE message.
package taskfarm

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"
)

type Kind int

const (
	KindTask Kind = iota
	KindDone
)

func (k Kind) String() string {
	if k == KindDone {
		return "DONE"
	}
	return "TASK"
}

type Message[A any] struct {
	Kind Kind
	Arg  A
}

type Reply[A, R any] struct {
	Worker int
	Arg    A
	Result R
	Err    error
}

// Function is the work a single worker performs for one task.
type Function[A, R any] interface {
	Run(ctx context.Context, arg A) (R, error)
}

type FunctionFunc[A, R any] func(ctx context.Context, arg A) (R, error)

func (f FunctionFunc[A, R]) Run(ctx context.Context, arg A) (R, error) { return f(ctx, arg) }

// Factory builds the Function owned by one worker. Workers never share a Function.
type Factory[A, R any] func(worker int) (Function[A, R], error)

type Analyzer[A, R any] interface {
	Accept(Reply[A, R])
}

type AnalyzerFunc[A, R any] func(Reply[A, R])

func (f AnalyzerFunc[A, R]) Accept(r Reply[A, R]) { f(r) }

type Boss[A, R any] struct {
	factory Factory[A, R]
	workers int
	log     *slog.Logger
}

func NewBoss[A, R any](factory Factory[A, R], workers int, logger *slog.Logger) *Boss[A, R] {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if workers < 1 {
		workers = 1
	}
	return &Boss[A, R]{factory: factory, workers: workers, log: logger}
}

func (b *Boss[A, R]) Workers() int { return b.workers }

// Loop runs every task and hands each reply to an. Task failures travel in
// Reply.Err and do not stop the loop. Once ctx is cancelled no further tasks
// are dispatched; outstanding replies are still drained before Loop returns
// ctx.Err(). Functions are expected to honor ctx.
func (b *Boss[A, R]) Loop(ctx context.Context, tasks []A, an Analyzer[A, R]) error {
	fns := make([]Function[A, R], b.workers)
	for i := range fns {
		fn, err := b.factory(i)
		if err != nil {
			return fmt.Errorf("taskfarm: worker %d: %w", i, err)
		}
		fns[i] = fn
	}

	g, gctx := errgroup.WithContext(ctx)
	inboxes := make([]chan Message[A], b.workers)
	replies := make(chan Reply[A, R], b.workers)

	for i := range inboxes {
		inbox := make(chan Message[A], 1)
		inboxes[i] = inbox
		g.Go(func() error {
			return work(gctx, i, fns[i], inbox, replies)
		})
	}

	queue := slices.Clone(tasks)
	idle := make([]int, b.workers)
	for i := range idle {
		idle[i] = i
	}
	pending := 0
	var loopErr error

	for len(queue) > 0 || pending > 0 {
		if loopErr == nil && ctx.Err() != nil {
			loopErr = ctx.Err()
			b.log.Warn("cancelled, draining outstanding tasks", "pending", pending, "dropped", len(queue))
			queue = nil
		}

		for len(queue) > 0 && len(idle) > 0 {
			w := idle[0]
			idle = idle[1:]
			b.log.Debug("dispatching task", "worker", w, "remaining", len(queue)-1)
			inboxes[w] <- Message[A]{Kind: KindTask, Arg: queue[0]}
			queue = queue[1:]
			pending++
		}
		if pending == 0 {
			continue
		}

		r := <-replies
		pending--
		idle = append(idle, r.Worker)
		if r.Err != nil {
			b.log.Warn("task failed", "worker", r.Worker, "err", r.Err)
		} else {
			b.log.Info("task finished", "worker", r.Worker)
		}
		if an != nil {
			an.Accept(r)
		}
	}

	for _, inbox := range inboxes {
		inbox <- Message[A]{Kind: KindDone}
		close(inbox)
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return loopErr
}

func work[A, R any](ctx context.Context, id int, fn Function[A, R], inbox <-chan Message[A], replies chan<- Reply[A, R]) error {
	for msg := range inbox {
		if msg.Kind == KindDone {
			return nil
		}
		res, err := fn.Run(ctx, msg.Arg)
		replies <- Reply[A, R]{Worker: id, Arg: msg.Arg, Result: res, Err: err}
	}
	return nil
}
