package taskfarm_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/chemosim/internal/taskfarm"
)

// squarer records how many tasks it is running at once.
type squarer struct {
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	delay       time.Duration
}

func (s *squarer) Run(ctx context.Context, x int) (int, error) {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		m := s.maxInFlight.Load()
		if n <= m || s.maxInFlight.CompareAndSwap(m, n) {
			break
		}
	}
	time.Sleep(s.delay)
	if x < 0 {
		return 0, errors.New("negative input")
	}
	return x * x, nil
}

type collector struct {
	mu      sync.Mutex
	replies []taskfarm.Reply[int, int]
}

func (c *collector) Accept(r taskfarm.Reply[int, int]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replies = append(c.replies, r)
}

func (c *collector) args() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]int, len(c.replies))
	for i, r := range c.replies {
		out[i] = r.Arg
	}
	return out
}

var _ = Describe("Boss", func() {
	var (
		mu        sync.Mutex
		instances []*squarer
		factory   taskfarm.Factory[int, int]
	)

	BeforeEach(func() {
		instances = nil
		factory = func(worker int) (taskfarm.Function[int, int], error) {
			mu.Lock()
			defer mu.Unlock()
			s := &squarer{delay: time.Millisecond}
			instances = append(instances, s)
			return s, nil
		}
	})

	It("runs every task exactly once", func() {
		boss := taskfarm.NewBoss(factory, 3, nil)
		col := &collector{}
		tasks := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

		Expect(boss.Loop(context.Background(), tasks, col)).To(Succeed())

		Expect(col.args()).To(ConsistOf(tasks))
		for _, r := range col.replies {
			Expect(r.Err).NotTo(HaveOccurred())
			Expect(r.Result).To(Equal(r.Arg * r.Arg))
		}
	})

	It("gives each worker its own function instance", func() {
		boss := taskfarm.NewBoss(factory, 4, nil)
		Expect(boss.Loop(context.Background(), []int{1, 2}, nil)).To(Succeed())
		Expect(instances).To(HaveLen(4))
	})

	It("never has more than one task in flight per worker", func() {
		boss := taskfarm.NewBoss(factory, 3, nil)
		tasks := make([]int, 30)
		for i := range tasks {
			tasks[i] = i
		}

		Expect(boss.Loop(context.Background(), tasks, &collector{})).To(Succeed())
		for _, s := range instances {
			Expect(s.maxInFlight.Load()).To(BeNumerically("<=", 1))
		}
	})

	It("processes tasks in queue order with a single worker", func() {
		boss := taskfarm.NewBoss(factory, 1, nil)
		col := &collector{}
		tasks := []int{5, 3, 9, 1}

		Expect(boss.Loop(context.Background(), tasks, col)).To(Succeed())
		Expect(col.args()).To(Equal(tasks))
	})

	It("reports task failures in replies without stopping", func() {
		boss := taskfarm.NewBoss(factory, 2, nil)
		col := &collector{}

		Expect(boss.Loop(context.Background(), []int{2, -1, 3}, col)).To(Succeed())
		Expect(col.replies).To(HaveLen(3))

		failures := 0
		for _, r := range col.replies {
			if r.Err != nil {
				failures++
				Expect(r.Arg).To(Equal(-1))
			}
		}
		Expect(failures).To(Equal(1))
	})

	It("returns immediately for an empty task list", func() {
		boss := taskfarm.NewBoss(factory, 2, nil)
		col := &collector{}
		Expect(boss.Loop(context.Background(), nil, col)).To(Succeed())
		Expect(col.replies).To(BeEmpty())
	})

	It("handles more workers than tasks", func() {
		boss := taskfarm.NewBoss(factory, 8, nil)
		col := &collector{}
		Expect(boss.Loop(context.Background(), []int{4}, col)).To(Succeed())
		Expect(col.args()).To(Equal([]int{4}))
	})

	It("clamps the worker count to one", func() {
		Expect(taskfarm.NewBoss(factory, 0, nil).Workers()).To(Equal(1))
	})

	It("fails before dispatching when a worker cannot be built", func() {
		bad := func(worker int) (taskfarm.Function[int, int], error) {
			if worker == 1 {
				return nil, errors.New("no model")
			}
			return &squarer{}, nil
		}
		boss := taskfarm.NewBoss(bad, 2, nil)
		col := &collector{}

		Expect(boss.Loop(context.Background(), []int{1}, col)).To(MatchError(ContainSubstring("no model")))
		Expect(col.replies).To(BeEmpty())
	})

	It("drains outstanding replies after cancellation", func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		started := make(chan struct{}, 1)
		slow := func(worker int) (taskfarm.Function[int, int], error) {
			return taskfarm.FunctionFunc[int, int](func(ctx context.Context, x int) (int, error) {
				select {
				case started <- struct{}{}:
				default:
				}
				<-ctx.Done()
				return 0, ctx.Err()
			}), nil
		}

		boss := taskfarm.NewBoss(slow, 2, nil)
		col := &collector{}
		go func() {
			<-started
			cancel()
		}()

		err := boss.Loop(ctx, []int{1, 2, 3, 4, 5}, col)
		Expect(err).To(MatchError(context.Canceled))
		Expect(col.replies).To(HaveLen(2))
		for _, r := range col.replies {
			Expect(r.Err).To(MatchError(context.Canceled))
		}
	})
})
