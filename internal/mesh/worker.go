package mesh

import (
	"github.com/pkg/errors"
)

// Job is one sub-chunk rebuild request. Version is the column version at
// snapshot time; the consumer compares it against the current version and
// drops stale results.
type Job struct {
	Key     Key
	Version int64
	Input   Input
}

// Done is a finished build, tagged with the job identity so stale results
// can be recognized and discarded.
type Done struct {
	Key     Key
	Version int64
	Result  Result
	Err     error
}

// Pool runs greedy builds on background goroutines. Submission is
// non-blocking: when every worker is busy and the queue is full, Submit
// reports false and the caller retries on a later frame.
type Pool struct {
	jobs    chan Job
	results chan Done
	quit    chan struct{}
}

// NewPool starts n build goroutines with a queue depth per worker.
func NewPool(n, depth int) *Pool {
	if n < 1 {
		n = 1
	}
	p := &Pool{
		jobs:    make(chan Job, n*depth),
		results: make(chan Done, n*depth),
		quit:    make(chan struct{}),
	}
	for i := 0; i < n; i++ {
		go p.run()
	}
	return p
}

func (p *Pool) run() {
	for {
		select {
		case <-p.quit:
			return
		case job := <-p.jobs:
			p.results <- p.build(job)
		}
	}
}

func (p *Pool) build(job Job) (done Done) {
	done.Key = job.Key
	done.Version = job.Version
	defer func() {
		if r := recover(); r != nil {
			done.Err = errors.Errorf("mesh build of %v panicked: %v", job.Key, r)
		}
	}()
	done.Result = Build(&job.Input)
	return done
}

// Submit queues a job without blocking.
func (p *Pool) Submit(job Job) bool {
	select {
	case p.jobs <- job:
		return true
	default:
		return false
	}
}

// Results is the channel finished builds arrive on. Receive with a default
// case; the pool never closes it.
func (p *Pool) Results() <-chan Done {
	return p.results
}

// DrainInto applies up to max finished builds (0 means all currently ready)
// without blocking.
func (p *Pool) DrainInto(max int, apply func(Done)) {
	for n := 0; max == 0 || n < max; n++ {
		select {
		case d := <-p.results:
			apply(d)
		default:
			return
		}
	}
}

// Close stops the workers. Queued jobs may be abandoned.
func (p *Pool) Close() {
	close(p.quit)
}
