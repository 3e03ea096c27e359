package light

import (
	"github.com/pkg/errors"
)

// Worker runs full-column recomputes off the main thread. Requests carry
// copied (or transferred) arrays, responses carry fresh arrays; no memory is
// shared across the channel.
type Worker struct {
	engine *Engine
	reqs   chan Request
	resps  chan Response
	quit   chan struct{}
}

func NewWorker(engine *Engine, queueLen int) *Worker {
	w := &Worker{
		engine: engine,
		reqs:   make(chan Request, queueLen),
		resps:  make(chan Response, queueLen),
		quit:   make(chan struct{}),
	}
	go w.loop()
	return w
}

func (w *Worker) loop() {
	for {
		select {
		case req := <-w.reqs:
			w.resps <- w.run(&req)
		case <-w.quit:
			return
		}
	}
}

// run converts panics into the tagged error variant; a worker failure must
// never take the process down.
func (w *Worker) run(req *Request) (resp Response) {
	resp.X, resp.Z, resp.Epoch = req.X, req.Z, req.Epoch
	defer func() {
		if r := recover(); r != nil {
			resp.Subs = nil
			resp.Err = errors.Errorf("lighting worker panic: %v", r)
		}
	}()
	subs, err := w.engine.Recompute(req)
	if err != nil {
		resp.Err = err
		return resp
	}
	resp.Subs = subs
	return resp
}

// Dispatch queues a request without blocking; false means the worker is
// saturated and the caller should retry next tick.
func (w *Worker) Dispatch(req Request) bool {
	select {
	case w.reqs <- req:
		return true
	default:
		return false
	}
}

// Results is drained by the main thread each tick.
func (w *Worker) Results() <-chan Response {
	return w.resps
}

func (w *Worker) Close() {
	select {
	case <-w.quit:
	default:
		close(w.quit)
	}
}

// DrainInto applies at most max pending responses through apply, a helper
// for main-loop glue.
func (w *Worker) DrainInto(max int, apply func(Response)) {
	for i := 0; max <= 0 || i < max; i++ {
		select {
		case resp := <-w.resps:
			apply(resp)
		default:
			return
		}
	}
}
