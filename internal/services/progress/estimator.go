package progress

import (
	"sync"
	"time"
)

// Config tunes the synthetic progress curve. The signal eases toward
// Ceiling and only ever reaches 1.0 through an explicit Complete call.
type Config struct {
	Ceiling      float64
	Rate         float64
	MinStep      float64
	TickInterval time.Duration
	Initial      float64
}

func (c Config) withDefaults() Config {
	if c.Ceiling <= 0 || c.Ceiling > 1 {
		c.Ceiling = 0.9
	}
	if c.Rate <= 0 {
		c.Rate = 0.05
	}
	if c.MinStep <= 0 {
		c.MinStep = 0.01
	}
	if c.TickInterval <= 0 {
		c.TickInterval = 280 * time.Millisecond
	}
	if c.Initial <= 0 || c.Initial >= c.Ceiling {
		c.Initial = 0.02
	}
	return c
}

// Estimator produces a monotonically non-decreasing progress signal while
// a transfer has no observable byte-level feedback. Values stay below the
// ceiling until Complete snaps to 1.0; Abort stops ticking and resets to a
// caller-supplied failure value.
type Estimator struct {
	cfg      Config
	onChange func(float64)

	mu      sync.Mutex
	current float64
	running bool
	stop    chan struct{}
	done    chan struct{}
}

func NewEstimator(cfg Config, onChange func(float64)) *Estimator {
	return &Estimator{
		cfg:      cfg.withDefaults(),
		onChange: onChange,
	}
}

// Start begins ticking. Starting an already running estimator is a no-op.
func (e *Estimator) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.current = e.cfg.Initial
	e.stop = make(chan struct{})
	e.done = make(chan struct{})
	stop, done := e.stop, e.done
	e.mu.Unlock()

	e.emit(e.cfg.Initial)

	go func() {
		defer close(done)
		ticker := time.NewTicker(e.cfg.TickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				e.tick()
			}
		}
	}()
}

// Complete snaps the signal to 1.0 and stops ticking. It blocks until the
// ticking goroutine has exited, so no further values are emitted.
func (e *Estimator) Complete() {
	e.halt(1)
}

// Abort stops ticking and resets the signal to the given failure value.
func (e *Estimator) Abort(final float64) {
	e.halt(final)
}

func (e *Estimator) Value() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// halt stops the ticking goroutine (once) and always applies the final
// value, so a late failure can still reset an already completed signal.
func (e *Estimator) halt(final float64) {
	e.mu.Lock()
	wasRunning := e.running
	if wasRunning {
		e.running = false
		close(e.stop)
	}
	done := e.done
	e.mu.Unlock()

	if wasRunning && done != nil {
		<-done
	}

	e.mu.Lock()
	e.current = final
	e.mu.Unlock()
	e.emit(final)
}

// tick advances the signal one step, clamped below the ceiling.
func (e *Estimator) tick() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	step := (e.cfg.Ceiling - e.current) * e.cfg.Rate
	if step < e.cfg.MinStep {
		step = e.cfg.MinStep
	}
	next := e.current + step
	if next >= e.cfg.Ceiling {
		// the ceiling is exclusive: ticking alone never reaches it
		next = e.cfg.Ceiling - e.cfg.MinStep/2
	}
	if next < e.current {
		next = e.current
	}
	e.current = next
	e.mu.Unlock()

	e.emit(next)
}

func (e *Estimator) emit(v float64) {
	if e.onChange != nil {
		e.onChange(v)
	}
}
