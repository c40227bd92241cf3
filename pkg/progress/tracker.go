package progress

import (
	"sync"
	"time"
)

type Stage struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Sequence is a fixed, ordered narration of backend work followed by a
// terminal stage that is only reached when the real work finishes.
type Sequence struct {
	Stages   []Stage
	Terminal Stage
}

var ChatSequence = Sequence{
	Stages: []Stage{
		{Key: "uploading", Label: "Uploading documents"},
		{Key: "extracting", Label: "Extracting text"},
		{Key: "embedding", Label: "Creating embeddings"},
		{Key: "indexing", Label: "Building search index"},
	},
	Terminal: Stage{Key: "ready", Label: "Ready to chat"},
}

var PresentationSequence = Sequence{
	Stages: []Stage{
		{Key: "uploading", Label: "Uploading files"},
		{Key: "validating", Label: "Validating documents"},
		{Key: "analyzing", Label: "Analyzing financial data"},
		{Key: "recommending", Label: "Preparing slide recommendations"},
	},
	Terminal: Stage{Key: "ready", Label: "Ready to build your deck"},
}

// Update describes the stage now being shown. Index counts from 0 and
// equals Total on the terminal stage.
type Update struct {
	Index int   `json:"index"`
	Total int   `json:"total"`
	Stage Stage `json:"stage"`
	Done  bool  `json:"done"`
}

type state int

const (
	running state = iota
	completed
	halted
)

// Tracker walks a Sequence on a timer. It never reaches the terminal stage by
// itself: it holds on the last stage until Complete or Halt.
type Tracker struct {
	seq       Sequence
	onAdvance func(Update)

	mu    sync.Mutex
	index int
	state state

	stop     chan struct{}
	stopOnce sync.Once
}

// Start shows the first stage immediately and then advances every interval.
// A non-positive interval disables the timer; callers drive Advance themselves.
func Start(seq Sequence, interval time.Duration, onAdvance func(Update)) *Tracker {
	if onAdvance == nil {
		onAdvance = func(Update) {}
	}
	t := &Tracker{
		seq:       seq,
		onAdvance: onAdvance,
		stop:      make(chan struct{}),
	}

	t.mu.Lock()
	t.emit()
	t.mu.Unlock()

	if interval > 0 {
		go t.run(interval)
	}
	return t
}

func (t *Tracker) run(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if !t.Advance() {
				return
			}
		case <-t.stop:
			return
		}
	}
}

// Advance moves to the next narrative stage. It reports false once there is
// nothing left to advance to or the tracker has stopped.
func (t *Tracker) Advance() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != running || t.index >= len(t.seq.Stages)-1 {
		return false
	}
	t.index++
	t.emit()
	return true
}

// Complete jumps straight to the terminal stage and stops the timer.
func (t *Tracker) Complete() {
	t.mu.Lock()
	if t.state == running {
		t.state = completed
		t.index = len(t.seq.Stages)
		t.emit()
	}
	t.mu.Unlock()
	t.stopOnce.Do(func() { close(t.stop) })
}

// Halt stops the timer without reaching the terminal stage.
func (t *Tracker) Halt() {
	t.mu.Lock()
	if t.state == running {
		t.state = halted
	}
	t.mu.Unlock()
	t.stopOnce.Do(func() { close(t.stop) })
}

func (t *Tracker) Current() Update {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.update()
}

func (t *Tracker) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state != running
}

func (t *Tracker) update() Update {
	u := Update{Index: t.index, Total: len(t.seq.Stages)}
	if t.index >= len(t.seq.Stages) {
		u.Stage = t.seq.Terminal
		u.Done = true
	} else if len(t.seq.Stages) > 0 {
		u.Stage = t.seq.Stages[t.index]
	}
	return u
}

// emit must be called with mu held so updates are delivered in order.
func (t *Tracker) emit() {
	t.onAdvance(t.update())
}
