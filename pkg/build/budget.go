package build

import "time"

// DefaultLimit is the wall-clock time one step may spend building.
const DefaultLimit = time.Second

// Budget bounds the work done by one Step. A zero Limit and MaxElements
// mean no bound. At least one element is always processed per step, so
// repeated steps always finish.
type Budget struct {
	Limit time.Duration
	// MaxElements caps the elements generated per step.
	MaxElements int
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// DefaultBudget is the one second budget used between frames.
func DefaultBudget() Budget { return Budget{Limit: DefaultLimit} }

// Unlimited builds everything in one step.
func Unlimited() Budget { return Budget{} }

// Status tells the caller whether a task needs another step.
type Status int

const (
	Done Status = iota
	Continue
)

func (s Status) String() string {
	if s == Continue {
		return "continue"
	}
	return "done"
}

// Token identifies where an interrupted build resumes: the index in the
// iteration mesh of the first element not yet visited.
type Token struct {
	Index int
}

// StepResult reports the outcome of one Step.
type StepResult struct {
	Status Status
	Token  Token
	// Elements is the number of elements, nodes or seeds generated.
	Elements int
}

// meter tracks one step's spending against its budget.
type meter struct {
	b     Budget
	start time.Time
	n     int
}

func (b Budget) start() *meter {
	m := &meter{b: b}
	if b.Limit > 0 {
		m.start = m.now()
	}
	return m
}

func (m *meter) now() time.Time {
	if m.b.Now != nil {
		return m.b.Now()
	}
	return time.Now()
}

func (m *meter) tick() { m.n++ }

// exhausted is checked before each element.
func (m *meter) exhausted() bool {
	if m.n == 0 {
		return false
	}
	if m.b.MaxElements > 0 && m.n >= m.b.MaxElements {
		return true
	}
	return m.b.Limit > 0 && m.now().Sub(m.start) >= m.b.Limit
}
