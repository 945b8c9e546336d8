package coyote

// CoverageNode identifies one (machine type, state name) pair in the
// coverage graph; a containment edge from the machine to each of its
// nodes is implicit (Nodes itself enumerates them).
type CoverageNode struct {
	Machine string
	State   string
}

// CoverageEdge is a transition observed between two nodes, labeled by the
// event type that triggered it.
type CoverageEdge struct {
	From  CoverageNode
	To    CoverageNode
	Event string
}

// Coverage is the per-iteration (or cross-iteration merged) activity
// record: states visited, events received/sent, transitions taken, and
// the induced graph, tracked separately for actors/state-machines and for
// monitors. Merging two Coverage values is commutative: the set fields
// (states, nodes, edges) are unioned, which is idempotent, while the
// EventsReceived/EventsSent counters are summed, which is not.
type Coverage struct {
	StatesVisited        map[string]map[string]bool
	EventsReceived       map[string]map[string]int
	EventsSent           map[string]map[string]int
	MonitorStatesVisited map[string]map[string]bool
	Nodes                map[CoverageNode]bool
	Edges                map[CoverageEdge]bool
}

// NewCoverage returns an empty coverage record.
func NewCoverage() *Coverage {
	return &Coverage{
		StatesVisited:        make(map[string]map[string]bool),
		EventsReceived:       make(map[string]map[string]int),
		EventsSent:           make(map[string]map[string]int),
		MonitorStatesVisited: make(map[string]map[string]bool),
		Nodes:                make(map[CoverageNode]bool),
		Edges:                make(map[CoverageEdge]bool),
	}
}

func ensureStringIntSet(m map[string]map[string]int, k string) map[string]int {
	if m[k] == nil {
		m[k] = make(map[string]int)
	}
	return m[k]
}

func ensureStringBoolSet(m map[string]map[string]bool, k string) map[string]bool {
	if m[k] == nil {
		m[k] = make(map[string]bool)
	}
	return m[k]
}

// Merge folds other into c in place, as a monotonic union: set membership
// is OR'd, counters are summed. Calling Merge repeatedly with the same
// other is idempotent for the set fields but not for the counters (by
// design -- counters accumulate total activity across iterations, sets
// track only "ever observed").
func (c *Coverage) Merge(other *Coverage) {
	for k, states := range other.StatesVisited {
		dst := ensureStringBoolSet(c.StatesVisited, k)
		for s := range states {
			dst[s] = true
		}
	}
	for k, states := range other.MonitorStatesVisited {
		dst := ensureStringBoolSet(c.MonitorStatesVisited, k)
		for s := range states {
			dst[s] = true
		}
	}
	for k, events := range other.EventsReceived {
		dst := ensureStringIntSet(c.EventsReceived, k)
		for e, n := range events {
			dst[e] += n
		}
	}
	for k, events := range other.EventsSent {
		dst := ensureStringIntSet(c.EventsSent, k)
		for e, n := range events {
			dst[e] += n
		}
	}
	for n := range other.Nodes {
		c.Nodes[n] = true
	}
	for e := range other.Edges {
		c.Edges[e] = true
	}
}

// CoverageFormatter renders a [Coverage] snapshot to an external format
// (e.g. a DGML/XML report); implementations are external collaborators --
// this package defines only the narrow interface they must satisfy.
type CoverageFormatter interface {
	Format(c *Coverage) ([]byte, error)
}

// coverageRecorder is the live, per-iteration accumulator actor.go and
// monitor.go report into; it is nil-safe so instrumentation call sites
// never need to check whether coverage is enabled.
type coverageRecorder struct {
	cov *Coverage
}

func newCoverageRecorder() *coverageRecorder {
	return &coverageRecorder{cov: NewCoverage()}
}

func (r *coverageRecorder) visitState(machineType, state string) {
	if r == nil {
		return
	}
	ensureStringBoolSet(r.cov.StatesVisited, machineType)[state] = true
	r.cov.Nodes[CoverageNode{Machine: machineType, State: state}] = true
}

func (r *coverageRecorder) visitMonitorState(monitorType, state string) {
	if r == nil {
		return
	}
	ensureStringBoolSet(r.cov.MonitorStatesVisited, monitorType)[state] = true
}

func (r *coverageRecorder) received(machineType, eventType string) {
	if r == nil {
		return
	}
	ensureStringIntSet(r.cov.EventsReceived, machineType)[eventType]++
}

func (r *coverageRecorder) sent(machineType, eventType string) {
	if r == nil {
		return
	}
	ensureStringIntSet(r.cov.EventsSent, machineType)[eventType]++
}

func (r *coverageRecorder) transition(machineType, from, to, event string) {
	if r == nil {
		return
	}
	r.cov.Edges[CoverageEdge{
		From:  CoverageNode{Machine: machineType, State: from},
		To:    CoverageNode{Machine: machineType, State: to},
		Event: event,
	}] = true
}

// Snapshot returns the accumulated coverage for the iteration.
func (r *coverageRecorder) Snapshot() *Coverage {
	if r == nil {
		return NewCoverage()
	}
	return r.cov
}
