package coyote

import "sync/atomic"

// OperationStatus represents the current status of an [Operation].
//
// State machine:
//
//	Enabled (0) -> WaitingResources (1)  [blocks on lock/semaphore/inbox/join]
//	WaitingResources (1) -> Enabled (0)  [wait condition becomes true]
//	Enabled (0) -> Completed (2)         [actor halts / task finishes]
//	WaitingResources (1) -> Completed (2) [cancellation while blocked]
//
// Completed is terminal; use [atomicStatus.Store] for it, and
// [atomicStatus.TryTransition] (CAS) for the reversible Enabled <->
// WaitingResources transitions.
type OperationStatus uint32

const (
	// StatusEnabled indicates the operation may be selected by the
	// scheduler at the next scheduling point.
	StatusEnabled OperationStatus = iota
	// StatusWaitingResources indicates the operation is blocked on a
	// lock, semaphore, inbox receive, or join.
	StatusWaitingResources
	// StatusCompleted indicates the operation has permanently finished
	// (actor halted, or task completed/canceled/faulted).
	StatusCompleted
)

// String returns a human-readable representation of the status.
func (s OperationStatus) String() string {
	switch s {
	case StatusEnabled:
		return "Enabled"
	case StatusWaitingResources:
		return "WaitingResources"
	case StatusCompleted:
		return "Completed"
	default:
		return "Unknown"
	}
}

// atomicStatus is a lock-free status cell shared between the scheduler
// (which reads it to build the enabled set) and the operation itself
// (which transitions it as it blocks and unblocks).
type atomicStatus struct {
	v atomic.Uint32
}

func newAtomicStatus() *atomicStatus {
	s := &atomicStatus{}
	s.v.Store(uint32(StatusEnabled))
	return s
}

// Load returns the current status atomically.
func (s *atomicStatus) Load() OperationStatus {
	return OperationStatus(s.v.Load())
}

// Store atomically stores a new status. Used for the irreversible
// Completed transition.
func (s *atomicStatus) Store(status OperationStatus) {
	s.v.Store(uint32(status))
}

// TryTransition attempts to atomically transition from one status to
// another, returning whether it succeeded.
func (s *atomicStatus) TryTransition(from, to OperationStatus) bool {
	return s.v.CompareAndSwap(uint32(from), uint32(to))
}

// IsEnabled reports whether the operation is currently eligible for
// selection by the scheduler.
func (s *atomicStatus) IsEnabled() bool {
	return s.Load() == StatusEnabled
}

// IsCompleted reports whether the operation has permanently finished.
func (s *atomicStatus) IsCompleted() bool {
	return s.Load() == StatusCompleted
}
