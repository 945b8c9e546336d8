package coyote

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// namespaceActorId is a fixed namespace used to derive deterministic ids
// for CreateActorIdFromName, so that the same (type, name) pair always
// yields the same ActorId within (and across) runs.
var namespaceActorId = uuid.MustParse("5c2b8f2e-6b8e-4b7b-9e7f-2f6b1a9d6b10")

// ActorId is an opaque, globally unique identifier for an [Actor].
// Equality is identity: two ActorId values are the same actor iff their
// uuid.UUID values are equal. An id bound to a live actor is routable; a
// halted id becomes unbound until (and unless) it is recreated, which is
// only permitted after the prior instance fully halts -- see
// [ActorIdReuse].
type ActorId struct {
	id       uuid.UUID
	typeName string
	name     string
}

// NewActorId returns a fresh, randomly generated id carrying the given
// type tag and an empty friendly name.
func NewActorId(typeName string) ActorId {
	return ActorId{id: uuid.New(), typeName: typeName}
}

// NewNamedActorId returns a fresh, randomly generated id carrying the
// given type tag and friendly name. Unlike [Runtime.CreateActorIdFromName], two
// calls with the same name produce different ids -- the name here is
// cosmetic (diagnostics only).
func NewNamedActorId(typeName, name string) ActorId {
	return ActorId{id: uuid.New(), typeName: typeName, name: name}
}

// deterministicActorId derives an id from (typeName, name) via uuid v5, so
// CreateActorIdFromName is stable for a given pair.
func deterministicActorId(typeName, name string) ActorId {
	return ActorId{
		id:       uuid.NewSHA1(namespaceActorId, []byte(typeName+"\x00"+name)),
		typeName: typeName,
		name:     name,
	}
}

// TypeName returns the declared type tag of the id.
func (id ActorId) TypeName() string { return id.typeName }

// Name returns the friendly name of the id, or "" if it was not created
// with one.
func (id ActorId) Name() string { return id.name }

// IsZero reports whether id is the zero value (never assigned).
func (id ActorId) IsZero() bool { return id.id == uuid.Nil }

// String renders the id in the diagnostic form used throughout error
// messages and golden test strings: "TypeName(name)", with name left empty
// when the id was not given a friendly one -- e.g. "N()", never the
// underlying UUID.
func (id ActorId) String() string {
	return fmt.Sprintf("%s(%s)", id.typeName, id.name)
}

// idTable owns the (type, name) -> ActorId binding for
// CreateActorIdFromName, and tracks which ids are currently bound to a
// live actor for ActorIdReuse / UnboundActor checks.
type idTable struct {
	mu       sync.Mutex
	byName   map[string]ActorId // key: typeName + "\x00" + name
	bound    map[uuid.UUID]*Actor
	declared map[uuid.UUID]string // id -> declared type, for TypeMismatch
}

func newIdTable() *idTable {
	return &idTable{
		byName:   make(map[string]ActorId),
		bound:    make(map[uuid.UUID]*Actor),
		declared: make(map[uuid.UUID]string),
	}
}

// CreateActorIdFromName returns a deterministic id bound to the (type,
// name) pair, creating the mapping on first use. Binding to a live actor
// happens separately, in CreateActorWithId.
func (t *idTable) CreateActorIdFromName(typeName, name string) ActorId {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := typeName + "\x00" + name
	if id, ok := t.byName[key]; ok {
		return id
	}
	id := deterministicActorId(typeName, name)
	t.byName[key] = id
	return id
}

// bind registers id as live, bound to actor a. It returns ActorIdReuse if
// a different, not-yet-halted actor currently occupies id, and
// TypeMismatch if id was declared (via CreateActorIdFromName) with a
// different type tag.
func (t *idTable) bind(id ActorId, a *Actor) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if declared, ok := t.declared[id.id]; ok && declared != id.typeName {
		return &TypeMismatch{Id: id, Expected: declared, Actual: id.typeName}
	}
	if prior, ok := t.bound[id.id]; ok && prior.Status() != ActorHalted {
		return &ActorIdReuse{Id: id}
	}
	t.declared[id.id] = id.typeName
	t.bound[id.id] = a
	return nil
}

// lookup returns the live actor bound to id, or nil if id is unbound.
func (t *idTable) lookup(id ActorId) *Actor {
	t.mu.Lock()
	defer t.mu.Unlock()
	a, ok := t.bound[id.id]
	if !ok || a.Status() == ActorHalted {
		return nil
	}
	return a
}

// unbind releases id once its actor halts, so a later CreateActor may
// reuse it.
func (t *idTable) unbind(id ActorId) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.bound, id.id)
}
