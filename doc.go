// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package coyote is a systematic concurrency-testing runtime for programs
// written as cooperating asynchronous tasks and message-passing actors
// (state machines).
//
// Production code runs on real goroutines; under this package's controlled
// [Scheduler] the same program executes deterministically: every
// nondeterministic choice -- which operation to step, which event to
// dequeue, which way a random branch goes, whether a timer fires now or
// later -- is made by a pluggable [Strategy] seeking schedules that violate
// user-declared safety and liveness properties (see [MonitorDecl]).
//
// # Architecture
//
// A [TestEngine] drives one or more test iterations. Each iteration creates
// a [Scheduler], registers [MonitorDecl] instances, creates a root [Actor]
// or controlled [Task], and then runs the scheduler to completion: at every
// scheduling point (actor/task creation, event send, event dequeue,
// raise/goto/push/pop, await/delay/join/lock, random choice, halt) the
// scheduler asks the configured [Strategy] which enabled [Operation] runs
// next, resumes it, and blocks everything else.
//
// [Actor] and [ActorDecl] model event-driven actors with hierarchical
// states; the controlled task layer ([Task], [WhenAll], [WhenAny]) models
// cooperative futures with suspension at awaits, delays, and joins.
// [MonitorDecl] expresses safety/liveness as a hot/cold state machine
// observed synchronously on every user event; the liveness checker in
// liveness.go detects infinite executions that never leave a hot state.
//
// # Vocabulary
//
// This package uses the newer Coyote vocabulary throughout: [Actor],
// [ActorId], [Context.SendEvent], [Context.RaiseEvent]. Readers coming from
// the older vocabulary can use this mapping: Machine -> Actor, MachineId ->
// ActorId, Send -> SendEvent, Raise -> RaiseEvent. The older "operation with
// completion" object is likewise split here into a plain [EventGroup]
// (context propagation only) and an [AwaitableEventGroup] (adds a
// single-assignment completion slot).
//
// # Non-goals
//
// This package does not rewrite production binaries to interpose on
// synchronization primitives, does not format coverage reports as XML or
// DGML, does not parse CLI flags, and does not ship production
// (uncontrolled, lock-based) shared data structures -- those are external
// collaborators, reachable only through narrow interfaces such as
// [CoverageFormatter].
package coyote
