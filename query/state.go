// Copyright 2020-2021 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package query

import (
	"github.com/opentracing/opentracing-go"
	"github.com/satori/go.uuid"
	"github.com/sirupsen/logrus"

	"github.com/4store/qcore/rowexec"
)

// Phase is one step of the state machine of spec §4.10. Source used
// setjmp-style early exits from deep bind recursion; this replaces that
// with explicit phase transitions instead (spec §9).
type Phase int

const (
	PhaseInit Phase = iota
	PhasePlanned
	PhaseExecuting
	PhaseJoined
	PhaseProjected
	PhaseEmitting
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseInit:
		return "INIT"
	case PhasePlanned:
		return "PLANNED"
	case PhaseExecuting:
		return "EXECUTING"
	case PhaseJoined:
		return "JOINED"
	case PhaseProjected:
		return "PROJECTED"
	case PhaseEmitting:
		return "EMITTING"
	case PhaseDone:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// QueryState is the explicit per-query aggregate spec §9 calls for in place
// of source's process-global caches: everything one execution needs lives
// here, with one lock each, instead of scattered globals (spec §9, §5).
type QueryState struct {
	ID    uuid.UUID
	Phase Phase
	Log   *logrus.Entry

	// BindCache is scoped to this query alone (spec §5: "per query-state
	// object"), unlike the resolution cache which is process-global.
	BindCache *rowexec.BindCache

	Boolean  bool
	ErrCount int
	Warnings []string

	span opentracing.Span
}

// newQueryState starts a fresh state machine in PhaseInit, tagging every
// subsequent log line with the query's UUID (spec SPEC_FULL §A.1).
func newQueryState(log *logrus.Entry) *QueryState {
	id := uuid.NewV4()
	return &QueryState{
		ID:        id,
		Phase:     PhaseInit,
		Log:       log.WithField("query", id.String()),
		BindCache: rowexec.NewBindCache(),
		Boolean:   true,
	}
}

// enter transitions to phase, closing any open tracing span and opening a
// new one tagged with the query UUID (spec SPEC_FULL §A.5).
func (s *QueryState) enter(tracer opentracing.Tracer, phase Phase) {
	if s.span != nil {
		s.span.Finish()
	}
	s.Phase = phase
	if tracer != nil {
		s.span = tracer.StartSpan(phase.String())
		s.span.SetTag("query", s.ID.String())
	}
	s.Log.WithField("phase", phase.String()).Debug("phase transition")
}

// fail records a fatal error, transitions straight to DONE (spec §4.10) and
// flips Boolean false.
func (s *QueryState) fail(tracer opentracing.Tracer, err error) {
	s.ErrCount++
	s.Boolean = false
	s.Log.WithError(err).Error("query failed")
	s.finish(tracer)
}

// warn accumulates a non-fatal evaluation warning (spec §7).
func (s *QueryState) warn(msg string) {
	s.Warnings = append(s.Warnings, msg)
}

// finish transitions to DONE and closes the tracing span, without opening a
// fresh one for a phase that has nothing left to trace.
func (s *QueryState) finish(tracer opentracing.Tracer) {
	if s.span != nil {
		s.span.Finish()
		s.span = nil
	}
	s.Phase = PhaseDone
	s.Log.Debug("phase transition to DONE")
}
