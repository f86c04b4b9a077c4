// Package agent provides the agents of the build pipeline. Every agent runs its
// own state machine to completion against the shared fact sheet.
package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/p-blackswan/forge/internal/llm"
	"github.com/p-blackswan/forge/internal/project"
	"github.com/p-blackswan/forge/internal/terminal"
)

// AgentState is the shared state machine shape of all agents.
type AgentState int

const (
	Discovery AgentState = iota
	Working
	UnitTesting
	Finishing
)

func (s AgentState) String() string {
	switch s {
	case Discovery:
		return "discovery"
	case Working:
		return "working"
	case UnitTesting:
		return "unit_testing"
	case Finishing:
		return "finishing"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// CanTransition reports whether the machine may move from s to next. Progress is
// forward only, except UnitTesting -> Working for a retry. Finishing is terminal.
func (s AgentState) CanTransition(next AgentState) bool {
	if s == Finishing || next < Discovery || next > Finishing {
		return false
	}
	if s == UnitTesting && next == Working {
		return true
	}
	return next > s
}

// ErrInvalidTransition is returned for a state change the machine does not allow.
var ErrInvalidTransition = errors.New("invalid agent state transition")

// BasicAgent is the identity, state and memory every agent owns.
type BasicAgent struct {
	Objective string
	Position  string
	State     AgentState
	Memory    []llm.Message
}

// UpdateState moves the agent to next if the transition is allowed.
func (b *BasicAgent) UpdateState(next AgentState) error {
	if !b.State.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.State, next)
	}
	b.State = next
	return nil
}

// Remember appends messages to the agent's memory.
func (b *BasicAgent) Remember(msgs ...llm.Message) {
	b.Memory = append(b.Memory, msgs...)
}

// Snapshot returns a copy that shares no memory with b.
func (b BasicAgent) Snapshot() BasicAgent {
	b.Memory = append([]llm.Message(nil), b.Memory...)
	return b
}

// SpecialFunctions is the capability every pipeline agent implements. New agent
// kinds are added by implementing it.
type SpecialFunctions interface {
	// Execute runs the agent's state machine to Finishing, mutating the fact sheet.
	Execute(ctx context.Context, fs *project.FactSheet) error
	// Attributes returns a snapshot of the agent's descriptor.
	Attributes() BasicAgent
}

type nopPrinter struct{}

func (nopPrinter) PrintAgentMsg(terminal.PrintCommand, string, string) {}
