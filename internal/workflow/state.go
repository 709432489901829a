// Package workflow routes a query through the permission check, intent
// classification and the matching handler, and renders the reply.
//
// The graph is fixed:
//
//	check_permissions -> classify_intent | access_denied
//	classify_intent   -> handle_search | handle_payroll | respond
//	handle_search     -> respond
//	handle_payroll    -> respond
//	respond, access_denied -> done
package workflow

import (
	"github.com/spigell/hr-assistant/internal/hr"
	"github.com/spigell/hr-assistant/internal/intent"
	"github.com/spigell/hr-assistant/internal/permission"
)

type State int

const (
	StateCheckPermissions State = iota
	StateClassifyIntent
	StateHandleSearch
	StateHandlePayroll
	StateRespond
	StateDenied
	StateDone
)

func (s State) String() string {
	switch s {
	case StateCheckPermissions:
		return "check_permissions"
	case StateClassifyIntent:
		return "classify_intent"
	case StateHandleSearch:
		return "handle_search"
	case StateHandlePayroll:
		return "handle_payroll"
	case StateRespond:
		return "respond"
	case StateDenied:
		return "access_denied"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Record is threaded through every stage of one run.
type Record struct {
	Query    string
	Caller   hr.Caller
	Verdict  permission.Verdict
	Intent   intent.Intent
	Result   ToolResult
	Response string
	Path     []State
}

// Next returns the state that follows s given what the run has recorded so far.
func Next(s State, rec *Record) State {
	switch s {
	case StateCheckPermissions:
		if rec.Verdict.Granted {
			return StateClassifyIntent
		}
		return StateDenied
	case StateClassifyIntent:
		switch rec.Intent {
		case intent.Search:
			return StateHandleSearch
		case intent.Payroll:
			return StateHandlePayroll
		default:
			return StateRespond
		}
	case StateHandleSearch, StateHandlePayroll:
		return StateRespond
	default:
		return StateDone
	}
}
