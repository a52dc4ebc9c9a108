package router

import (
	"context"
	"fmt"
	"log"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"
)

const guardQuery = "data.quizclient.route_guard.allow"

// guardPolicy allows public views to everyone and protected views to authenticated sessions only.
const guardPolicy = `package quizclient.route_guard

default allow := false

allow if {
	not input.view.protected
}

allow if {
	input.session.authenticated
}
`

// SessionState reports whether the client holds credentials.
type SessionState interface {
	IsAuthenticated() bool
}

// Guard decides whether a view may be shown for the current session.
type Guard struct {
	query rego.PreparedEvalQuery
}

// NewGuard compiles the route guard policy.
func NewGuard(ctx context.Context) (*Guard, error) {
	compiler, err := ast.CompileModules(map[string]string{"route_guard.rego": guardPolicy})
	if err != nil {
		return nil, fmt.Errorf("router: compile guard policy: %w", err)
	}
	q, err := rego.New(
		rego.Query(guardQuery),
		rego.Compiler(compiler),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("router: prepare guard policy: %w", err)
	}
	return &Guard{query: q}, nil
}

// Allow evaluates the policy for view. Evaluation failures deny.
func (g *Guard) Allow(ctx context.Context, view View, authenticated bool) bool {
	input := map[string]interface{}{
		"view": map[string]interface{}{
			"name":      view.Name,
			"protected": view.Protected,
		},
		"session": map[string]interface{}{
			"authenticated": authenticated,
		},
	}
	rs, err := g.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		log.Printf("router: guard evaluation failed for %s: %v", view.Name, err)
		return false
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false
	}
	allow, ok := rs[0].Expressions[0].Value.(bool)
	return ok && allow
}
