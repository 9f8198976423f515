package engine

import (
	"database/sql"
	"fmt"
	"strings"
)

// Declaration is one intermediate scalar variable the batch declares.
type Declaration struct {
	Variable string // "@v0"
	SQLType  string
}

// Assignment links a bind parameter to its intermediate variable.
type Assignment struct {
	Variable string // "@v0"
	BindName string // "@p0"
}

// BatchPlan holds everything needed to render and execute one routine
// invocation: the declare/assign preamble, the driver-level bind arguments,
// and the argument expressions the invocation references.
//
// Declarations and Assignments are zipped by position and always the same
// length; ArgExprs references the intermediate variables, never the binds.
type BatchPlan struct {
	Declarations []Declaration
	Assignments  []Assignment
	Args         []any
	ArgExprs     []string
}

// BuildPlan assigns each parameter a positional index i in iteration order,
// producing bind name @p{i} and variable @v{i}. The two namespaces cannot
// collide with each other or within themselves for any i.
func BuildPlan(params []Parameter) BatchPlan {
	var plan BatchPlan
	for i, p := range params {
		variable := fmt.Sprintf("@v%d", i)
		plan.Declarations = append(plan.Declarations, Declaration{
			Variable: variable,
			SQLType:  p.Value.SQLType(),
		})
		plan.Assignments = append(plan.Assignments, Assignment{
			Variable: variable,
			BindName: fmt.Sprintf("@p%d", i),
		})
		plan.Args = append(plan.Args, sql.Named(fmt.Sprintf("p%d", i), p.Value.Arg()))
		plan.ArgExprs = append(plan.ArgExprs, variable)
	}
	return plan
}

// preamble renders the DECLARE and SET statements, or nothing for an empty
// plan.
func (p BatchPlan) preamble() []string {
	var stmts []string
	for _, d := range p.Declarations {
		stmts = append(stmts, fmt.Sprintf("DECLARE %s %s", d.Variable, d.SQLType))
	}
	for _, a := range p.Assignments {
		stmts = append(stmts, fmt.Sprintf("SET %s = %s", a.Variable, a.BindName))
	}
	return stmts
}

// ScalarStatement renders the batch for a scalar function call:
// declarations, assignments, then SELECT routine(args) AS Result.
func ScalarStatement(ref RoutineReference, plan BatchPlan) string {
	stmts := plan.preamble()
	stmts = append(stmts, fmt.Sprintf("SELECT %s(%s) AS Result", ref.Quoted(), strings.Join(plan.ArgExprs, ", ")))
	return strings.Join(stmts, "; ")
}

// TableStatement renders the batch for a table-valued function call.
func TableStatement(ref RoutineReference, plan BatchPlan) string {
	stmts := plan.preamble()
	stmts = append(stmts, fmt.Sprintf("SELECT * FROM %s(%s)", ref.Quoted(), strings.Join(plan.ArgExprs, ", ")))
	return strings.Join(stmts, "; ")
}

// ScalarLiteralStatement renders a scalar call from a caller-supplied literal
// argument list. The literals are spliced verbatim: this calling convention is
// a trusted-input contract, the binder and type inference are bypassed.
func ScalarLiteralStatement(ref RoutineReference, literals string) string {
	return fmt.Sprintf("SELECT %s(%s) AS Result", ref.Quoted(), strings.TrimSpace(literals))
}

// TableLiteralStatement is the table-valued twin of ScalarLiteralStatement.
func TableLiteralStatement(ref RoutineReference, literals string) string {
	return fmt.Sprintf("SELECT * FROM %s(%s)", ref.Quoted(), strings.TrimSpace(literals))
}
