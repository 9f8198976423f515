package engine

import (
	"database/sql"
	"fmt"
	"testing"
)

func TestBuildPlanInvariants(t *testing.T) {
	params, err := DecodeParameters(`{"@a": 1, "@b": "x", "@c": null, "@d": true}`)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	plan := BuildPlan(params)

	if len(plan.Declarations) != len(params) {
		t.Fatalf("declarations: got %d, want %d", len(plan.Declarations), len(params))
	}
	if len(plan.Assignments) != len(plan.Declarations) {
		t.Fatalf("assignments: got %d, want %d", len(plan.Assignments), len(plan.Declarations))
	}
	if len(plan.Args) != len(params) || len(plan.ArgExprs) != len(params) {
		t.Fatalf("args %d exprs %d, want %d", len(plan.Args), len(plan.ArgExprs), len(params))
	}

	for i := range plan.Declarations {
		wantVar := fmt.Sprintf("@v%d", i)
		wantBind := fmt.Sprintf("@p%d", i)
		if plan.Declarations[i].Variable != wantVar {
			t.Errorf("declaration %d: got %q, want %q", i, plan.Declarations[i].Variable, wantVar)
		}
		if plan.Assignments[i].Variable != wantVar {
			t.Errorf("assignment %d variable: got %q, want %q", i, plan.Assignments[i].Variable, wantVar)
		}
		if plan.Assignments[i].BindName != wantBind {
			t.Errorf("assignment %d bind: got %q, want %q", i, plan.Assignments[i].BindName, wantBind)
		}
		if plan.ArgExprs[i] != wantVar {
			t.Errorf("arg expr %d: got %q, want %q", i, plan.ArgExprs[i], wantVar)
		}
		named, ok := plan.Args[i].(sql.NamedArg)
		if !ok {
			t.Fatalf("arg %d: got %T, want sql.NamedArg", i, plan.Args[i])
		}
		if named.Name != fmt.Sprintf("p%d", i) {
			t.Errorf("arg %d name: got %q, want p%d", i, named.Name, i)
		}
	}
}

func TestScalarStatementAddTax(t *testing.T) {
	params, err := DecodeParameters(`{"@amount": 100.00, "@rate": 0.08}`)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	plan := BuildPlan(params)
	got := ScalarStatement(ParseRoutine("dbo.AddTax"), plan)
	want := "DECLARE @v0 DECIMAL(38,10); DECLARE @v1 DECIMAL(38,10); " +
		"SET @v0 = @p0; SET @v1 = @p1; " +
		"SELECT [dbo].[AddTax](@v0, @v1) AS Result"
	if got != want {
		t.Errorf("statement:\n got %q\nwant %q", got, want)
	}
}

func TestZeroParameterStatements(t *testing.T) {
	plan := BuildPlan(nil)
	ref := ParseRoutine("dbo.GetVersion")

	if got := ScalarStatement(ref, plan); got != "SELECT [dbo].[GetVersion]() AS Result" {
		t.Errorf("scalar: got %q", got)
	}
	if got := TableStatement(ref, plan); got != "SELECT * FROM [dbo].[GetVersion]()" {
		t.Errorf("table: got %q", got)
	}
}

func TestTableStatement(t *testing.T) {
	params, err := DecodeParameters(`{"@year": 2024}`)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	got := TableStatement(ParseRoutine("sales.OrdersByYear"), BuildPlan(params))
	want := "DECLARE @v0 INT; SET @v0 = @p0; SELECT * FROM [sales].[OrdersByYear](@v0)"
	if got != want {
		t.Errorf("statement:\n got %q\nwant %q", got, want)
	}
}

func TestLiteralStatements(t *testing.T) {
	ref := ParseRoutine("dbo.AddTax")
	if got := ScalarLiteralStatement(ref, "100.00, 0.08"); got != "SELECT [dbo].[AddTax](100.00, 0.08) AS Result" {
		t.Errorf("scalar literal: got %q", got)
	}
	if got := TableLiteralStatement(ref, "'2024-01-01', 5"); got != "SELECT * FROM [dbo].[AddTax]('2024-01-01', 5)" {
		t.Errorf("table literal: got %q", got)
	}
}

func TestParseRoutine(t *testing.T) {
	tests := []struct {
		in     string
		schema string
		name   string
		quoted string
	}{
		{"AddTax", "", "AddTax", "[AddTax]"},
		{"dbo.AddTax", "dbo", "AddTax", "[dbo].[AddTax]"},
		{"a.b.c", "a", "b.c", "[a].[b.c]"},
		{" dbo.Trim ", "dbo", "Trim", "[dbo].[Trim]"},
		{"dbo.evil]name", "dbo", "evil]name", "[dbo].[evil]]name]"},
	}
	for _, tt := range tests {
		ref := ParseRoutine(tt.in)
		if ref.Schema != tt.schema || ref.Name != tt.name {
			t.Errorf("parse %q: got (%q, %q), want (%q, %q)", tt.in, ref.Schema, ref.Name, tt.schema, tt.name)
		}
		if got := ref.Quoted(); got != tt.quoted {
			t.Errorf("quote %q: got %q, want %q", tt.in, got, tt.quoted)
		}
	}
}
