package engine

import (
	"context"
	"database/sql"
	"strings"
	"testing"
)

// failingProvider counts acquisitions; used to prove malformed input never
// reaches the database.
type failingProvider struct {
	acquired int
}

func (p *failingProvider) Acquire(ctx context.Context, database string) (*sql.DB, error) {
	p.acquired++
	return nil, context.Canceled
}

func TestMalformedParametersShortCircuit(t *testing.T) {
	provider := &failingProvider{}
	eng := New(provider, nil)

	invocations := []func() Envelope{
		func() Envelope {
			return eng.InvokeProcedure(context.Background(), "dbo.Proc1", `{"bad":`, "")
		},
		func() Envelope {
			return eng.InvokeScalarFunction(context.Background(), "dbo.Fn", `{"bad":`, "", "")
		},
		func() Envelope {
			return eng.InvokeTableFunction(context.Background(), "dbo.Fn", `{"bad":`, "", "")
		},
	}
	for i, invoke := range invocations {
		env := invoke()
		if env.Success {
			t.Errorf("invocation %d: expected failure", i)
		}
		if !strings.HasPrefix(env.Error, "Invalid parameter JSON: ") {
			t.Errorf("invocation %d: error %q", i, env.Error)
		}
	}
	if provider.acquired != 0 {
		t.Errorf("database was contacted %d times for malformed input", provider.acquired)
	}
}

func TestAcquireFailureBecomesEnvelope(t *testing.T) {
	eng := New(&failingProvider{}, nil)
	env := eng.InvokeScalarFunction(context.Background(), "dbo.Fn", "", "", "")
	if env.Success || env.Error == "" {
		t.Errorf("expected failure envelope, got %+v", env)
	}
}

func TestLiteralConventionSkipsBinder(t *testing.T) {
	eng := New(&failingProvider{}, nil)
	// literals win over parameters; malformed parameter text must be ignored
	stmt, args, err := eng.functionBatch(ParseRoutine("dbo.Fn"), `{"bad":`, "1, 'x'", ScalarStatement, ScalarLiteralStatement)
	if err != nil {
		t.Fatalf("functionBatch: %v", err)
	}
	if stmt != "SELECT [dbo].[Fn](1, 'x') AS Result" {
		t.Errorf("stmt: got %q", stmt)
	}
	if len(args) != 0 {
		t.Errorf("args: got %d, want 0", len(args))
	}
}
