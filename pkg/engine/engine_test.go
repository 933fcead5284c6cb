package engine

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestEvaluateEmptyString(t *testing.T) {
	eng := NewEngine()

	for _, src := range []string{"", "   \n\t  \n  "} {
		p, evalErrs, err := eng.Evaluate(src)
		if err != nil {
			t.Fatalf("unexpected fatal error: %v", err)
		}
		if len(evalErrs) > 0 {
			t.Fatalf("unexpected eval errors: %v", evalErrs)
		}
		if p == nil {
			t.Fatal("expected non-nil plan")
		}
		if len(p) != 0 {
			t.Errorf("expected empty plan, got %v", p.Commands())
		}
	}
}

func TestEvaluateValidExpression(t *testing.T) {
	eng := NewEngine()

	// Plain Lisp emits no commands.
	p, evalErrs, err := eng.Evaluate("(def x 10)\n(def y 20)\n(+ x y)")
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	if len(p) != 0 {
		t.Errorf("expected empty plan, got %v", p.Commands())
	}
}

func TestEvaluateSyntaxError(t *testing.T) {
	eng := NewEngine()

	// Unmatched paren is a parse error.
	p, evalErrs, err := eng.Evaluate("(+ 1 2")
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if p != nil {
		t.Fatal("expected nil plan on syntax error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error for syntax error")
	}
	if evalErrs[0].Message == "" {
		t.Error("eval error message should not be empty")
	}
}

func TestEvaluateUndefinedSymbol(t *testing.T) {
	eng := NewEngine()

	p, evalErrs, err := eng.Evaluate("(+ 1 undefined-symbol)")
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if p != nil {
		t.Fatal("expected nil plan on eval error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error for undefined symbol")
	}
}

func TestFailedScriptEmitsNothing(t *testing.T) {
	eng := NewEngine()

	// The box is planned before the error, but a failed script has no plan.
	p, evalErrs, err := eng.Evaluate(`(box "a" :width 1 :length 1 :height 1)
(move "a" 5)`)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected an eval error for a non-vector translation")
	}
	if p != nil {
		t.Errorf("expected nil plan, got %v", p.Commands())
	}
}

func TestEvalErrorImplementsError(t *testing.T) {
	e := EvalError{Line: 5, Col: 0, Message: "something went wrong"}
	s := e.Error()
	if !strings.Contains(s, "line 5") {
		t.Errorf("Error() should contain line info, got: %s", s)
	}
	if !strings.Contains(s, "something went wrong") {
		t.Errorf("Error() should contain message, got: %s", s)
	}

	e2 := EvalError{Line: 0, Col: 0, Message: "no location"}
	if s2 := e2.Error(); strings.Contains(s2, "line") {
		t.Errorf("Error() with no line should not contain 'line', got: %s", s2)
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	eng := NewEngine()
	src := `(box "a" :width 1 :length 2 :height 3 :at (vec3 1 0 0))
(rotate "a" (rotz 90))`

	var first string
	for i := 0; i < 5; i++ {
		p, evalErrs, err := eng.Evaluate(src)
		if err != nil {
			t.Fatalf("iteration %d: unexpected fatal error: %v", i, err)
		}
		if len(evalErrs) > 0 {
			t.Fatalf("iteration %d: unexpected eval errors: %v", i, evalErrs)
		}
		got := strings.Join(p.Commands(), ",")
		if i == 0 {
			first = got
			continue
		}
		if got != first {
			t.Errorf("iteration %d: plan %s, want %s", i, got, first)
		}
	}
}

func TestEvaluateTimeout(t *testing.T) {
	// await is driven with a channel that never sends, so the test does not
	// depend on a script that zygomys can loop forever on.
	e := NewEngine(WithTimeout(20 * time.Millisecond))
	ch := make(chan evalResult)

	_, _, err := e.await(ch, e.begin())
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("await() error = %v, want ErrTimeout", err)
	}
	if !strings.Contains(err.Error(), "20ms") {
		t.Errorf("timeout error should name the limit, got: %v", err)
	}
}

func TestWithTimeout(t *testing.T) {
	if got := NewEngine().timeout; got != EvalTimeout {
		t.Errorf("default timeout = %s, want %s", got, EvalTimeout)
	}
	if got := NewEngine(WithTimeout(time.Second)).timeout; got != time.Second {
		t.Errorf("timeout = %s, want 1s", got)
	}
	if got := NewEngine(WithTimeout(0)).timeout; got != EvalTimeout {
		t.Errorf("zero timeout should keep the default, got %s", got)
	}
}

func TestEvaluateGenerationDiscardsStale(t *testing.T) {
	e := NewEngine()
	stale := e.begin()
	current := e.begin()

	ch := make(chan evalResult, 1)
	ch <- evalResult{plan: Plan{}}
	if _, _, err := e.await(ch, stale); !errors.Is(err, ErrSuperseded) {
		t.Fatalf("await(stale) error = %v, want ErrSuperseded", err)
	}

	ch <- evalResult{plan: Plan{}}
	plan, _, err := e.await(ch, current)
	if err != nil || plan == nil {
		t.Errorf("await(current) = %v, %v", plan, err)
	}
}

func TestParseZygomysError(t *testing.T) {
	tests := []struct {
		name     string
		msg      string
		wantLine int
		wantMsg  string
	}{
		{
			name:     "error on line format",
			msg:      "Error on line 5: unexpected token\n",
			wantLine: 5,
			wantMsg:  "unexpected token",
		},
		{
			name:     "no line info",
			msg:      "some generic error",
			wantLine: 0,
			wantMsg:  "some generic error",
		},
		{
			name:     "line format lowercase",
			msg:      "error on line 12: missing paren",
			wantLine: 12,
			wantMsg:  "missing paren",
		},
		{
			name:     "short line format",
			msg:      "line 3: move: missing translation",
			wantLine: 3,
			wantMsg:  "missing translation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := parseZygomysError(errString(tt.msg))
			if len(errs) == 0 {
				t.Fatal("expected at least one error")
			}
			e := errs[0]
			if e.Line != tt.wantLine {
				t.Errorf("line = %d, want %d", e.Line, tt.wantLine)
			}
			if !strings.Contains(e.Message, tt.wantMsg) {
				t.Errorf("message = %q, want containing %q", e.Message, tt.wantMsg)
			}
		})
	}
}

// errString is a simple error type for testing.
type errString string

func (e errString) Error() string { return string(e) }
