package expr

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/macropower/condfmt/pkg/cell"
)

// ErrNotBoolean is returned when an expression does not produce a bool.
var ErrNotBoolean = errors.New("expression must return a bool")

// Protect CEL environment creation and compilation from concurrent access.
var celMutex sync.Mutex

// Environment provides a thread-safe wrapper around a [*cel.Env].
type Environment struct {
	env *cel.Env
}

// NewEnvironment creates a new [Environment].
func NewEnvironment(opts ...cel.EnvOption) (*Environment, error) {
	env, err := createEnvironment(opts...)
	if err != nil {
		return nil, err
	}

	return &Environment{env: env}, nil
}

// MustNewEnvironment creates a new [Environment] and panics on error.
func MustNewEnvironment(opts ...cel.EnvOption) *Environment {
	env, err := NewEnvironment(opts...)
	if err != nil {
		panic(err)
	}

	return env
}

// Default is the shared environment used by rule construction.
var Default = sync.OnceValue(func() *Environment {
	return MustNewEnvironment()
})

// createEnvironment creates the [*cel.Env] using the global mutex.
func createEnvironment(opts ...cel.EnvOption) (*cel.Env, error) {
	celMutex.Lock()
	defer celMutex.Unlock()

	opts = append(opts, cel.Lib(&lib{}))

	celEnv, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}

	return celEnv, nil
}

// Compile compiles a CEL expression into a [*Program]. Expressions whose
// static type is neither bool nor dyn are rejected.
func (e *Environment) Compile(expression string) (*Program, error) {
	celMutex.Lock()
	defer celMutex.Unlock()

	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile expression: %w", issues.Err())
	}

	out := ast.OutputType()
	if !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("%w, got %s", ErrNotBoolean, out)
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("create program: %w", err)
	}

	return &Program{program: program, source: expression}, nil
}

// Program is a compiled cell expression. It is safe for concurrent use.
type Program struct {
	program cel.Program
	source  string
}

// Source returns the expression the program was compiled from.
func (p *Program) Source() string {
	return p.source
}

// Match evaluates the program for the cell at a holding v. Evaluation errors
// and non-bool results are returned as errors; callers treat them as a
// non-match.
func (p *Program) Match(a cell.Address, v cell.Value) (bool, error) {
	val := v.Any()
	if v.Kind() == cell.KindError {
		val = nil
	}

	result, _, err := p.program.Eval(map[string]any{
		"value": ConvertToCELValue(val),
		"kind":  v.Kind().String(),
		"row":   int64(a.Row),
		"col":   int64(a.Col),
		"cell":  a.String(),
	})
	if err != nil {
		return false, fmt.Errorf("evaluate %q at %s: %w", p.source, a, err)
	}

	b, ok := result.Value().(bool)
	if !ok {
		return false, fmt.Errorf("%w at %s, got %T", ErrNotBoolean, a, result.Value())
	}

	return b, nil
}
