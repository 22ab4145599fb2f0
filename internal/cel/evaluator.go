// Package cel runs CEL expressions over parsed JSON documents. The document is
// bound to the variable "_", so "_.items.filter(x, x.price > 10)" selects a
// subset of a document before it is rendered.
package cel

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/decls"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	celext "github.com/google/cel-go/ext"

	"github.com/oakwood-commons/jvx/pkg/jsonvalue"
	"github.com/oakwood-commons/jvx/pkg/logger"
)

// DefaultCostLimit bounds the work a single evaluation may do.
const DefaultCostLimit uint64 = 10_000_000

// Evaluator compiles CEL expressions against the standard environment.
type Evaluator struct {
	env       *cel.Env
	costLimit uint64
}

// NewEvaluator creates an evaluator with the string, encoder, list and math
// extensions. Extra options extend the environment.
func NewEvaluator(opts ...cel.EnvOption) (*Evaluator, error) {
	env, err := newStandardCELEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &Evaluator{env: env, costLimit: DefaultCostLimit}, nil
}

func newStandardCELEnv(opts ...cel.EnvOption) (*cel.Env, error) {
	allOpts := make([]cel.EnvOption, 0, 5+len(opts))
	allOpts = append(allOpts,
		cel.Variable("_", cel.DynType),
		celext.Strings(),
		celext.Encoders(),
		celext.Lists(),
		celext.Math(),
	)
	allOpts = append(allOpts, opts...)
	return cel.NewEnv(allOpts...)
}

// Query is a compiled expression. It is safe for concurrent use.
type Query struct {
	expr string
	prg  cel.Program
}

// Compile parses and checks expr.
func (e *Evaluator) Compile(expr string) (*Query, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("compilation error: empty expression")
	}
	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compilation error: %w", issues.Err())
	}
	prg, err := e.env.Program(ast,
		cel.CostLimit(e.costLimit),
		cel.InterruptCheckFrequency(100),
	)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	return &Query{expr: expr, prg: prg}, nil
}

// String returns the source expression.
func (q *Query) String() string { return q.expr }

// EvalNative evaluates against generic Go data and returns generic Go data.
func (q *Query) EvalNative(ctx context.Context, data any) (any, error) {
	result, _, err := q.prg.ContextEval(ctx, map[string]any{"_": data})
	if err != nil {
		return nil, fmt.Errorf("eval error: %w", err)
	}
	converted := ToGo(result)
	if refVal, ok := converted.(ref.Val); ok {
		converted = refVal.Value()
	}
	return converted, nil
}

// Eval evaluates against a parsed document. Objects in the result have
// their keys sorted.
func (q *Query) Eval(ctx context.Context, v jsonvalue.Value) (jsonvalue.Value, error) {
	out, err := q.EvalNative(ctx, jsonvalue.ToNative(v))
	if err != nil {
		return jsonvalue.Value{}, err
	}
	res, err := jsonvalue.FromNative(out)
	if err != nil {
		return jsonvalue.Value{}, fmt.Errorf("result of %q is not JSON: %w", q.expr, err)
	}
	logger.FromContext(ctx).V(1).Info("expression evaluated", "expr", q.expr, "kind", res.Kind().String())
	return res, nil
}

// Transform compiles expr into a document rewrite for the viewer pipeline.
func (e *Evaluator) Transform(expr string) (func(context.Context, jsonvalue.Value) (jsonvalue.Value, error), error) {
	q, err := e.Compile(expr)
	if err != nil {
		return nil, err
	}
	return q.Eval, nil
}

// ToGo converts CEL values to map[string]any, []any and scalars.
func ToGo(val ref.Val) any {
	if val == nil {
		return nil
	}

	switch v := val.(type) {
	case types.Null:
		return nil
	case types.Bool:
		return bool(v)
	case types.Int:
		return int64(v)
	case types.Uint:
		return uint64(v)
	case types.Double:
		return float64(v)
	case types.String:
		return string(v)
	case types.Bytes:
		return []byte(v)
	}

	inner := val.Value()
	switch t := inner.(type) {
	case []ref.Val:
		out := make([]any, len(t))
		for i, elem := range t {
			out[i] = ToGo(elem)
		}
		return out
	case []any:
		return convertSlice(t)
	case map[string]any:
		return convertMapValues(t)
	case map[ref.Val]ref.Val:
		out := make(map[string]any, len(t))
		for k, v := range t {
			out[fmt.Sprintf("%v", k.Value())] = ToGo(v)
		}
		return out
	}
	return inner
}

func convertSlice(s []any) []any {
	out := make([]any, len(s))
	for i, elem := range s {
		out[i] = convertAny(elem)
	}
	return out
}

func convertMapValues(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = convertAny(v)
	}
	return out
}

func convertAny(v any) any {
	switch t := v.(type) {
	case ref.Val:
		return ToGo(t)
	case map[string]any:
		return convertMapValues(t)
	case []any:
		return convertSlice(t)
	default:
		return v
	}
}

// FunctionDocs lists the functions and macros of the environment with
// their overload signatures, for the help page.
func (e *Evaluator) FunctionDocs() []string {
	return DiscoverFunctionsFromEnv(e.env)
}

// isOperator filters out operator-style declarations.
func isOperator(name string) bool {
	if strings.HasPrefix(name, "@") {
		return true
	}
	if strings.HasPrefix(name, "_") && strings.HasSuffix(name, "_") {
		return true
	}
	switch name {
	case "!_", "-_", "_[_]", "_?_:_":
		return true
	}
	return false
}

func typeLabel(t *types.Type) string {
	if t == nil {
		return "any"
	}
	if name := t.DeclaredTypeName(); name != "" {
		return name
	}
	if name := t.TypeName(); name != "" {
		return name
	}
	return "any"
}

func formatParams(params []*types.Type) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = typeLabel(p)
	}
	return strings.Join(parts, ", ")
}

func usageFromOverload(name string, o *decls.OverloadDecl) string {
	params := o.ArgTypes()
	var call string
	switch {
	case len(params) == 0:
		call = name + "()"
	case o.IsMemberFunction():
		call = typeLabel(params[0]) + "." + name + "(" + formatParams(params[1:]) + ")"
	default:
		call = name + "(" + formatParams(params) + ")"
	}
	if rt := o.ResultType(); rt != nil {
		call += " -> " + typeLabel(rt)
	}
	return call
}

// DiscoverFunctionsFromEnv returns "name() - usage" entries for every
// function overload and macro in env, sorted and de-duplicated.
func DiscoverFunctionsFromEnv(env *cel.Env) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, 128)
	add := func(entry string) {
		if !seen[entry] {
			seen[entry] = true
			out = append(out, entry)
		}
	}

	for _, fn := range env.Functions() {
		if isOperator(fn.Name()) {
			continue
		}
		for _, o := range fn.OverloadDecls() {
			add(fn.Name() + "() - " + usageFromOverload(fn.Name(), o))
		}
	}
	for _, m := range env.Macros() {
		if isOperator(m.Function()) {
			continue
		}
		add(m.Function() + "() - macro")
	}

	sort.Strings(out)
	return out
}
