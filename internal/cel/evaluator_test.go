package cel

import (
	"context"
	"strings"
	"testing"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/jvx/pkg/jsonvalue"
)

func mustParse(t *testing.T, text string) jsonvalue.Value {
	t.Helper()
	v, err := jsonvalue.Parse(text)
	require.NoError(t, err)
	return v
}

func TestQuery_Eval(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)

	doc := mustParse(t, `{"name":"shop","items":[{"name":"a","price":5,"tags":["x"]},{"name":"b","price":15,"tags":[]}],"open":true,"owner":null}`)

	tests := []struct {
		name string
		expr string
		want string
	}{
		{name: "identity sorts keys", expr: "_", want: `{"items":[{"name":"a","price":5,"tags":["x"]},{"name":"b","price":15,"tags":[]}],"name":"shop","open":true,"owner":null}`},
		{name: "field", expr: "_.name", want: `"shop"`},
		{name: "index", expr: "_.items[1].price", want: `15`},
		{name: "filter", expr: "_.items.filter(x, x.price > 10).map(x, x.name)", want: `["b"]`},
		{name: "size is an int", expr: "size(_.items)", want: `2`},
		{name: "null", expr: "_.owner", want: `null`},
		{name: "numeric equality across types", expr: "_.items[0].price == 5", want: `true`},
		{name: "map literal", expr: `{"count": size(_.items), "first": _.items[0].name}`, want: `{"count":2,"first":"a"}`},
		{name: "string extension", expr: "_.name.upperAscii()", want: `"SHOP"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := eval.Compile(tt.expr)
			require.NoError(t, err)
			got, err := q.Eval(context.Background(), doc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, jsonvalue.Marshal(got))
		})
	}
}

func TestCompileErrors(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)

	for _, expr := range []string{"", "   ", "_.items.filter(", "undefined_var + 1"} {
		_, err := eval.Compile(expr)
		assert.ErrorContains(t, err, "compilation error", expr)
	}
}

func TestEvalErrors(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)

	q, err := eval.Compile("_.missing")
	require.NoError(t, err)
	_, err = q.Eval(context.Background(), mustParse(t, `{"a":1}`))
	assert.ErrorContains(t, err, "eval error")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	q, err = eval.Compile("_.list.all(x, x > 0)")
	require.NoError(t, err)
	_, err = q.Eval(ctx, mustParse(t, `{"list":[`+strings.Repeat("1,", 500)+`1]}`))
	assert.Error(t, err)
}

func TestTransform(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)

	fn, err := eval.Transform("_[0]")
	require.NoError(t, err)
	got, err := fn(context.Background(), mustParse(t, `[{"k":true}]`))
	require.NoError(t, err)
	assert.Equal(t, `{"k":true}`, jsonvalue.Marshal(got))

	_, err = eval.Transform("_[")
	assert.Error(t, err)
}

func TestEvaluateNative(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)

	tests := []struct {
		name string
		expr string
		data any
		want any
	}{
		{"access field", "_.name", map[string]any{"name": "test"}, "test"},
		{"access int", "_.count", map[string]any{"count": 42}, int64(42)},
		{"array index", "_[0]", []any{"first", "second"}, "first"},
		{"operator", "_.x > 5 && _.x < 20", map[string]any{"x": 10}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := eval.Compile(tt.expr)
			require.NoError(t, err)
			got, err := q.EvalNative(context.Background(), tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToGo(t *testing.T) {
	tests := []struct {
		name  string
		input ref.Val
		want  any
	}{
		{"bool", types.Bool(true), true},
		{"int", types.Int(42), int64(42)},
		{"uint", types.Uint(100), uint64(100)},
		{"double", types.Double(3.5), 3.5},
		{"string", types.String("hello"), "hello"},
		{"bytes", types.Bytes("data"), []byte("data")},
		{"null", types.NullValue, nil},
		{"nil", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToGo(tt.input))
		})
	}
}

func TestNewEvaluator_WithCustomFunction(t *testing.T) {
	shout := cel.Function("shout",
		cel.Overload("shout_string",
			[]*cel.Type{cel.StringType},
			cel.StringType,
			cel.UnaryBinding(func(v ref.Val) ref.Val {
				return types.String(strings.ToUpper(string(v.(types.String))) + "!")
			}),
		),
	)
	eval, err := NewEvaluator(shout)
	require.NoError(t, err)
	q, err := eval.Compile(`shout(_.a)`)
	require.NoError(t, err)
	got, err := q.EvalNative(context.Background(), map[string]any{"a": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "HI!", got)

	docs := eval.FunctionDocs()
	assert.Contains(t, docs, "shout() - shout(string) -> string")
}

func TestFunctionDocs(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)

	docs := eval.FunctionDocs()
	require.Greater(t, len(docs), 10)
	assert.Contains(t, docs, "filter() - macro")
	for _, d := range docs {
		assert.False(t, strings.HasPrefix(d, "@"), d)
		assert.False(t, strings.HasPrefix(d, "_"), d)
	}
	assert.IsNonDecreasing(t, docs)
}
