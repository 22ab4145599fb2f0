package loader

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/jvx/pkg/jsonvalue"
)

func TestLoad_Statuses(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Status
		wantErr error
	}{
		{name: "object", raw: `{"a":1}`, want: StatusOK},
		{name: "array with padding", raw: "  \n[1, 2]\t ", want: StatusOK},
		{name: "leading bom", raw: "\uFEFF{\"a\":true}", want: StatusOK},
		{name: "empty", raw: "", want: StatusEmpty, wantErr: ErrEmpty},
		{name: "whitespace only", raw: " \n\t ", want: StatusEmpty, wantErr: ErrEmpty},
		{name: "bom only", raw: "\uFEFF", want: StatusEmpty, wantErr: ErrEmpty},
		{name: "bare scalar", raw: "42", want: StatusShapeRejected, wantErr: ErrShape},
		{name: "mismatched brackets", raw: `{"a":1]`, want: StatusShapeRejected, wantErr: ErrShape},
		{name: "string", raw: `"{}"`, want: StatusShapeRejected, wantErr: ErrShape},
		{name: "unquoted key", raw: `{a:1}`, want: StatusParseError, wantErr: ErrParse},
		{name: "trailing comma", raw: `{"a":1,}`, want: StatusParseError, wantErr: ErrParse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Load(tt.raw, 0)
			assert.Equal(t, tt.want, res.Status, res.Message)
			if tt.wantErr == nil {
				require.NoError(t, res.Err())
				assert.True(t, res.OK())
				return
			}
			require.Error(t, res.Err())
			assert.True(t, errors.Is(res.Err(), tt.wantErr))
			assert.False(t, res.OK())
		})
	}
}

func TestLoad_ParseErrorCarriesDiagnostic(t *testing.T) {
	res := Load(`{a:1}`, 0)
	require.Equal(t, StatusParseError, res.Status)
	assert.Contains(t, res.Message, "invalid character 'a'")

	var se *jsonvalue.SyntaxError
	require.True(t, errors.As(res.Err(), &se))
	assert.Equal(t, res.Message, se.Msg)

	var le *LoadError
	require.True(t, errors.As(res.Err(), &le))
	assert.Equal(t, StatusParseError, le.Kind)
}

func TestLoad_CeilingBoundary(t *testing.T) {
	const limit = 64
	body := func(n int) string {
		return "[" + strings.Repeat(" ", n-3) + "0]"
	}

	at := Load(body(limit), limit)
	assert.Equal(t, StatusOK, at.Status)
	assert.Equal(t, limit, at.Length)

	over := Load(body(limit+1), limit)
	assert.Equal(t, StatusTooLarge, over.Status)
	assert.True(t, errors.Is(over.Err(), ErrTooLarge))
	assert.Equal(t, limit+1, over.Length)
}

func TestPrecheck_CountsCharactersNotBytes(t *testing.T) {
	text := `["` + strings.Repeat("é", 10) + `"]`
	c := Precheck(text, 14)
	assert.Equal(t, StatusOK, c.Status)
	assert.Equal(t, 14, c.Length)
	assert.Greater(t, len(text), 14)

	assert.Equal(t, StatusTooLarge, Precheck(text, 13).Status)
}

func TestLoad_PreservesTextAndValue(t *testing.T) {
	res := Load("\uFEFF  {\"b\":1,\"a\":2}  ", 0)
	require.True(t, res.OK())
	assert.Equal(t, `{"b":1,"a":2}`, res.Text)
	assert.Equal(t, []string{"b", "a"}, res.Value.Keys())
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "ok", StatusOK.String())
	assert.Equal(t, "empty", StatusEmpty.String())
	assert.Equal(t, "too-large", StatusTooLarge.String())
	assert.Equal(t, "shape-rejected", StatusShapeRejected.String())
	assert.Equal(t, "parse-error", StatusParseError.String())
}
