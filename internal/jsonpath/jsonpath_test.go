package jsonpath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile_Valid(t *testing.T) {
	paths := []string{
		"accNo",
		"$.accNo",
		"section.attributes[*].value",
		"section.attributes[?(@.name=='Title')].value",
	}
	for _, p := range paths {
		_, err := Compile(p)
		assert.NoError(t, err, "path %q should compile", p)
	}
}

func TestCompile_Invalid(t *testing.T) {
	paths := []string{
		"",
		"section..attributes",
		"section[attributes",
		"section]attributes[",
	}
	for _, p := range paths {
		_, err := Compile(p)
		assert.Error(t, err, "path %q should not compile", p)
	}
}

func TestEval_SimpleField(t *testing.T) {
	doc := []byte(`{"accNo":"S-BSST1"}`)
	p, err := Compile("accNo")
	require.NoError(t, err)

	values := Eval(doc, p)
	require.Len(t, values, 1)
	assert.Equal(t, "S-BSST1", values[0])
}

func TestEval_ArrayWildcard(t *testing.T) {
	doc := []byte(`{"section":{"attributes":[{"name":"Title","value":"Cancer"},{"name":"Organism","value":"Human"}]}}`)
	p, err := Compile("section.attributes[*].value")
	require.NoError(t, err)

	values := Eval(doc, p)
	assert.ElementsMatch(t, []string{"Cancer", "Human"}, values)
}

func TestEval_FilterExpression(t *testing.T) {
	doc := []byte(`{"section":{"attributes":[{"name":"Title","value":"Cancer of the Lung"},{"name":"Organism","value":"Human"}]}}`)
	p, err := Compile("section.attributes[?(@.name=='Title')].value")
	require.NoError(t, err)

	values := Eval(doc, p)
	require.Len(t, values, 1)
	assert.Equal(t, "Cancer of the Lung", values[0])
}

func TestEval_Missing(t *testing.T) {
	doc := []byte(`{"accNo":"S-BSST1"}`)
	p, err := Compile("title")
	require.NoError(t, err)

	values := Eval(doc, p)
	assert.Empty(t, values)
}

func TestEvalFirst(t *testing.T) {
	doc := []byte(`{"accNo":"  "}`)
	p, err := Compile("accNo")
	require.NoError(t, err)

	_, ok := EvalFirst(doc, p)
	assert.False(t, ok)
}
