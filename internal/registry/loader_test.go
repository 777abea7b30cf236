package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromBytes_Basic(t *testing.T) {
	data := []byte(`[{"collectionName":"c1","properties":[{"name":"facet.c1.example","title":"Example Property","fieldType":"facet","sortable":true}]}]`)

	reg, err := LoadFromBytes(data)
	require.NoError(t, err)

	cd, ok := reg.Collection("c1")
	require.True(t, ok)
	require.Len(t, cd.Properties, 1)

	p := cd.Properties[0]
	assert.Equal(t, Facet, p.FieldType)
	assert.True(t, p.Sortable)
	assert.True(t, p.IsFacet())
}

func TestLoad_GlobalPropertyCardinality(t *testing.T) {
	data := []byte(`[
		{"collectionName":"c1","properties":[{"name":"title","fieldType":"tokenized_string"}]},
		{"collectionName":"c2","properties":[{"name":"author","fieldType":"tokenized_string"}]}
	]`)

	reg, err := LoadFromBytes(data)
	require.NoError(t, err)

	total := 0
	for _, cd := range reg.Collections() {
		total += len(cd.Properties)
	}
	assert.Equal(t, total, len(reg.GlobalProperties()))
}

func TestLoad_DuplicatePropertyAcrossCollections(t *testing.T) {
	data := []byte(`[
		{"collectionName":"c1","properties":[{"name":"title","fieldType":"tokenized_string"}]},
		{"collectionName":"c2","properties":[{"name":"title","fieldType":"tokenized_string"}]}
	]`)

	_, err := LoadFromBytes(data)
	assert.Error(t, err)
}

func TestLoad_InvalidFieldType(t *testing.T) {
	data := []byte(`[{"collectionName":"c1","properties":[{"name":"x","fieldType":"bogus"}]}]`)
	_, err := LoadFromBytes(data)
	assert.Error(t, err)
}

func TestLoad_InvalidAnalyzer(t *testing.T) {
	data := []byte(`[{"collectionName":"c1","properties":[{"name":"x","fieldType":"tokenized_string","analyzer":"bogus"}]}]`)
	_, err := LoadFromBytes(data)
	assert.Error(t, err)
}

func TestLoad_InvalidJSONPath(t *testing.T) {
	data := []byte(`[{"collectionName":"c1","properties":[{"name":"x","fieldType":"tokenized_string","jsonPaths":["a[b"]}]}]`)
	_, err := LoadFromBytes(data)
	assert.Error(t, err)
}

func TestEffectiveProperties_PublicMerge(t *testing.T) {
	data := []byte(`[
		{"collectionName":"public","properties":[{"name":"access","fieldType":"tokenized_string","analyzer":"access"}]},
		{"collectionName":"c1","properties":[{"name":"title","fieldType":"tokenized_string"}]}
	]`)

	reg, err := LoadFromBytes(data)
	require.NoError(t, err)

	c1Props := reg.EffectiveProperties("c1")
	names := make([]string, 0, len(c1Props))
	for _, p := range c1Props {
		names = append(names, p.Name)
	}
	assert.ElementsMatch(t, []string{"title", "access"}, names)

	publicProps := reg.EffectiveProperties("public")
	assert.Len(t, publicProps, 1, "public collection should not get its own properties appended twice")
}

func TestCollection_CaseInsensitive(t *testing.T) {
	data := []byte(`[{"collectionName":"EuropePMC","properties":[{"name":"title","fieldType":"tokenized_string"}]}]`)
	reg, err := LoadFromBytes(data)
	require.NoError(t, err)

	_, ok := reg.Collection("europepmc")
	assert.True(t, ok)
}
