package security

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ebi-biostudies/biostudies-index/internal/analyzer"
	"github.com/ebi-biostudies/biostudies-index/internal/indexstore"
)

func TestApply_SuperUserBypassesAllClauses(t *testing.T) {
	b := NewBuilder(analyzer.NewAccessField(nil))
	must, mustNot := b.Apply(Context{SuperUser: true}, "")
	require.Empty(t, must)
	require.Empty(t, mustNot)
}

func TestApply_UnauthenticatedDefaultsToPublic(t *testing.T) {
	b := NewBuilder(analyzer.NewAccessField(nil))
	must, _ := b.Apply(Context{}, "")
	require.Len(t, must, 1)
	or, ok := must[0].(indexstore.OrClause)
	require.True(t, ok)
	require.Len(t, or.Clauses, 1)
	require.Equal(t, indexstore.TermClause{Field: AccessField, Token: "public"}, or.Clauses[0])
}

func TestApply_SeckeyWidensToAllowOrSeckey(t *testing.T) {
	b := NewBuilder(analyzer.NewAccessField(nil))
	must, _ := b.Apply(Context{}, "abc123")
	require.Len(t, must, 1)
	outer, ok := must[0].(indexstore.OrClause)
	require.True(t, ok)
	require.Len(t, outer.Clauses, 2)
}

func TestApply_DenyProducesMustNot(t *testing.T) {
	b := NewBuilder(analyzer.NewAccessField(nil))
	_, mustNot := b.Apply(Context{Login: "u1", Allow: []string{"TEAM_A"}, Deny: []string{"TEAM_A"}}, "")
	require.Len(t, mustNot, 1)
}
