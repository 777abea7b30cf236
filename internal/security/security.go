// Package security composes the per-request access context (allow/deny
// tokens, optional secret key, super-user flag) into the boolean query
// that the query engine builds for the SUBMISSION index, without the
// query engine itself needing to know the access-control shape.
package security

import (
	"strings"

	"github.com/ebi-biostudies/biostudies-index/internal/analyzer"
	"github.com/ebi-biostudies/biostudies-index/internal/indexstore"
)

// keywordAnalyzer treats its whole input as a single lowercased token,
// used to parse the seckey parameter as an exact (non-tokenized) match,
// matching how the field was analyzed on index.
type keywordAnalyzer struct{}

func (keywordAnalyzer) Analyze(text string) []string {
	t := strings.TrimSpace(text)
	if t == "" {
		return nil
	}
	return []string{strings.ToLower(t)}
}

// PublicToken is the single allow token assumed for an unauthenticated
// caller (no user context bound).
const PublicToken = "PUBLIC"

// AccessField is the name of the SUBMISSION field carrying a document's
// access tokens.
const AccessField = "access"

// SeckeyField is the name of the SUBMISSION field carrying a document's
// secret-key token, if any.
const SeckeyField = "seckey"

// Context is the per-request access-control binding: a login plus
// allow/deny token lists, or the super-user bypass. Callers establish one
// Context per request and pass it explicitly to Builder.Apply; nothing in
// this package stores it against thread or goroutine identity.
type Context struct {
	Login     string
	Allow     []string
	Deny      []string
	SuperUser bool
}

// Builder composes Context and an optional seckey into the MUST/MUST_NOT
// clauses added to a caller's query.
type Builder struct {
	access  *analyzer.AccessField
	keyword analyzer.Analyzer // exact/keyword analyzer for the seckey field
}

// NewBuilder builds a security query builder. access is the access-token
// analyzer (parses allow/deny tokens the same way the indexer analyzed
// the access field).
func NewBuilder(access *analyzer.AccessField) *Builder {
	return &Builder{access: access, keyword: keywordAnalyzer{}}
}

// Apply returns the clauses that must be ANDed onto the caller's query to
// enforce ctx's visibility. A super user gets no additional clauses at
// all (original query unchanged). An unauthenticated Context (Login==""
// with no Allow tokens) is treated as allow=[PublicToken].
func (b *Builder) Apply(ctx Context, seckey string) (must []indexstore.Clause, mustNot []indexstore.Clause) {
	if ctx.SuperUser {
		return nil, nil
	}

	allow := ctx.Allow
	if ctx.Login == "" && len(allow) == 0 {
		allow = []string{PublicToken}
	}

	allowClause := b.orClauseFor(AccessField, allow, b.access)

	if seckey != "" {
		seckeyClause := b.orClauseFor(SeckeyField, []string{seckey}, b.keyword)
		allowClause = indexstore.OrClause{Clauses: []indexstore.Clause{allowClause, seckeyClause}}
	}

	must = append(must, allowClause)

	if len(ctx.Deny) > 0 {
		mustNot = append(mustNot, b.orClauseFor(AccessField, ctx.Deny, b.access))
	}

	return must, mustNot
}

func (b *Builder) orClauseFor(field string, tokens []string, az analyzer.Analyzer) indexstore.Clause {
	var sub []indexstore.Clause
	for _, raw := range tokens {
		for _, tok := range az.Analyze(raw) {
			sub = append(sub, indexstore.TermClause{Field: field, Token: tok})
		}
	}
	if len(sub) == 0 {
		return indexstore.OrClause{}
	}
	return indexstore.OrClause{Clauses: sub}
}
