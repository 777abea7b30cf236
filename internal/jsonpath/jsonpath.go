// Package jsonpath is the JSONPath evaluation boundary named in the core
// design notes: "the core depends only on given a compiled path and a
// JSON node, return an ordered set of string values". Compilation means
// syntax validation; evaluation is delegated to gjson, whose own path
// syntax is translated from the constrained dot/bracket subset the
// collection registry is written in.
package jsonpath

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Path is a compiled JSONPath expression, ready to be evaluated against
// any number of submission JSON documents.
type Path struct {
	raw      string
	gjsonExp string
}

// Compile validates and compiles a JSONPath expression. It accepts a
// constrained dialect: leading "$." is optional, segments are
// dot-separated, "[*]" denotes "every element of the array at this
// position", and "[?(@.field=='value')]" denotes an equality filter over
// an array of objects. Compilation fails on an empty path, on
// structurally invalid input (unbalanced brackets, empty segments) and on
// bracket or filter expressions outside this dialect; it never inspects a
// document.
func Compile(path string) (*Path, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, fmt.Errorf("jsonpath: empty path")
	}
	if err := checkBalanced(trimmed); err != nil {
		return nil, err
	}

	expr := strings.TrimPrefix(trimmed, "$.")
	expr = strings.TrimPrefix(expr, "$")
	expr = strings.TrimPrefix(expr, ".")

	gexpr, err := translate(expr)
	if err != nil {
		return nil, fmt.Errorf("jsonpath: %q: %w", path, err)
	}

	return &Path{raw: path, gjsonExp: gexpr}, nil
}

// String returns the original, uncompiled path expression.
func (p *Path) String() string { return p.raw }

func checkBalanced(s string) error {
	depth := 0
	for _, r := range s {
		switch r {
		case '[':
			depth++
		case ']':
			depth--
			if depth < 0 {
				return fmt.Errorf("jsonpath: unbalanced brackets in %q", s)
			}
		}
	}
	if depth != 0 {
		return fmt.Errorf("jsonpath: unbalanced brackets in %q", s)
	}
	for _, seg := range strings.Split(s, ".") {
		if seg == "" {
			return fmt.Errorf("jsonpath: empty segment in %q", s)
		}
	}
	return nil
}

// translate rewrites the constrained JSONPath dialect into gjson's own
// path syntax: "[*]" becomes "#", and "[?(@.field=='value')]" becomes
// gjson's "#(field==\"value\")" array-query syntax.
func translate(expr string) (string, error) {
	var out strings.Builder
	i := 0
	for i < len(expr) {
		c := expr[i]
		switch {
		case c == '.':
			out.WriteByte('.')
			i++
		case c == '[':
			end := strings.IndexByte(expr[i:], ']')
			if end < 0 {
				return "", fmt.Errorf("unterminated '[' at offset %d", i)
			}
			inner := expr[i+1 : i+end]
			i += end + 1
			seg, err := translateBracket(inner, i >= len(expr))
			if err != nil {
				return "", err
			}
			out.WriteString(seg)
		default:
			out.WriteByte(c)
			i++
		}
	}
	return out.String(), nil
}

// translateBracket rewrites one bracketed segment. isLast indicates
// whether this bracket is the final segment of the path: a trailing
// "[*]" with nothing following it selects the whole array (already
// returned as-is by gjson), so it compiles to no-op rather than "#",
// which would instead return the array's length.
func translateBracket(inner string, isLast bool) (string, error) {
	inner = strings.TrimSpace(inner)
	if inner == "*" {
		if isLast {
			return "", nil
		}
		return ".#", nil
	}
	if strings.HasPrefix(inner, "?(") && strings.HasSuffix(inner, ")") {
		cond := strings.TrimSuffix(strings.TrimPrefix(inner, "?("), ")")
		cond = strings.TrimPrefix(cond, "@.")
		parts := strings.SplitN(cond, "==", 2)
		if len(parts) != 2 {
			return "", fmt.Errorf("unsupported filter expression %q", inner)
		}
		field := strings.TrimSpace(parts[0])
		value := strings.Trim(strings.TrimSpace(parts[1]), `'"`)
		return fmt.Sprintf(".#(%s==%q)#", field, value), nil
	}
	// bare numeric index, e.g. [0]
	for _, r := range inner {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("unsupported bracket expression %q", inner)
		}
	}
	return "." + inner, nil
}

// Eval evaluates a compiled path against a JSON document, returning an
// ordered, non-deduplicated list of string values. Missing paths return
// an empty slice, never an error: OR-combined json_paths
// are deduped, trimmed and filtered for emptiness by the caller.
func Eval(doc []byte, p *Path) []string {
	result := gjson.GetBytes(doc, p.gjsonExp)
	if !result.Exists() {
		return nil
	}
	if result.IsArray() {
		values := make([]string, 0, len(result.Array()))
		for _, v := range result.Array() {
			values = append(values, v.String())
		}
		return values
	}
	return []string{result.String()}
}

// EvalFirst returns the first non-empty value produced by Eval, or ""
// with ok=false if none was found.
func EvalFirst(doc []byte, p *Path) (string, bool) {
	for _, v := range Eval(doc, p) {
		if strings.TrimSpace(v) != "" {
			return v, true
		}
	}
	return "", false
}
