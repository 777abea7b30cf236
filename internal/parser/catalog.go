// Package parser implements the fixed catalog of field extractors that
// turn submission JSON + JSONPath results into typed string values.
// Every parser accepts the raw submission JSON and a property
// descriptor and returns a possibly-empty, ordered list of string
// values (empty for single-valued fields that are absent, except the
// release-date parser, which returns "N/A").
package parser

import (
	"strconv"

	"github.com/ebi-biostudies/biostudies-index/internal/jsonpath"
	"github.com/ebi-biostudies/biostudies-index/internal/registry"
	"github.com/tidwall/gjson"
)

// Parser extracts one property's values from a submission document.
type Parser interface {
	Parse(submission []byte, descriptor *registry.PropertyDescriptor) ([]string, error)
}

// Catalog resolves a registry.Parser name to its implementation, with a
// generic JSONPath-driven parser as the default for properties that
// declare no explicit parser.
type Catalog struct {
	generic          *GenericParser
	releaseTime      *ReleaseTimeParser
	releaseDate      *ReleaseDateParser
	modificationTime *ModificationTimeParser
	fileType         *FileTypeParser
}

// NewCatalog builds the fixed parser catalog.
func NewCatalog() *Catalog {
	g := &GenericParser{}
	return &Catalog{
		generic:          g,
		releaseTime:      &ReleaseTimeParser{},
		releaseDate:      &ReleaseDateParser{},
		modificationTime: &ModificationTimeParser{},
		fileType:         &FileTypeParser{},
	}
}

// ForProperty resolves the parser to use for a property descriptor: its
// explicit parser if declared, otherwise the generic JSONPath parser.
func (c *Catalog) ForProperty(p *registry.PropertyDescriptor) Parser {
	switch p.Parser {
	case registry.ReleaseTimeParser:
		return c.releaseTime
	case registry.ReleaseDateParser:
		return c.releaseDate
	case registry.ModificationTimeParser:
		return c.modificationTime
	case registry.FileTypeParser:
		return c.fileType
	default:
		return c.generic
	}
}

// GenericParser evaluates a descriptor's OR-combined JSONPaths, dedupes
// the results, trims whitespace, and keeps only non-empty values,
// preserving evaluation order.
type GenericParser struct{}

func (g *GenericParser) Parse(submission []byte, descriptor *registry.PropertyDescriptor) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, cp := range descriptor.CompiledPaths {
		for _, v := range jsonpath.Eval(submission, cp) {
			v = trimmed(v)
			if v == "" || seen[v] {
				continue
			}
			seen[v] = true
			out = append(out, v)
		}
	}
	return out, nil
}

func trimmed(s string) string {
	start, end := 0, len(s)
	for start < end && isSpace(s[start]) {
		start++
	}
	for end > start && isSpace(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isSpace(b byte) bool { return b == ' ' || b == '\t' || b == '\n' || b == '\r' }

// releaseTimeRaw returns the raw gjson value of the submission's
// top-level releaseTime field, and whether the submission is released.
func releaseTimeRaw(submission []byte) (gjson.Result, bool) {
	released := gjson.GetBytes(submission, "released")
	return gjson.GetBytes(submission, "releaseTime"), released.Exists() && released.Bool()
}

func modificationTimeRaw(submission []byte) gjson.Result {
	return gjson.GetBytes(submission, "modificationTime")
}

// ReleaseTimeParser returns the epoch-ms release time, falling back to
// the modification time only when the submission's released flag is
// true and no release time is present.
type ReleaseTimeParser struct{}

func (p *ReleaseTimeParser) Parse(submission []byte, _ *registry.PropertyDescriptor) ([]string, error) {
	ms, err := resolveReleaseEpoch(submission)
	if err != nil {
		return nil, err
	}
	if ms < 0 {
		return nil, nil
	}
	return []string{epochToString(ms)}, nil
}

// ReleaseDateParser renders the same resolved epoch at day resolution,
// "N/A" if absent.
type ReleaseDateParser struct{}

func (p *ReleaseDateParser) Parse(submission []byte, _ *registry.PropertyDescriptor) ([]string, error) {
	ms, err := resolveReleaseEpoch(submission)
	if err != nil {
		return []string{"N/A"}, err
	}
	return []string{FormatDay(ms)}, nil
}

func resolveReleaseEpoch(submission []byte) (int64, error) {
	raw, released := releaseTimeRaw(submission)
	ms, err := ParseDateValue(raw)
	if err != nil {
		return -1, err
	}
	if ms < 0 && released {
		return ParseDateValue(modificationTimeRaw(submission))
	}
	return ms, nil
}

// ModificationTimeParser returns the epoch-ms modification time.
type ModificationTimeParser struct{}

func (p *ModificationTimeParser) Parse(submission []byte, _ *registry.PropertyDescriptor) ([]string, error) {
	ms, err := ParseDateValue(modificationTimeRaw(submission))
	if err != nil {
		return nil, err
	}
	if ms < 0 {
		return nil, nil
	}
	return []string{epochToString(ms)}, nil
}

// FileTypeParser derives a file's extension type from its fileName,
// lowercased trailing dotted suffix, used for the FILES index's extType
// field on a file document.
type FileTypeParser struct{}

func (p *FileTypeParser) Parse(submission []byte, descriptor *registry.PropertyDescriptor) ([]string, error) {
	g := &GenericParser{}
	names, err := g.Parse(submission, descriptor)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, ExtType(name))
	}
	return out, nil
}

// ExtType derives a lowercased file extension from a file name's
// trailing dotted suffix, used for the FILES index's extType field.
func ExtType(fileName string) string {
	idx := -1
	for i := len(fileName) - 1; i >= 0; i-- {
		if fileName[i] == '.' {
			idx = i
			break
		}
	}
	if idx < 0 || idx == len(fileName)-1 {
		return ""
	}
	ext := fileName[idx+1:]
	out := make([]byte, len(ext))
	for i := 0; i < len(ext); i++ {
		c := ext[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}

func epochToString(ms int64) string {
	return strconv.FormatInt(ms, 10)
}
