package parser

import (
	"testing"

	"github.com/tidwall/gjson"
)

func TestParseDateValue_NumberLongWrapped(t *testing.T) {
	v := gjson.Parse(`{"$date":{"$numberLong":"111"}}`)
	ms, err := ParseDateValue(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ms != 111 {
		t.Fatalf("expected 111, got %d", ms)
	}
}

func TestParseDateValue_Missing(t *testing.T) {
	doc := gjson.Parse(`{}`)
	v := doc.Get("releaseTime")
	ms, err := ParseDateValue(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ms != -1 {
		t.Fatalf("expected -1, got %d", ms)
	}
}

func TestParseDateValue_BareMalformedString(t *testing.T) {
	v := gjson.Parse(`"not-a-date"`)
	ms, err := ParseDateValue(v)
	if err != nil {
		t.Fatalf("bare malformed string must not error, got %v", err)
	}
	if ms != -1 {
		t.Fatalf("expected -1, got %d", ms)
	}
}

func TestParseDateValue_WrappedMalformedString(t *testing.T) {
	v := gjson.Parse(`{"$date":"not-a-date"}`)
	_, err := ParseDateValue(v)
	if err == nil {
		t.Fatal("expected error for malformed $date-wrapped value")
	}
}

func TestParseDateValue_BareISO8601(t *testing.T) {
	v := gjson.Parse(`"2024-01-15T10:30:00Z"`)
	ms, err := ParseDateValue(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ms <= 0 {
		t.Fatalf("expected positive epoch-ms, got %d", ms)
	}
}

func TestParseDateValue_BareNumeric(t *testing.T) {
	v := gjson.Parse(`1700000000000`)
	ms, err := ParseDateValue(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ms != 1700000000000 {
		t.Fatalf("expected 1700000000000, got %d", ms)
	}
}

func TestFormatDay(t *testing.T) {
	if got := FormatDay(-1); got != "N/A" {
		t.Fatalf("expected N/A, got %q", got)
	}
	if got := FormatDay(0); got != "1970-01-01" {
		t.Fatalf("expected 1970-01-01, got %q", got)
	}
}

func TestReleaseTimeParser_FallsBackToModificationTimeWhenReleased(t *testing.T) {
	submission := []byte(`{"released":true,"modificationTime":{"$date":{"$numberLong":"222"}}}`)
	p := &ReleaseTimeParser{}
	values, err := p.Parse(submission, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(values) != 1 || values[0] != "222" {
		t.Fatalf("expected [222], got %v", values)
	}
}

func TestReleaseTimeParser_NoFallbackWhenNotReleased(t *testing.T) {
	submission := []byte(`{"released":false,"modificationTime":{"$date":{"$numberLong":"222"}}}`)
	p := &ReleaseTimeParser{}
	values, err := p.Parse(submission, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(values) != 0 {
		t.Fatalf("expected no values, got %v", values)
	}
}

func TestReleaseTimeParser_PrefersReleaseTimeWhenPresent(t *testing.T) {
	submission := []byte(`{"released":true,"releaseTime":{"$date":{"$numberLong":"999"}},"modificationTime":{"$date":{"$numberLong":"222"}}}`)
	p := &ReleaseTimeParser{}
	values, err := p.Parse(submission, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(values) != 1 || values[0] != "999" {
		t.Fatalf("expected [999], got %v", values)
	}
}

func TestReleaseDateParser_FormatsDay(t *testing.T) {
	submission := []byte(`{"released":true,"releaseTime":{"$date":"2024-03-10T00:00:00Z"}}`)
	p := &ReleaseDateParser{}
	values, err := p.Parse(submission, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(values) != 1 || values[0] != "2024-03-10" {
		t.Fatalf("expected [2024-03-10], got %v", values)
	}
}

func TestReleaseDateParser_NAWhenAbsent(t *testing.T) {
	submission := []byte(`{"released":false}`)
	p := &ReleaseDateParser{}
	values, err := p.Parse(submission, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(values) != 1 || values[0] != "N/A" {
		t.Fatalf("expected [N/A], got %v", values)
	}
}

func TestModificationTimeParser(t *testing.T) {
	submission := []byte(`{"modificationTime":{"$date":{"$numberLong":"333"}}}`)
	p := &ModificationTimeParser{}
	values, err := p.Parse(submission, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(values) != 1 || values[0] != "333" {
		t.Fatalf("expected [333], got %v", values)
	}
}

func TestExtType(t *testing.T) {
	cases := map[string]string{
		"data.TXT":     "txt",
		"archive.tar.gz": "gz",
		"noext":        "",
		"trailing.":    "",
	}
	for in, want := range cases {
		if got := ExtType(in); got != want {
			t.Fatalf("ExtType(%q) = %q, want %q", in, got, want)
		}
	}
}
