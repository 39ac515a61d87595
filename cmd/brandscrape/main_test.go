package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"brand-profiler/backend/internal/brand"
	"brand-profiler/backend/internal/pipeline"
)

type stubRunner struct {
	failures map[string]error
	calls    []string
}

func (s *stubRunner) Run(_ context.Context, rawURL string, _ pipeline.Reporter) (*brand.Profile, error) {
	s.calls = append(s.calls, rawURL)
	if err := s.failures[rawURL]; err != nil {
		return nil, err
	}
	return brand.NewProfile(brand.BrandData{Name: rawURL}, nil, nil), nil
}

type stubRecorder struct {
	saved    []string
	hosts    []string
	earlier  map[string]int64
	countErr error
	saveErr  error
}

func (r *stubRecorder) SaveProfile(_ *brand.Profile, sourceURL string) (uint, error) {
	if r.saveErr != nil {
		return 0, r.saveErr
	}
	r.saved = append(r.saved, sourceURL)
	return uint(len(r.saved)), nil
}

func (r *stubRecorder) CountByHost(host string) (int64, error) {
	r.hosts = append(r.hosts, host)
	if r.countErr != nil {
		return 0, r.countErr
	}
	return r.earlier[host], nil
}

func TestScrapeAll(t *testing.T) {
	runner := &stubRunner{failures: map[string]error{
		"bad.invalid": &pipeline.Error{Kind: pipeline.KindFetchFailed, Err: errors.New("no such host")},
	}}
	rec := &stubRecorder{}

	results := scrapeAll(context.Background(), runner, rec, []string{"one.example", " ", "bad.invalid", "www.two.example"}, time.Second)
	if len(results) != 3 {
		t.Fatalf("expected 3 results got %d", len(results))
	}
	if len(runner.calls) != 3 {
		t.Fatalf("expected blank url skipped, calls %v", runner.calls)
	}
	if results[0].Profile == nil || results[0].ProfileID != 1 {
		t.Fatalf("unexpected first result %+v", results[0])
	}
	if results[1].Error == "" || results[1].Profile != nil {
		t.Fatalf("expected failure result, got %+v", results[1])
	}
	if results[2].ProfileID != 2 {
		t.Fatalf("unexpected third result %+v", results[2])
	}
	if len(rec.saved) != 2 || rec.saved[1] != "https://two.example" {
		t.Fatalf("unexpected saved urls %v", rec.saved)
	}
	if got := countFailures(results); got != 1 {
		t.Fatalf("expected 1 failure got %d", got)
	}
}

func TestScrapeAllReportsEarlierScrapes(t *testing.T) {
	rec := &stubRecorder{earlier: map[string]int64{"two.example": 3}}

	results := scrapeAll(context.Background(), &stubRunner{}, rec, []string{"one.example", "https://www.two.example/shop"}, time.Second)
	if len(results) != 2 {
		t.Fatalf("expected 2 results got %d", len(results))
	}
	if len(rec.hosts) != 2 || rec.hosts[0] != "one.example" || rec.hosts[1] != "two.example" {
		t.Fatalf("unexpected host lookups %v", rec.hosts)
	}
	if results[0].Earlier != 0 {
		t.Fatalf("expected no earlier scrapes for first host, got %d", results[0].Earlier)
	}
	if results[1].Earlier != 3 || results[1].ProfileID != 2 {
		t.Fatalf("unexpected second result %+v", results[1])
	}
}

func TestScrapeAllStoreErrorsKeepProfile(t *testing.T) {
	rec := &stubRecorder{countErr: errors.New("locked"), saveErr: errors.New("disk full")}

	results := scrapeAll(context.Background(), &stubRunner{}, rec, []string{"one.example"}, time.Second)
	if len(results) != 1 {
		t.Fatalf("expected 1 result got %d", len(results))
	}
	got := results[0]
	if got.Profile == nil || got.Error != "" || got.ProfileID != 0 || got.Earlier != 0 {
		t.Fatalf("expected profile kept without store values, got %+v", got)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name    string
		results []result
		want    int
	}{
		{name: "all ok", results: []result{{URL: "a"}, {URL: "b"}}, want: 0},
		{name: "some failed", results: []result{{URL: "a"}, {URL: "b", Error: "x"}}, want: 0},
		{name: "all failed", results: []result{{URL: "a", Error: "x"}, {URL: "b", Error: "y"}}, want: 1},
		{name: "empty", results: nil, want: 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := exitCode(tc.results); got != tc.want {
				t.Fatalf("expected %d got %d", tc.want, got)
			}
		})
	}
}

func TestScrapeAllWithoutRecorder(t *testing.T) {
	results := scrapeAll(context.Background(), &stubRunner{}, nil, []string{"one.example"}, time.Second)
	if len(results) != 1 || results[0].ProfileID != 0 || results[0].Profile == nil {
		t.Fatalf("unexpected results %+v", results)
	}
}

func TestWriteResults(t *testing.T) {
	var buf bytes.Buffer
	results := []result{{URL: "bad.invalid", Error: "fetch_failed: no such host"}}
	if err := writeResults(&buf, results); err != nil {
		t.Fatalf("write: %v", err)
	}
	var decoded []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded) != 1 || decoded[0]["error"] != "fetch_failed: no such host" {
		t.Fatalf("unexpected output %s", buf.String())
	}
	if _, ok := decoded[0]["profile"]; ok {
		t.Fatalf("expected profile omitted on failure: %s", buf.String())
	}
}

func TestMultiFlag(t *testing.T) {
	var m multiFlag
	_ = m.Set("a.example")
	_ = m.Set("b.example")
	if m.String() != "a.example,b.example" {
		t.Fatalf("unexpected flag value %q", m.String())
	}
}
