package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/crosshair-go/symex/internal/diagnostics"
)

func TestReporterMarksCannotConfirmAsUnknownNotFail(t *testing.T) {
	var buf bytes.Buffer
	rep := newReporter(&buf)
	rep.Report("f", []*diagnostics.Message{diagnostics.New(diagnostics.CannotConfirm, "no verdict")})
	if !strings.Contains(buf.String(), "UNKNOWN") {
		t.Fatalf("expected an UNKNOWN label, got %q", buf.String())
	}
}

func TestReporterMarksPostFailAsFail(t *testing.T) {
	var buf bytes.Buffer
	rep := newReporter(&buf)
	rep.Report("f", []*diagnostics.Message{diagnostics.New(diagnostics.PostFail, "nope")})
	if !strings.Contains(buf.String(), "FAIL") {
		t.Fatalf("expected a FAIL label, got %q", buf.String())
	}
}

func TestReporterSummaryCountsOnlyRealFailures(t *testing.T) {
	var buf bytes.Buffer
	rep := newReporter(&buf)
	results := map[string][]*diagnostics.Message{
		"ok":      nil,
		"unknown": {diagnostics.New(diagnostics.CannotConfirm, "x")},
		"failed":  {diagnostics.New(diagnostics.PostFail, "x")},
	}
	rep.Summary(results)
	if !strings.Contains(buf.String(), "3 targets, 1 failed") {
		t.Fatalf("expected a 1-failed summary, got %q", buf.String())
	}
}

func TestColorDisabledForNonTerminalWriter(t *testing.T) {
	var buf bytes.Buffer
	if colorEnabled(&buf) {
		t.Fatalf("expected color disabled for a plain buffer")
	}
}
