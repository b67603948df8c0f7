package deps

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Unset", Command: "  "},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}

	if !results[0].Available {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[0].Command != present {
		t.Fatalf("expected resolved path %q, got %q", present, results[0].Command)
	}

	if results[1].Available {
		t.Fatal("expected missing binary to be unavailable")
	}
	if results[1].Detail == "" {
		t.Fatal("expected detail message for missing binary")
	}

	if results[2].Available || results[2].Detail != "command not configured" {
		t.Fatalf("unexpected status for unset command: %#v", results[2])
	}
}

func TestParseVersion(t *testing.T) {
	cases := []struct {
		input string
		want  Version
	}{
		{"v22.14.0", Version{22, 14, 0}},
		{"Python 3.12.4", Version{3, 12, 4}},
		{"grpcurl 1.9", Version{1, 9, 0}},
		{"ripgrep 14.1.0 (rev 1f5b36a)", Version{14, 1, 0}},
	}
	for _, tc := range cases {
		got, err := ParseVersion(tc.input)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.input, err)
		}
		if got != tc.want {
			t.Fatalf("parse %q: got %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestParseVersionNoMatch(t *testing.T) {
	if _, err := ParseVersion("no digits here"); err == nil {
		t.Fatal("expected error for unversioned output")
	}
}

func TestVersionComparisons(t *testing.T) {
	if !(Version{18, 0, 0}).AtLeast(Version{18, 0, 0}) {
		t.Fatal("equal versions should satisfy AtLeast")
	}
	if (Version{17, 9, 9}).AtLeast(Version{18, 0, 0}) {
		t.Fatal("17.9.9 should not satisfy >= 18.0.0")
	}
	if !(Version{3, 12, 1}).SameMinor(Version{3, 12, 0}) {
		t.Fatal("3.12.x should share the 3.12 line")
	}
	if (Version{3, 11, 0}).SameMinor(Version{3, 12, 0}) {
		t.Fatal("3.11 should not match 3.12")
	}
}

func TestProbeVersion(t *testing.T) {
	binDir := t.TempDir()
	stub := filepath.Join(binDir, "node")
	script := []byte("#!/bin/sh\necho v20.11.1\n")
	if err := os.WriteFile(stub, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	got, err := ProbeVersion(context.Background(), stub, "")
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if got != (Version{20, 11, 1}) {
		t.Fatalf("unexpected version: %v", got)
	}
}

func TestProbeVersionMissingCommand(t *testing.T) {
	if _, err := ProbeVersion(context.Background(), "definitely-not-a-binary", ""); err == nil {
		t.Fatal("expected probe failure")
	}
}
