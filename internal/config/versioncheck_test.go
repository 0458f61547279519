package config

import "testing"

func TestCompareVersionsUpgrade(t *testing.T) {
	vc := CompareVersions("1.2.0", "1.3.0")
	if vc.Kind != "upgrade" {
		t.Fatalf("got %q", vc.Kind)
	}
}

func TestCompareVersionsDowngrade(t *testing.T) {
	vc := CompareVersions("2.0.0", "1.9.0")
	if vc.Kind != "downgrade" {
		t.Fatalf("got %q", vc.Kind)
	}
}

func TestCompareVersionsUnchanged(t *testing.T) {
	vc := CompareVersions("1.0.0", "1.0.0")
	if vc.Kind != "unchanged" {
		t.Fatalf("got %q", vc.Kind)
	}
}

func TestCompareVersionsNonSemverFallsBackToStringEquality(t *testing.T) {
	vc := CompareVersions("draft", "draft")
	if vc.Kind != "unchanged" {
		t.Fatalf("got %q, want unchanged for identical non-semver strings", vc.Kind)
	}

	vc2 := CompareVersions("draft-1", "draft-2")
	if vc2.Kind != "unknown" {
		t.Fatalf("got %q, want unknown for differing non-semver strings", vc2.Kind)
	}
}

func TestVersionChangeDescribe(t *testing.T) {
	vc := CompareVersions("1.0.0", "2.0.0")
	desc := vc.Describe("petstore")
	want := "petstore: version 1.0.0 -> 2.0.0 (upgrade)"
	if desc != want {
		t.Fatalf("got %q, want %q", desc, want)
	}
}
