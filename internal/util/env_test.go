package util

import "testing"

func TestGetEnvString(t *testing.T) {
	t.Setenv("KGQA_TEST_STR", "value")

	if got := GetEnvString("KGQA_TEST_STR", "fallback"); got != "value" {
		t.Fatalf("expected %q, got %q", "value", got)
	}
	if got := GetEnvString("KGQA_TEST_STR_MISSING", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("KGQA_TEST_INT", "42")
	t.Setenv("KGQA_TEST_INT_BAD", "not a number")

	if got := GetEnvInt("KGQA_TEST_INT", 7); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
	if got := GetEnvInt("KGQA_TEST_INT_BAD", 7); got != 7 {
		t.Fatalf("expected fallback 7, got %d", got)
	}
	if got := GetEnvInt("KGQA_TEST_INT_MISSING", 7); got != 7 {
		t.Fatalf("expected fallback 7, got %d", got)
	}
}

func TestGetEnvFloat(t *testing.T) {
	t.Setenv("KGQA_TEST_FLOAT", "0.75")
	t.Setenv("KGQA_TEST_FLOAT_BAD", "abc")

	if got := GetEnvFloat("KGQA_TEST_FLOAT", 0.5); got != 0.75 {
		t.Fatalf("expected 0.75, got %v", got)
	}
	if got := GetEnvFloat("KGQA_TEST_FLOAT_BAD", 0.5); got != 0.5 {
		t.Fatalf("expected fallback 0.5, got %v", got)
	}
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("KGQA_TEST_BOOL", "true")
	t.Setenv("KGQA_TEST_BOOL_BAD", "yes")

	if !GetEnvBool("KGQA_TEST_BOOL", false) {
		t.Fatal("expected true")
	}
	if GetEnvBool("KGQA_TEST_BOOL_BAD", false) {
		t.Fatal("expected fallback false for unparseable value")
	}
	if !GetEnvBool("KGQA_TEST_BOOL_MISSING", true) {
		t.Fatal("expected fallback true")
	}
}
