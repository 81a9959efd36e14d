package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("connection refused")
	err := Wrap(CodeRPCFailure, cause, "send transaction failed")

	if !stdErrors.Is(err, cause) {
		t.Fatalf("expected cause to be reachable via errors.Is")
	}
	if CodeOf(err) != CodeRPCFailure {
		t.Fatalf("unexpected code: %s", CodeOf(err))
	}
	if !RetryableError(err) {
		t.Fatalf("rpc failures should default to retryable")
	}
}

func TestIsMatchesByCode(t *testing.T) {
	a := New(CodeChainRejected, "slippage exceeded")
	b := New(CodeChainRejected, "insufficient balance")
	if !stdErrors.Is(a, b) {
		t.Fatalf("errors sharing a code should match")
	}
	c := New(CodeRPCFailure, "")
	if stdErrors.Is(a, c) {
		t.Fatalf("errors with different codes must not match")
	}
}

func TestCodeOfUnwrapsNestedErrors(t *testing.T) {
	inner := New(CodeCredentialFailure, "bad key")
	outer := fmt.Errorf("constructing agent: %w", inner)
	if CodeOf(outer) != CodeCredentialFailure {
		t.Fatalf("expected nested code, got %s", CodeOf(outer))
	}
}

func TestOverrides(t *testing.T) {
	err := New(CodeChainRejected, "", WithRetryable(true), WithSeverity(SeverityCritical), WithMetadata("signature", "abc"))
	if !err.Retryable() {
		t.Fatalf("override should win over registry default")
	}
	if err.Severity() != SeverityCritical {
		t.Fatalf("unexpected severity: %s", err.Severity())
	}
	if err.Metadata()["signature"] != "abc" {
		t.Fatalf("metadata not preserved")
	}
}

func TestRegisterNewCode(t *testing.T) {
	const code Code = "TEST_ONLY"
	Register(code, Attributes{Message: "test", Severity: SeverityInfo})
	if AttributesOf(code).Message != "test" {
		t.Fatalf("registered attributes not returned")
	}
	if AttributesOf(Code("MISSING")).Message != "unknown error" {
		t.Fatalf("unknown codes should fall back to UNKNOWN attributes")
	}
}
