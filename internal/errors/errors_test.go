// Package apperrors provides tests for application error types.
package apperrors

import (
	"context"
	"errors"
	"testing"
)

func TestConfigError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		err         error
		expected    string
		checkTypeAs bool
	}{
		{
			name:     "Error returns message",
			err:      ConfigError{Message: "invalid flag value"},
			expected: "invalid flag value",
		},
		{
			name:     "NewConfigError creates formatted error",
			err:      NewConfigError("invalid value %g for flag %s", 0.5, "--q-cutoff"),
			expected: "invalid value 0.5 for flag --q-cutoff",
		},
		{
			name:        "ConfigError type assertion",
			err:         NewConfigError("test error"),
			expected:    "test error",
			checkTypeAs: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.err.Error() != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, tt.err.Error())
			}
			if tt.checkTypeAs {
				var configErr ConfigError
				if !errors.As(tt.err, &configErr) {
					t.Error("expected error to be ConfigError type")
				}
			}
		})
	}
}

func TestCalculationError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		cause       error
		expectedMsg string
		checkIs     error
		checkUnwrap bool
	}{
		{
			name:        "Error returns cause message",
			cause:       errors.New("direct beam intensity is all zeros"),
			expectedMsg: "direct beam intensity is all zeros",
		},
		{
			name:        "Unwrap returns cause",
			cause:       errors.New("original error"),
			expectedMsg: "original error",
			checkUnwrap: true,
		},
		{
			name:        "errors.Is works with wrapped error",
			cause:       context.Canceled,
			expectedMsg: "context canceled",
			checkIs:     context.Canceled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := CalculationError{Cause: tt.cause}

			if err.Error() != tt.expectedMsg {
				t.Errorf("expected %q, got %q", tt.expectedMsg, err.Error())
			}

			if tt.checkUnwrap && err.Unwrap() != tt.cause {
				t.Error("Unwrap should return the original cause")
			}

			if tt.checkIs != nil && !errors.Is(err, tt.checkIs) {
				t.Errorf("errors.Is should find %v in the chain", tt.checkIs)
			}
		})
	}
}

func TestNotFoundError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		err         NotFoundError
		expected    string
		checkTypeAs bool
	}{
		{
			name:     "Error returns formatted message",
			err:      NotFoundError{Kind: "direct beam", Key: "38199"},
			expected: "direct beam not found: 38199",
		},
		{
			name:     "Error with file kind",
			err:      NotFoundError{Kind: "file", Key: "/data/REF_M_38198.nxs.h5"},
			expected: "file not found: /data/REF_M_38198.nxs.h5",
		},
		{
			name:        "errors.As works with NotFoundError",
			err:         NotFoundError{Kind: "reduction list entry", Key: "38200"},
			expected:    "reduction list entry not found: 38200",
			checkTypeAs: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var err error = tt.err
			if err.Error() != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, err.Error())
			}
			if tt.checkTypeAs {
				var nfErr NotFoundError
				if !errors.As(err, &nfErr) {
					t.Error("expected error to be NotFoundError type")
				}
				if nfErr.Kind != tt.err.Kind {
					t.Errorf("expected Kind %q, got %q", tt.err.Kind, nfErr.Kind)
				}
				if nfErr.Key != tt.err.Key {
					t.Errorf("expected Key %q, got %q", tt.err.Key, nfErr.Key)
				}
			}
			if !IsNotFound(tt.err) {
				t.Error("IsNotFound should report true for NotFoundError")
			}
		})
	}
}

func TestCompatibilityError(t *testing.T) {
	t.Parallel()
	err := CompatibilityError{Have: []string{"Off_Off"}, Want: []string{"Off_Off", "On_On"}}
	expected := "incompatible cross-sections: measurement has [Off_Off], reduction list requires [Off_Off On_On]"
	if err.Error() != expected {
		t.Errorf("expected %q, got %q", expected, err.Error())
	}

	var compatErr CompatibilityError
	if !errors.As(error(err), &compatErr) {
		t.Error("expected error to be CompatibilityError type")
	}
}

func TestLoadError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		err         LoadError
		expected    string
		checkUnwrap bool
	}{
		{
			name:     "Error without cause",
			err:      LoadError{Path: "/data/run_100.nxs.h5"},
			expected: "failed to load /data/run_100.nxs.h5",
		},
		{
			name:        "Error with cause",
			err:         LoadError{Path: "/data/run_100.nxs.h5", Cause: errors.New("permission denied")},
			expected:    "failed to load /data/run_100.nxs.h5: permission denied",
			checkUnwrap: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.err.Error() != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, tt.err.Error())
			}
			if tt.checkUnwrap && tt.err.Unwrap() != tt.err.Cause {
				t.Error("Unwrap should return the original cause")
			}
		})
	}

	t.Run("NotFoundError wrapped in LoadError", func(t *testing.T) {
		t.Parallel()
		inner := NotFoundError{Kind: "file", Key: "/data/missing.nxs.h5"}
		err := NewLoadError("/data/missing.nxs.h5", inner)

		var nfErr NotFoundError
		if !errors.As(err, &nfErr) {
			t.Error("errors.As should find NotFoundError through LoadError")
		}
		if !IsNotFound(err) {
			t.Error("IsNotFound should see through the LoadError wrapper")
		}
	})
}

func TestWrapError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		original    error
		format      string
		args        []any
		expectedMsg string
		expectNil   bool
		checkIs     error
	}{
		{
			name:        "wraps error with context",
			original:    errors.New("file not found"),
			format:      "failed to load configuration",
			expectedMsg: "failed to load configuration: file not found",
		},
		{
			name:        "preserves error chain",
			original:    context.DeadlineExceeded,
			format:      "operation timed out",
			expectedMsg: "operation timed out: context deadline exceeded",
			checkIs:     context.DeadlineExceeded,
		},
		{
			name:      "returns nil for nil error",
			original:  nil,
			format:    "some context",
			expectNil: true,
		},
		{
			name:        "supports format arguments",
			original:    errors.New("no channels"),
			format:      "reflectivity failed for run %d",
			args:        []any{38198},
			expectedMsg: "reflectivity failed for run 38198: no channels",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			wrapped := WrapError(tt.original, tt.format, tt.args...)

			if tt.expectNil {
				if wrapped != nil {
					t.Error("WrapError(nil, ...) should return nil")
				}
				return
			}

			if wrapped == nil {
				t.Fatal("wrapped error should not be nil")
			}

			if wrapped.Error() != tt.expectedMsg {
				t.Errorf("expected %q, got %q", tt.expectedMsg, wrapped.Error())
			}

			if tt.checkIs != nil && !errors.Is(wrapped, tt.checkIs) {
				t.Errorf("wrapped error should preserve %v in the chain", tt.checkIs)
			}
		})
	}
}

func TestExitCodes(t *testing.T) {
	t.Parallel()
	// Verify exit codes are distinct and match expected values
	codes := map[string]int{
		"ExitSuccess":       ExitSuccess,
		"ExitErrorGeneric":  ExitErrorGeneric,
		"ExitErrorLoad":     ExitErrorLoad,
		"ExitErrorConfig":   ExitErrorConfig,
		"ExitErrorCanceled": ExitErrorCanceled,
	}

	// Check expected values
	if ExitSuccess != 0 {
		t.Errorf("ExitSuccess should be 0, got %d", ExitSuccess)
	}
	if ExitErrorCanceled != 130 {
		t.Errorf("ExitErrorCanceled should be 130 (SIGINT convention), got %d", ExitErrorCanceled)
	}

	// Check all codes are unique
	seen := make(map[int]string)
	for name, code := range codes {
		if existing, ok := seen[code]; ok {
			t.Errorf("duplicate exit code %d: %s and %s", code, existing, name)
		}
		seen[code] = name
	}
}
