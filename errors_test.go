package tmplstream

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/pthm/tmplstream/lib/encoding"
)

func TestSentinelErrors(t *testing.T) {
	// Verify sentinel errors are distinct
	errs := []error{
		ErrInvalidSlotValue,
		ErrInvalidComponentOutput,
		ErrClosed,
		ErrNotFound,
		ErrDecryptFailed,
		ErrSignatureInvalid,
		ErrInvalidFormat,
		ErrHydrationFailed,
	}

	for i, err1 := range errs {
		for j, err2 := range errs {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("Sentinel errors should be distinct: %v and %v", err1, err2)
			}
		}
		if !strings.HasPrefix(err1.Error(), "tmplstream:") {
			t.Errorf("Error %q should start with 'tmplstream:'", err1.Error())
		}
	}
}

func TestInvalidSlotValueError(t *testing.T) {
	err := error(&InvalidSlotValueError{Value: map[string]int{"a": 1}})

	if !IsInvalidSlotValue(err) {
		t.Errorf("IsInvalidSlotValue(%v) = false, want true", err)
	}
	if !IsInvalidSlotValue(fmt.Errorf("render: %w", err)) {
		t.Error("IsInvalidSlotValue should see through wrapping")
	}
	if IsInvalidComponentOutput(err) {
		t.Error("slot errors are not component output errors")
	}
	if !strings.Contains(err.Error(), "map[string]int") {
		t.Errorf("Error() = %q, should name the offending type", err.Error())
	}
}

func TestInvalidComponentOutputError(t *testing.T) {
	err := error(&InvalidComponentOutputError{Output: 42})

	if got := err.Error(); got != "Invalid template." {
		t.Errorf("Error() = %q, want %q", got, "Invalid template.")
	}
	if !IsInvalidComponentOutput(err) {
		t.Errorf("IsInvalidComponentOutput(%v) = false, want true", err)
	}
	if IsInvalidSlotValue(err) {
		t.Error("component output errors are not slot errors")
	}

	var target *InvalidComponentOutputError
	if !errors.As(fmt.Errorf("wrapped: %w", err), &target) || target.Output != 42 {
		t.Errorf("errors.As should recover the output, got %+v", target)
	}
}

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		expect bool
	}{
		{"nil error", nil, false},
		{"ErrNotFound", ErrNotFound, true},
		{"wrapped ErrNotFound", fmt.Errorf("wrapped: %w", ErrNotFound), true},
		{"hydration wrapping", fmt.Errorf("%w: %w", ErrHydrationFailed, ErrNotFound), true},
		{"other error", errors.New("other error"), false},
		{"ErrDecryptFailed", ErrDecryptFailed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsNotFound(tt.err)
			if result != tt.expect {
				t.Errorf("IsNotFound(%v) = %v, want %v", tt.err, result, tt.expect)
			}
		})
	}
}

func TestIsDecryptionError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		expect bool
	}{
		{"nil error", nil, false},
		{"ErrDecryptFailed", ErrDecryptFailed, true},
		{"ErrSignatureInvalid", ErrSignatureInvalid, true},
		{"ErrInvalidFormat", ErrInvalidFormat, true},
		{"wrapped ErrDecryptFailed", fmt.Errorf("wrapped: %w", ErrDecryptFailed), true},
		{"wrapped ErrSignatureInvalid", fmt.Errorf("wrapped: %w", ErrSignatureInvalid), true},
		{"ErrNotFound", ErrNotFound, false},
		{"ErrClosed", ErrClosed, false},
		{"other error", errors.New("other error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsDecryptionError(tt.err)
			if result != tt.expect {
				t.Errorf("IsDecryptionError(%v) = %v, want %v", tt.err, result, tt.expect)
			}
		})
	}
}

func TestWrapEncodingError(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		expectWrapped error
	}{
		{"nil error", nil, nil},
		{"encoding.ErrInvalidFormat", encoding.ErrInvalidFormat, ErrInvalidFormat},
		{"encoding.ErrSignatureInvalid", encoding.ErrSignatureInvalid, ErrSignatureInvalid},
		{"encoding.ErrDecryptFailed", encoding.ErrDecryptFailed, ErrDecryptFailed},
		{"wrapped encoding error", fmt.Errorf("decode: %w", encoding.ErrInvalidFormat), ErrInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := wrapEncodingError(tt.err)
			if tt.expectWrapped == nil {
				if result != nil {
					t.Errorf("wrapEncodingError(nil) = %v, want nil", result)
				}
				return
			}
			if !errors.Is(result, tt.expectWrapped) {
				t.Errorf("wrapEncodingError(%v) = %v, want %v", tt.err, result, tt.expectWrapped)
			}
			if !IsDecryptionError(result) {
				t.Errorf("wrapEncodingError(%v) should be detected by IsDecryptionError", tt.err)
			}
		})
	}

	other := errors.New("other")
	if got := wrapEncodingError(other); got != other {
		t.Errorf("wrapEncodingError should pass unknown errors through, got %v", got)
	}
}
