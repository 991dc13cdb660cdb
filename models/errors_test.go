package models

import (
	"errors"
	"testing"
)

func TestScrapeError_Terminal(t *testing.T) {
	terminal := []string{ErrCodeProfileNotFound, ErrCodeProfilePrivate, ErrCodeInvalidInput}
	for _, code := range terminal {
		e := NewScrapeError(code, "x", nil)
		if !e.Terminal() {
			t.Errorf("%s must be terminal", code)
		}
		if Retryable(e) {
			t.Errorf("%s must not be retryable", code)
		}
	}

	retryable := []string{
		ErrCodeProxyConnection, ErrCodeConnectionTimeout, ErrCodeConnectionRefused,
		ErrCodeNetwork, ErrCodeNavigationTimeout, ErrCodeBotDetected, ErrCodeBrowserCrash,
	}
	for _, code := range retryable {
		if !Retryable(NewScrapeError(code, "x", nil)) {
			t.Errorf("%s must be retryable", code)
		}
	}
}

func TestRetryable_UnclassifiedErrorsGetTheBenefitOfTheDoubt(t *testing.T) {
	if !Retryable(errors.New("chromium hiccup")) {
		t.Error("plain errors must be retryable")
	}
}

func TestCodeOf_UnwrapsExhaustion(t *testing.T) {
	inner := NewScrapeError(ErrCodeNavigationTimeout, "slow page", nil)
	outer := NewScrapeError(ErrCodeScrapeExhausted, "giving up", inner)

	if got := CodeOf(outer); got != ErrCodeNavigationTimeout {
		t.Errorf("CodeOf = %s, want the wrapped cause %s", got, ErrCodeNavigationTimeout)
	}
}

func TestCodeOf_PlainErrors(t *testing.T) {
	if got := CodeOf(errors.New("boom")); got != ErrCodeInternal {
		t.Errorf("CodeOf(plain) = %s, want %s", got, ErrCodeInternal)
	}
	if got := CodeOf(NewScrapeError(ErrCodeBotDetected, "x", nil)); got != ErrCodeBotDetected {
		t.Errorf("CodeOf = %s, want %s", got, ErrCodeBotDetected)
	}
	// Exhaustion without a classified cause keeps its own code.
	if got := CodeOf(NewScrapeError(ErrCodeScrapeExhausted, "x", errors.New("boom"))); got != ErrCodeScrapeExhausted {
		t.Errorf("CodeOf = %s, want %s", got, ErrCodeScrapeExhausted)
	}
}

func TestScrapeError_PreservesCause(t *testing.T) {
	cause := errors.New("root cause")
	e := NewScrapeError(ErrCodeNetwork, "wrapped", cause)
	if !errors.Is(e, cause) {
		t.Error("Unwrap chain broken")
	}
	if e.ToDetail().Code != ErrCodeNetwork {
		t.Error("ToDetail lost the code")
	}
}
