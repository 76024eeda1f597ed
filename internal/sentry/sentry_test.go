package sentry

import "testing"

func TestInitializeDisabledWithoutToken(t *testing.T) {
	if err := Initialize(Config{}); err != nil {
		t.Errorf("Initialize with empty token should be a no-op, got %v", err)
	}
}

func TestInitializeRequiresHost(t *testing.T) {
	err := Initialize(Config{Token: "some-token"})
	if err == nil {
		t.Error("Initialize with token but no host should fail")
	}
}
