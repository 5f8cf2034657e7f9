package influxdb

import (
	"errors"
	"testing"

	"github.com/oPeras1/DoorBell-System-sub001/internal/infrastructure/config"
)

func TestConnect_Disabled(t *testing.T) {
	_, err := Connect(config.InfluxDBConfig{Enabled: false})
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestWrite_NotConnected(t *testing.T) {
	// A zero-value client is disconnected; writes must be silently dropped.
	c := &Client{}

	c.WriteSessionEvent("login", 1)
	c.WriteValidationFailure(0, true)
	c.WriteSyncStep("refresh_identifier", false)

	if c.IsConnected() {
		t.Error("IsConnected() = true on zero-value client")
	}
}

func TestFailureKind(t *testing.T) {
	if failureKind(true) != "transient" {
		t.Errorf("failureKind(true) = %q, want %q", failureKind(true), "transient")
	}
	if failureKind(false) != "auth_invalid" {
		t.Errorf("failureKind(false) = %q, want %q", failureKind(false), "auth_invalid")
	}
}
