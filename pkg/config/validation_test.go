package config

import (
	"strings"
	"testing"
)

func TestValidate_ValidConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	if err := Validate(cfg); err != nil {
		t.Errorf("Validate() of defaults returned error: %v", err)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Level = "VERBOSE"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Validate() accepted invalid log level")
	}
	if !strings.Contains(err.Error(), "Logging.Level") {
		t.Errorf("error %q does not name the field", err)
	}
}

func TestValidate_InvalidLogFormat(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Format = "xml"

	if err := Validate(cfg); err == nil {
		t.Fatal("Validate() accepted invalid log format")
	}
}

func TestValidate_PortOutOfRange(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Server.Port = 70000

	if err := Validate(cfg); err == nil {
		t.Fatal("Validate() accepted out-of-range port")
	}

	cfg = GetDefaultConfig()
	cfg.Server.Port = -1
	if err := Validate(cfg); err == nil {
		t.Fatal("Validate() accepted negative port")
	}
}

func TestValidate_SampleRateOutOfRange(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Telemetry.SampleRate = 1.5

	if err := Validate(cfg); err == nil {
		t.Fatal("Validate() accepted sample rate above 1.0")
	}
}
