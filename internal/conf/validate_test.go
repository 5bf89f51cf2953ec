package conf

import (
	"strings"
	"testing"
)

// validSettings returns a Settings struct that passes validation, for tests
// to break one field at a time.
func validSettings() *Settings {
	s := &Settings{}
	s.Main.Name = "AudioFeed"
	s.Main.Log = LogConfig{
		Enabled:  true,
		Path:     "audiofeed.log",
		Rotation: RotationDaily,
		MaxSize:  1048576,
	}
	s.Feed = FeedSettings{
		TransferBufferSize: 4096,
		IOTimeoutMs:        20,
		MaxNoDataReads:     50,
		Network: FeedNetworkSettings{
			MaxRedirects:     10,
			ConnectTimeoutMs: 5000,
			ReadTimeoutMs:    10,
			UserAgent:        "AudioFeed",
		},
		Output: FeedOutputSettings{
			RingCapacity: 65536,
		},
	}
	s.Metrics = MetricsSettings{
		Enabled: false,
		Listen:  "0.0.0.0:8090",
	}
	return s
}

func TestValidateSettingsValid(t *testing.T) {
	if err := ValidateSettings(validSettings()); err != nil {
		t.Errorf("expected valid settings to pass validation, got: %v", err)
	}
}

func TestValidateFeedSettings(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr bool
		errText string
	}{
		{
			name:    "defaults pass",
			mutate:  func(s *Settings) {},
			wantErr: false,
		},
		{
			name:    "zero transfer buffer size - should fail",
			mutate:  func(s *Settings) { s.Feed.TransferBufferSize = 0 },
			wantErr: true,
			errText: "transfer buffer size",
		},
		{
			name:    "negative io timeout - should fail",
			mutate:  func(s *Settings) { s.Feed.IOTimeoutMs = -1 },
			wantErr: true,
			errText: "io timeout",
		},
		{
			name:    "zero io timeout - should pass",
			mutate:  func(s *Settings) { s.Feed.IOTimeoutMs = 0 },
			wantErr: false,
		},
		{
			name:    "zero max no data reads - should fail",
			mutate:  func(s *Settings) { s.Feed.MaxNoDataReads = 0 },
			wantErr: true,
			errText: "max no data reads",
		},
		{
			name:    "negative redirects - should fail",
			mutate:  func(s *Settings) { s.Feed.Network.MaxRedirects = -1 },
			wantErr: true,
			errText: "max redirects",
		},
		{
			name:    "zero redirects - should pass",
			mutate:  func(s *Settings) { s.Feed.Network.MaxRedirects = 0 },
			wantErr: false,
		},
		{
			name:    "zero connect timeout - should fail",
			mutate:  func(s *Settings) { s.Feed.Network.ConnectTimeoutMs = 0 },
			wantErr: true,
			errText: "connect timeout",
		},
		{
			name:    "zero read timeout - should fail",
			mutate:  func(s *Settings) { s.Feed.Network.ReadTimeoutMs = 0 },
			wantErr: true,
			errText: "read timeout",
		},
		{
			name:    "ring smaller than staging buffer - should fail",
			mutate:  func(s *Settings) { s.Feed.Output.RingCapacity = 1024 },
			wantErr: true,
			errText: "ring capacity",
		},
		{
			name:    "ring equal to staging buffer - should pass",
			mutate:  func(s *Settings) { s.Feed.Output.RingCapacity = s.Feed.TransferBufferSize },
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSettings()
			tt.mutate(s)

			err := validateFeedSettings(&s.Feed)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected validation error, got nil")
				}
				if tt.errText != "" && !strings.Contains(err.Error(), tt.errText) {
					t.Errorf("expected error containing %q, got: %v", tt.errText, err)
				}
				return
			}
			if err != nil {
				t.Errorf("expected no error, got: %v", err)
			}
		})
	}
}

func TestValidateMetricsSettings(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
		listen  string
		wantErr bool
	}{
		{"disabled ignores listen", false, "not-an-address", false},
		{"valid host and port", true, "0.0.0.0:8090", false},
		{"empty host binds all interfaces", true, ":8090", false},
		{"missing port", true, "localhost", true},
		{"garbage address", true, "not at all", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := MetricsSettings{Enabled: tt.enabled, Listen: tt.listen}
			err := validateMetricsSettings(&m)
			if tt.wantErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("expected no error, got: %v", err)
			}
		})
	}
}

func TestValidateMainSettings(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr bool
	}{
		{"defaults pass", func(s *Settings) {}, false},
		{"empty name - should fail", func(s *Settings) { s.Main.Name = "" }, true},
		{"unknown rotation - should fail", func(s *Settings) { s.Main.Log.Rotation = "hourly" }, true},
		{
			"size rotation without max size - should fail",
			func(s *Settings) {
				s.Main.Log.Rotation = RotationSize
				s.Main.Log.MaxSize = 0
			},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSettings()
			tt.mutate(s)

			err := validateMainSettings(s)
			if tt.wantErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("expected no error, got: %v", err)
			}
		})
	}
}

func TestValidationErrorCollectsAllSections(t *testing.T) {
	s := validSettings()
	s.Main.Name = ""
	s.Feed.TransferBufferSize = 0
	s.Metrics.Enabled = true
	s.Metrics.Listen = "bogus"

	err := ValidateSettings(s)
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}

	var ve ValidationError
	ok := false
	if v, isVE := err.(ValidationError); isVE {
		ve = v
		ok = true
	}
	if !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(ve.Errors) != 3 {
		t.Errorf("expected 3 section errors, got %d: %v", len(ve.Errors), ve.Errors)
	}
}
