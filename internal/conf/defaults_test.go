package conf

import (
	"testing"

	"github.com/spf13/viper"
)

func TestSetDefaultConfig(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setDefaultConfig()

	tests := []struct {
		name     string
		key      string
		expected any
	}{
		{"node name", "main.name", "AudioFeed"},
		{"log rotation", "main.log.rotation", RotationDaily},
		{"transfer buffer size", "feed.transferbuffersize", 4096},
		{"io timeout", "feed.iotimeoutms", 20},
		{"max no data reads", "feed.maxnodatareads", 50},
		{"max redirects", "feed.network.maxredirects", 10},
		{"connect timeout", "feed.network.connecttimeoutms", 5000},
		{"read timeout", "feed.network.readtimeoutms", 10},
		{"user agent", "feed.network.useragent", "AudioFeed"},
		{"ring capacity", "feed.output.ringcapacity", 65536},
		{"metrics disabled", "metrics.enabled", false},
		{"metrics listen", "metrics.listen", "0.0.0.0:8090"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := viper.Get(tt.key)
			if got != tt.expected {
				t.Errorf("viper default %q = %v (%T), want %v (%T)", tt.key, got, got, tt.expected, tt.expected)
			}
		})
	}
}

func TestDefaultsPassValidation(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setDefaultConfig()

	settings := &Settings{}
	if err := viper.Unmarshal(settings); err != nil {
		t.Fatalf("unmarshal of defaults failed: %v", err)
	}

	if err := ValidateSettings(settings); err != nil {
		t.Errorf("default configuration must validate, got: %v", err)
	}
}
