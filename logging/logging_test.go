package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/taskboard-go/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.LogConfig
		wantErr bool
	}{
		{"console info", config.LogConfig{Level: "info", Format: "console"}, false},
		{"json debug", config.LogConfig{Level: "debug", Format: "json"}, false},
		{"bad level", config.LogConfig{Level: "loud", Format: "console"}, true},
		{"bad format", config.LogConfig{Level: "info", Format: "xml"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(&tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}
