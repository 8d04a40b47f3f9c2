package commands

import (
	"bytes"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVersionCommand(t *testing.T) {
	tests := []struct {
		name    string
		version string
	}{
		{name: "development version", version: "dev"},
		{name: "release version", version: "v1.2.3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewVersionCommand(tt.version)
			require.NotNil(t, cmd)

			var out bytes.Buffer
			cmd.SetOut(&out)
			cmd.SetArgs([]string{})
			require.NoError(t, cmd.Execute())

			want := "relayctl version " + tt.version + "\n" +
				"Built with " + runtime.Version() + " " + runtime.GOOS + "/" + runtime.GOARCH + "\n"
			assert.Equal(t, want, out.String())
		})
	}
}
