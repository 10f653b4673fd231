package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMCPCmd_HasServe(t *testing.T) {
	names := make([]string, 0)
	for _, c := range mcpCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "serve")
}

func TestMCPServe_HasPortFlag(t *testing.T) {
	flag := mcpServeCmd.Flags().Lookup("port")
	if assert.NotNil(t, flag) {
		assert.Equal(t, "0", flag.DefValue)
		assert.Equal(t, "p", flag.Shorthand)
	}
}

func TestMCPServe_RequiresChatService(t *testing.T) {
	clearServices(t)

	_, err := execute(t, "mcp", "serve")

	assert.ErrorContains(t, err, "chat service is required")
}
