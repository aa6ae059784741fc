package cli

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/notewise/internal/adapters/driving/rest"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

func TestServeCmd_Flags(t *testing.T) {
	port := serveCmd.Flags().Lookup("port")
	require.NotNil(t, port)
	assert.Equal(t, "0", port.DefValue)
	assert.Equal(t, "p", port.Shorthand)

	maxUpload := serveCmd.Flags().Lookup("max-upload-mb")
	require.NotNil(t, maxUpload)
	assert.Equal(t, fmt.Sprint(rest.DefaultMaxUploadBytes>>20), maxUpload.DefValue)
}

func TestServeCmd_NotConfigured(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	noteService = nil

	_, err := execute(t, "", "serve")
	assert.EqualError(t, err, "note service not configured")
}

func TestServeCmd_StopsWithContext(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	serverPort = freePort(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"serve"})
	err := rootCmd.ExecuteContext(ctx)

	require.NoError(t, err)
	assert.Contains(t, buf.String(), fmt.Sprintf("http://localhost:%d", serverPort))
}

func TestMCPServeCmd_Flags(t *testing.T) {
	port := mcpServeCmd.Flags().Lookup("port")
	require.NotNil(t, port)
	assert.Equal(t, "0", port.DefValue)
	assert.Equal(t, "true", mcpServeCmd.Annotations[annotationServices])
}

func TestMCPServeCmd_NotConfigured(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	noteService = nil

	_, err := execute(t, "", "mcp", "serve")
	assert.EqualError(t, err, "note service not configured")
}
