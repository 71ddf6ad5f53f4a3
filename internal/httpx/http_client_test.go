package httpx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConfigureDefaults(t *testing.T) {
	t.Cleanup(func() { Configure(Settings{}) })

	require.NotNil(t, ExternalHTTPClient())
	applied := Configure(Settings{})
	require.Equal(t, defaultTimeout, applied)
	require.Equal(t, defaultTimeout, ExternalHTTPClient().Timeout)
	require.Equal(t, 1, transport.MaxIdleConnsPerHost)
}

func TestConfigureOverrides(t *testing.T) {
	t.Cleanup(func() { Configure(Settings{}) })

	applied := Configure(Settings{TimeoutSeconds: 120, MaxConnsPerHost: 4})
	require.Equal(t, 120*time.Second, applied)
	require.Equal(t, 120*time.Second, ExternalHTTPClient().Timeout)
	require.Equal(t, 4, transport.MaxIdleConnsPerHost)
	require.Equal(t, 8, transport.MaxConnsPerHost)
	require.Same(t, transport, ExternalHTTPClient().Transport)
}
