package credential

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type stubHost struct {
	has       bool
	hasErr    error
	selectErr error
	opened    int
	queried   int
}

func (s *stubHost) HasSelectedAPIKey(ctx context.Context) (bool, error) {
	s.queried++
	return s.has, s.hasErr
}

func (s *stubHost) OpenSelectKey(ctx context.Context) error {
	s.opened++
	return s.selectErr
}

func TestGateHasCredential(t *testing.T) {
	tests := []struct {
		name string
		host *stubHost
		want bool
	}{
		{"selected", &stubHost{has: true}, true},
		{"not selected", &stubHost{has: false}, false},
		{"host unavailable defaults to true", &stubHost{hasErr: ErrHostUnavailable}, true},
		{"host error defaults to true", &stubHost{hasErr: errors.New("boom")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGate(tt.host, zaptest.NewLogger(t))
			assert.Equal(t, tt.want, g.HasCredential(context.Background()))
			assert.Equal(t, tt.want, g.Selected())
			assert.Equal(t, 1, tt.host.queried)
		})
	}
}

func TestGateNilHost(t *testing.T) {
	g := NewGate(nil, nil)
	assert.True(t, g.HasCredential(context.Background()))
	require.NoError(t, g.RequestCredential(context.Background()))
	assert.True(t, g.Selected())
}

func TestGateRequestCredentialIsOptimistic(t *testing.T) {
	host := &stubHost{has: false}
	g := NewGate(host, zaptest.NewLogger(t))
	require.False(t, g.HasCredential(context.Background()))

	require.NoError(t, g.RequestCredential(context.Background()))

	assert.True(t, g.Selected())
	assert.Equal(t, 1, host.opened)
	// no verification round-trip after selection
	assert.Equal(t, 1, host.queried)
}

func TestGateRequestCredentialFailureKeepsState(t *testing.T) {
	host := &stubHost{has: false, selectErr: errors.New("user aborted")}
	g := NewGate(host, zaptest.NewLogger(t))
	g.HasCredential(context.Background())

	err := g.RequestCredential(context.Background())
	assert.Error(t, err)
	assert.False(t, g.Selected())
}

func TestGateInvalidate(t *testing.T) {
	g := NewGate(&stubHost{has: true}, zaptest.NewLogger(t))
	require.True(t, g.HasCredential(context.Background()))

	g.InvalidateCredential()
	assert.False(t, g.Selected())
}

func TestEnvHost(t *testing.T) {
	for _, name := range keyEnvVars {
		t.Setenv(name, "")
	}

	host := NewEnvHost(func(ctx context.Context) (string, error) {
		return "  fresh-key \n", nil
	})

	ok, err := host.HasSelectedAPIKey(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, host.OpenSelectKey(context.Background()))
	assert.Equal(t, "fresh-key", os.Getenv(APIKeyEnv))
	assert.Equal(t, "fresh-key", host.APIKey())

	ok, err = host.HasSelectedAPIKey(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEnvHostFallbackVars(t *testing.T) {
	t.Setenv(APIKeyEnv, "")
	t.Setenv("API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "google-key")

	host := NewEnvHost(nil)
	assert.Equal(t, "google-key", host.APIKey())

	t.Setenv("API_KEY", "api-key")
	assert.Equal(t, "api-key", host.APIKey())
}

func TestEnvHostEmptyKey(t *testing.T) {
	t.Setenv(APIKeyEnv, "")
	host := NewEnvHost(func(ctx context.Context) (string, error) { return "   ", nil })

	err := host.OpenSelectKey(context.Background())
	assert.ErrorIs(t, err, ErrEmptyKey)
}

func TestGetAPIKeyHelp(t *testing.T) {
	help := GetAPIKeyHelp()
	assert.Contains(t, help, "GEMINI_API_KEY")
	assert.Contains(t, help, "aistudio.google.com")
}
