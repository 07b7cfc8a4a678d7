package app

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capdocs/capdocs/internal/config"
	"github.com/capdocs/capdocs/internal/identity"
	"github.com/capdocs/capdocs/internal/metrics"
)

func TestContainer_Config(t *testing.T) {
	cfg := &config.Config{ServerPort: 9999}
	container := NewContainer(cfg)

	assert.Equal(t, cfg, container.Config())
}

func TestContainer_Logger_SingleInstance(t *testing.T) {
	container := NewContainer(&config.Config{LogLevel: "debug"})

	first := container.Logger()
	second := container.Logger()

	require.NotNil(t, first)
	assert.Same(t, first, second)
}

func TestContainer_AccessFilter_SingleInstance(t *testing.T) {
	container := NewContainer(&config.Config{})

	first := container.AccessFilter()
	second := container.AccessFilter()

	require.NotNil(t, first)
	assert.Equal(t, first, second)
}

func TestContainer_AuthorizeUseCase_RequiresNodeDID(t *testing.T) {
	container := NewContainer(&config.Config{})

	useCase, err := container.AuthorizeUseCase()

	require.Error(t, err)
	assert.Nil(t, useCase)
	assert.Contains(t, err.Error(), "NODE_DID")
}

func TestContainer_AuthorizeUseCase_RejectsMalformedNodeDID(t *testing.T) {
	container := NewContainer(&config.Config{NodeDID: "did:key:zMalformed"})

	useCase, err := container.AuthorizeUseCase()

	require.Error(t, err)
	assert.Nil(t, useCase)
	assert.Contains(t, err.Error(), "NODE_DID is invalid")
}

func TestContainer_AuthorizeUseCase_AcceptsLegacyNodeDID(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	legacyDID := identity.Prefix + base64.RawURLEncoding.EncodeToString(pub)

	container := NewContainer(&config.Config{
		NodeDID:        legacyDID,
		TrustedIssuers: "did:key:zMalformed",
	})

	_, err = container.AuthorizeUseCase()

	// The legacy node DID normalizes cleanly; the failure moves on to the
	// malformed trusted issuer.
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TRUSTED_ISSUERS")
	assert.NotContains(t, err.Error(), "NODE_DID")
}

func TestContainer_BusinessMetrics_NoOpWhenDisabled(t *testing.T) {
	container := NewContainer(&config.Config{MetricsEnabled: false})

	businessMetrics, err := container.BusinessMetrics()

	require.NoError(t, err)
	assert.IsType(t, &metrics.NoOpBusinessMetrics{}, businessMetrics)
}

func TestContainer_MetricsServer_NilWhenDisabled(t *testing.T) {
	container := NewContainer(&config.Config{MetricsEnabled: false})

	metricsServer, err := container.MetricsServer()

	require.NoError(t, err)
	assert.Nil(t, metricsServer)
}
