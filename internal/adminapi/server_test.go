package adminapi

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/correlator-io/correlator/internal/bus/membus"
	"github.com/correlator-io/correlator/internal/config"
)

func TestNewServer_PanicsWithoutBus(t *testing.T) {
	cfg := config.LoadKernelConfig()

	assert.Panics(t, func() {
		NewServer(cfg, nil, nil, nil)
	})
}

func TestNewServer_BuildsAHandlerChain(t *testing.T) {
	cfg := config.LoadKernelConfig()

	s := NewServer(cfg, membus.New(), nil, nil)
	assert.NotNil(t, s.httpServer.Handler)
	assert.Equal(t, cfg.Address(), s.httpServer.Addr)
}

func TestServer_ShutdownStopsAllRegisteredRuntimes(t *testing.T) {
	cfg := config.LoadKernelConfig()
	cfg.PollIntervalMs = 5

	s := NewServer(cfg, membus.New(), nil, nil)

	rec := doRequest(s, "POST", "/v1/scenarios", []byte(validScenarioDoc))
	assert.Equal(t, 201, rec.Code)

	rec = doRequest(s, "POST", "/v1/scenarios/orders/start", nil)
	assert.Equal(t, 200, rec.Code)

	entry, ok := s.registry.get("orders")
	assert.True(t, ok)
	assert.True(t, entry.runtimeValue.IsRunning())

	assert.NoError(t, s.shutdown())
	assert.False(t, entry.runtimeValue.IsRunning())
}
