package factory

import (
	"time"

	"github.com/ratrace-game/server/internal/dependencies/mocks"
	"github.com/ratrace-game/server/internal/services/auth"
	"github.com/ratrace-game/server/internal/services/registry"
	"github.com/ratrace-game/server/internal/storage/memory"
	"github.com/ratrace-game/server/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	logger := testutil.NopLogger()

	authCfg := auth.DefaultConfig()
	authCfg.Secret = "test-secret"

	app := newWithDependencies(store, mockClock, mockRandom, authCfg, registry.DefaultConfig(), logger)

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
