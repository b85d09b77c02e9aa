package factory

import (
	"time"

	"github.com/mcoot/triviaduel/internal/dependencies/mocks"
	"github.com/mcoot/triviaduel/internal/storage/memory"
	"github.com/mcoot/triviaduel/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
	Notifier   *mocks.RecordingNotifier
	Memory     *memory.Storage
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	notifier := mocks.NewRecordingNotifier()

	app := newWithDependencies(store, store, store, mockClock, mockRandom, notifier, testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
		Notifier:   notifier,
		Memory:     store,
	}
}
