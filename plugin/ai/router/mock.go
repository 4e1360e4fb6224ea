package router

import (
	"context"
)

// MockRouterService is a fixed-answer RouterService for testing.
type MockRouterService struct {
	// IntentOverrides maps exact message text to an intent.
	IntentOverrides map[string]Intent
	// Default is returned for messages without an override.
	Default Classification
	// Registered is returned by Intents.
	Registered []Intent
}

// NewMockRouterService creates a new MockRouterService that answers fallback by default.
func NewMockRouterService() *MockRouterService {
	return &MockRouterService{
		IntentOverrides: make(map[string]Intent),
		Default:         Fallback(),
	}
}

// Classify returns the override for msg.Text, or Default.
func (m *MockRouterService) Classify(_ context.Context, msg Message) Classification {
	if intent, ok := m.IntentOverrides[msg.Text]; ok {
		return Classification{Intent: intent, Confidence: 1.0, Method: MethodRule}
	}
	return m.Default
}

// Intents implements RouterService.
func (m *MockRouterService) Intents() []Intent {
	return m.Registered
}

// Ensure MockRouterService implements RouterService
var _ RouterService = (*MockRouterService)(nil)
