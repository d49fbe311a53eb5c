// Package mocks provides mock implementations for testing the jobrelay system.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for our port interfaces.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	mockRepo := mocks.NewMockJobRepository(ctrl)
//	mockRepo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)
package mocks

// Generate mock for JobRepository interface from internal/core package.
// This creates MockJobRepository with methods for all JobRepository interface methods:
// Insert, GetByID, CompleteIf, ListAll, ListStalePending, DeleteAll
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=job_repository_mock.go github.com/relayworks/jobrelay/internal/core JobRepository

// Generate mock for QueuePublisher interface from internal/core package.
// This creates MockQueuePublisher with methods for all QueuePublisher interface methods:
// Publish
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=queue_publisher_mock.go github.com/relayworks/jobrelay/internal/core QueuePublisher

// Generate mock for TerminalViewCache interface from internal/core package.
// This creates MockTerminalViewCache with methods for all TerminalViewCache interface methods:
// Get, Set
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=terminal_view_cache_mock.go github.com/relayworks/jobrelay/internal/core TerminalViewCache
