// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.RelevanceOracle and
// ai.AIProvider for use in unit tests. The mocks allow tests to run without
// a language model and enable controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	oracle := mock.NewMockOracle()
//
//	// Custom behavior injection
//	oracle := mock.NewMockOracle().WithEvaluateFunc(
//	    mock.SelectByID(map[string]float64{"2": 0.9}),
//	)
//
//	// Check call counts
//	count := oracle.CallCount()
//
// # Default Behavior
//
// MockOracle selects the first MaxBranches candidates with confidence 1.0.
package mock
