// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mock

import "github.com/poiesic/treerag/ai"

// MockProvider is a test double for ai.AIProvider.
type MockProvider struct {
	oracle *MockOracle
	closed bool
}

// NewMockProvider creates a new mock provider with a default mock oracle.
//
// Returns ai.AIProvider interface for consistency with production constructors.
// Use GetMockOracle() to access the concrete type for test assertions.
func NewMockProvider() ai.AIProvider {
	return &MockProvider{oracle: NewMockOracle()}
}

// NewMockProviderWithOracle creates a mock provider around a custom mock oracle.
func NewMockProviderWithOracle(oracle *MockOracle) ai.AIProvider {
	return &MockProvider{oracle: oracle}
}

// Oracle returns the mock oracle.
func (p *MockProvider) Oracle() ai.RelevanceOracle {
	return p.oracle
}

// Close marks the provider closed.
func (p *MockProvider) Close() error {
	p.closed = true
	return nil
}

// Closed reports whether Close was called.
func (p *MockProvider) Closed() bool {
	return p.closed
}

// GetMockOracle returns the underlying mock oracle for test assertions.
func (p *MockProvider) GetMockOracle() *MockOracle {
	return p.oracle
}
