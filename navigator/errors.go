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

package navigator

import "errors"

var (
	// ErrTreeRequired is returned when Search is called without a tree or root.
	ErrTreeRequired = errors.New("document tree required")

	// ErrEmptyQuery is returned when the query is empty or only whitespace.
	ErrEmptyQuery = errors.New("query must not be empty")

	// ErrInvalidMaxDepth is returned when maxDepth is not positive.
	ErrInvalidMaxDepth = errors.New("max depth must be positive")

	// ErrInvalidMaxBranches is returned when maxBranches is not positive.
	ErrInvalidMaxBranches = errors.New("max branches must be positive")

	// ErrOracleRequired is returned when a navigator is created without an oracle.
	ErrOracleRequired = errors.New("relevance oracle required")

	// ErrInvalidPolicy is returned when policy thresholds are out of range.
	ErrInvalidPolicy = errors.New("invalid confidence policy")

	// ErrMalformedResponse classifies oracle answers that name none of the candidates.
	// It is recorded as an oracle failure and never returned from Search.
	ErrMalformedResponse = errors.New("oracle response referenced no candidate")

	// ErrOraclePanic classifies oracle calls that panicked.
	// It is recorded as an oracle failure and never returned from Search.
	ErrOraclePanic = errors.New("oracle panicked")
)
