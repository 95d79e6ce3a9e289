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


// Package ai defines the relevance-oracle contract consumed by the navigator.
//
// The navigator never talks to a language model directly. At every node it
// expands, it asks a RelevanceOracle which children are worth exploring and
// how confident it is about each. Keeping that behind an interface lets the
// traversal algorithm stay synchronous, deterministic and testable while the
// oracle does network I/O.
//
// # Implementation Packages
//
//   - ai/openai: production oracle using OpenAI-compatible chat APIs
//   - ai/lexical: offline oracle based on term overlap, no network required
//   - ai/mock: test doubles with behavior injection and call counting
//
// # Untrusted Output
//
// Oracles are treated as unreliable. A response may time out, be malformed,
// reference child IDs that were never offered, or report confidences outside
// [0, 1]. The navigator absorbs all of these; oracle implementations only
// need to report what they got.
//
// # Usage Example
//
//	cfg := ai.NewConfig(ai.WithModel("gpt-4o-mini"))
//	provider, err := openai.NewProvider(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	judgements, err := provider.Oracle().Evaluate(ctx, ai.EvaluationRequest{
//	    Query:       "What are the hazard analysis steps?",
//	    Candidates:  candidates,
//	    MaxBranches: 3,
//	})
package ai
