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

// Package navigator finds the sections of a document tree that answer a query.
//
// The Navigator walks a core.DocumentTree in level order. At each node it
// shows the node's children, reduced to title and summary, to an
// ai.RelevanceOracle and explores only the children the oracle picks.
// Oracle calls for the nodes of one level run concurrently on a bounded
// worker pool; their answers are merged in a fixed order so that a search
// is deterministic for a given tree, query and oracle.
//
// Every search is bounded by:
//   - maxDepth: nodes at that depth are not expanded (clamped to MaxDepthLimit)
//   - maxBranches: children explored per node (clamped to MaxBranchesLimit)
//   - a node budget (DefaultNodeBudget) on the nodes visited
//   - a visited set, so cycles and shared subtrees in the tree data are
//     skipped rather than followed
//
// An oracle that errors, times out, panics or names only unknown children
// turns its node into a dead end; the search continues elsewhere. Budget
// exhaustion is reported in the statistics, not as an error.
//
// # Usage
//
//	nav, err := navigator.New(oracle, navigator.WithNodeBudget(500))
//	if err != nil {
//	    return err
//	}
//	defer nav.Release()
//
//	result, err := nav.Search(ctx, tree, "What are the hazard analysis steps?",
//	    navigator.DefaultMaxDepth, navigator.DefaultMaxBranches)
//	if err != nil {
//	    return err
//	}
//	prompt := navigator.FormatContext(result)
//
// Which children are explored, and how many, follows a Policy: children
// below ExploreThreshold are ignored, the branch count shrinks as the best
// confidence drops, and a node that is not expanded further is selected when
// its confidence reaches SelectThreshold.
package navigator
