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


// Package core defines the document tree model shared by the navigator,
// the storage layer and the command line tools.
//
// A DocumentTree is a named, rooted hierarchy of DocumentNode values
// (chapters, sections, subsections) produced by an external tree producer.
// Trees are indexed once at construction so that lookups by node ID are O(1),
// and are read-only afterwards: a single tree may be shared by any number of
// concurrent traversals without locking.
//
// The tree producer is not trusted. Build never assumes the node graph is a
// real tree: cycles, repeated subtrees and duplicate IDs are tolerated and
// handled by whoever walks the graph.
//
// # Persisted Format
//
// Trees are stored as a single JSON object:
//
//	{
//	  "document_name": "Safety Manual",
//	  "tree": {
//	    "id": "root", "title": "Safety Manual", "summary": "...", "page_ref": "1-120",
//	    "children": [ {"id": "1", "title": "Introduction", ...} ]
//	  }
//	}
//
// ParseTree decodes this shape directly into DocumentNode values; no separate
// transformation step is needed before traversal.
package core
