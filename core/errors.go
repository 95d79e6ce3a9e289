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


package core

import "errors"

var (
	// ErrNilRoot indicates a tree was built without a root node.
	ErrNilRoot = errors.New("tree root cannot be nil")

	// ErrInvalidTree indicates a DocumentTree failed validation.
	ErrInvalidTree = errors.New("invalid document tree")

	// ErrEmptyDocumentName indicates the DocumentName field is empty.
	ErrEmptyDocumentName = errors.New("document name cannot be empty")

	// ErrMalformedTree indicates persisted tree data could not be decoded.
	ErrMalformedTree = errors.New("malformed tree data")

	// ErrInvalidShape is returned when a synthetic tree cannot be generated
	// with the requested shape.
	ErrInvalidShape = errors.New("invalid synthetic tree shape")
)
