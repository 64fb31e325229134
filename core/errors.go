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

// Domain validation errors
var (
	// ErrInvalidRepository indicates a Repository failed validation.
	ErrInvalidRepository = errors.New("invalid repository")

	// ErrMissingID indicates the repository has no remote identifier.
	ErrMissingID = errors.New("repository id cannot be zero")

	// ErrEmptyFullName indicates the FullName field is empty.
	ErrEmptyFullName = errors.New("full name cannot be empty")

	// ErrEmptyURL indicates the URL field is empty.
	ErrEmptyURL = errors.New("url cannot be empty")

	// ErrNegativeStars indicates a negative star count.
	ErrNegativeStars = errors.New("star count cannot be negative")

	// ErrDimensionMismatch indicates vectors of different lengths were compared.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)
