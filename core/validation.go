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

import "fmt"

// ValidateRepository validates a Repository according to domain rules.
//
// Validation rules:
//   - Id must be non-zero
//   - FullName and URL must not be empty
//   - Stars must not be negative
//
// NOT validated (populated by the enrichment stage):
//   - Readme and ReadmeFormat
//   - Vector (a repository can be stored before it is embedded)
func ValidateRepository(repo *Repository) error {
	if repo == nil {
		return fmt.Errorf("%w: repository is nil", ErrInvalidRepository)
	}
	if repo.Id == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidRepository, ErrMissingID)
	}
	if repo.FullName == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRepository, ErrEmptyFullName)
	}
	if repo.URL == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRepository, ErrEmptyURL)
	}
	if repo.Stars < 0 {
		return fmt.Errorf("%w: %w (%d)", ErrInvalidRepository, ErrNegativeStars, repo.Stars)
	}
	return nil
}
