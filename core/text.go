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

import "strings"

// MaxEmbeddedReadmeChars caps how much README text contributes to an embedding.
const MaxEmbeddedReadmeChars = 5000

// EmbeddingText builds the text a repository is embedded from: its full name,
// then its description and the head of its README when present, joined by " | ".
func EmbeddingText(repo *Repository) string {
	parts := []string{repo.FullName}
	if repo.Description != "" {
		parts = append(parts, repo.Description)
	}
	if repo.Readme != "" {
		parts = append(parts, TruncateRunes(repo.Readme, MaxEmbeddedReadmeChars))
	}
	return strings.Join(parts, " | ")
}

// TruncateRunes returns at most n runes of s without splitting a multi-byte character.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
