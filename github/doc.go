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


// Package github talks to the GitHub REST API v3.
//
// Client lists the authenticated user's starred repositories, reports the
// remaining rate-limit budget and fetches READMEs. Every request first passes
// through a shared QuotaGuard so that concurrent callers stop together when
// the budget runs out and resume together once it resets.
//
//	guard := github.NewQuotaGuard()
//	client := github.NewClient(token, github.WithQuotaGuard(guard))
//	repos, err := client.ListStarred(ctx)
package github
