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


package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/poiesic/stargaze/core"
	"github.com/poiesic/stargaze/ingestion"
)

// Color constants for terminal output
const (
	colorBlue   = "#58a6ff"
	colorGreen  = "#3fb950"
	colorRed    = "#f85149"
	colorYellow = "#d29922"
	colorGray   = "#8b949e"
)

// renderer writes styled command output. Styles degrade to plain text
// when the writer is not a terminal.
type renderer struct {
	w       io.Writer
	title   lipgloss.Style
	heading lipgloss.Style
	name    lipgloss.Style
	hint    lipgloss.Style
	good    lipgloss.Style
	warn    lipgloss.Style
	bad     lipgloss.Style
}

func newRenderer(w io.Writer) *renderer {
	r := lipgloss.NewRenderer(w)
	return &renderer{
		w:       w,
		title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color(colorBlue)),
		heading: r.NewStyle().Bold(true),
		name:    r.NewStyle().Bold(true).Foreground(lipgloss.Color(colorBlue)),
		hint:    r.NewStyle().Italic(true).Foreground(lipgloss.Color(colorGray)),
		good:    r.NewStyle().Bold(true).Foreground(lipgloss.Color(colorGreen)),
		warn:    r.NewStyle().Foreground(lipgloss.Color(colorYellow)),
		bad:     r.NewStyle().Bold(true).Foreground(lipgloss.Color(colorRed)),
	}
}

func (r *renderer) printf(format string, args ...any) {
	fmt.Fprintf(r.w, format, args...)
}

func (r *renderer) rule() {
	r.printf("%s\n", strings.Repeat("=", 60))
}

func (r *renderer) Title(title string) {
	r.printf("%s\n", r.title.Render(title))
	r.rule()
}

func (r *renderer) Hint(msg string) {
	r.printf("%s\n", r.hint.Render(msg))
}

func (r *renderer) Quota(q core.QuotaStatus, now time.Time) {
	r.printf("\n%s\n", r.heading.Render("GitHub API Rate Limit:"))
	r.printf("  Remaining: %d/%d\n", q.Remaining, q.Limit)
	if wait := q.ResetIn(now); wait > 0 {
		secs := int(wait.Seconds())
		r.printf("  Resets in: %ds (%dmin)\n", secs, secs/60)
	}
}

func (r *renderer) Statistics(label string, stats *core.Statistics) {
	r.printf("\n%s\n", r.heading.Render(label+":"))
	r.printf("  Total repositories: %d\n", stats.Total)
	r.printf("  Embedded repositories: %d\n", stats.Embedded)
	r.printf("  Repositories with README: %d\n", stats.WithReadme)
}

func (r *renderer) Coverage(stats *core.Statistics) {
	if stats.Total > 0 {
		r.printf("  README coverage: %.1f%%\n", stats.ReadmeCoverage())
	}
}

func (r *renderer) LastSync(state *core.SyncState) {
	if state == nil {
		return
	}
	r.printf("  Last %s: %s (listed %d, processed %d, failed %d, removed %d)\n",
		state.Operation,
		state.UpdatedAt.Local().Format(time.DateTime),
		state.Listed, state.Processed, state.Failed, state.Removed)
}

func (r *renderer) Report(report *ingestion.Report) {
	r.printf("\nFound %d starred repositories\n", report.Listed)

	if report.Operation == ingestion.OperationRefresh {
		if report.UpToDate {
			r.printf("\n%s\n", r.good.Render("No changes detected. Database is up to date!"))
			return
		}
		r.printf("\n%s\n", r.heading.Render("Changes detected:"))
		r.printf("  New stars: %d\n", report.Submitted())
		r.printf("  Removed stars: %d\n", report.Removed+report.RemoveFailed)
	} else if report.Submitted() == 0 {
		r.printf("\n%s\n", r.good.Render("No new repositories to process!"))
		return
	}

	r.printf("\n")
	r.rule()
	r.printf("%s\n", r.good.Render("Processing complete!"))
	r.printf("  New repositories added: %d\n", report.Processed)
	r.printf("  Skipped (already stored): %d\n", report.Skipped)
	r.printf("  With README: %d\n", report.WithReadme)
	if report.Operation == ingestion.OperationRefresh {
		r.printf("  Removed: %d\n", report.Removed)
	}
	if report.Failed > 0 {
		r.printf("  %s\n", r.warn.Render(fmt.Sprintf("Failed: %d", report.Failed)))
		for _, f := range report.Failures {
			r.printf("    %s %s (%s): %v\n", r.bad.Render("!"), f.FullName, f.State, f.Err)
		}
	}
	if report.RemoveFailed > 0 {
		r.printf("  %s\n", r.warn.Render(fmt.Sprintf("Removals failed: %d", report.RemoveFailed)))
	}
	r.printf("  Took %s\n", report.Duration.Round(time.Millisecond))
}

func (r *renderer) Results(query string, results []*core.SearchResult) {
	r.printf("Searching for: '%s'\n", query)
	r.rule()
	if len(results) == 0 {
		r.Hint("No results found. Run 'stargaze fetch' first to populate the database.")
		return
	}

	r.printf("\nTop %d matching repositories:\n\n", len(results))
	for i, result := range results {
		repo := result.Record
		r.printf("%d. %s\n", i+1, r.name.Render(repo.FullName))
		r.printf("   ★ %d stars\n", repo.Stars)
		if repo.Description != "" {
			r.printf("   %s\n", repo.Description)
		}
		r.printf("   %s\n", repo.URL)
		r.printf("   Distance: %.4f\n\n", result.Distance)
	}
}
