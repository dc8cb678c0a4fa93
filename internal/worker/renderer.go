// Copyright (c) 2025 The gridwatch Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package worker

import (
	"fmt"
	"io"
	"time"

	"github.com/pterm/pterm"
)

// Renderer prints cycle summaries to a terminal.
type Renderer struct {
	out io.Writer
}

// NewRenderer creates a renderer writing to out.
func NewRenderer(out io.Writer) *Renderer { return &Renderer{out: out} }

// Render prints a one-line summary and, when steps failed, a bullet list of
// the reasons.
func (r *Renderer) Render(name string, st *CycleState, elapsed time.Duration) {
	elapsed = elapsed.Round(time.Millisecond)
	done, total := st.CompletedCount(), st.ExpectedCount()

	if !st.HasFailures() {
		fmt.Fprint(r.out, pterm.Success.Sprintfln("%s: %d/%d steps completed in %s", name, done, total, elapsed))
		return
	}
	fmt.Fprint(r.out, pterm.Warning.Sprintfln("%s: %d/%d steps completed, %d failed in %s",
		name, done, total, st.FailedCount(), elapsed))
	list, err := pterm.DefaultBulletList.WithItems(stringListToBulletItems(st.Failures())).Srender()
	if err == nil {
		fmt.Fprint(r.out, list)
	}
}

func stringListToBulletItems(items []string) (out []pterm.BulletListItem) {
	for _, s := range items {
		out = append(out, pterm.BulletListItem{Level: 0, Text: s})
	}
	return out
}
