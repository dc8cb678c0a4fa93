// Copyright (c) 2025 The gridwatch Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"
	"math"
	"os"
	"sync"
	"time"

	"atomicgo.dev/cursor"
	"github.com/pterm/pterm"
	"golang.org/x/term"
)

var spinnerFrames = []string{"-", "\\", "|", "/"}

// isTerminal reports whether stdout is an interactive terminal.
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// withSpinner runs fn while an area spinner shows text. Off a terminal the
// text is printed once instead. The spinner stays up for at least minimum.
func withSpinner(text string, minimum time.Duration, fn func() error) error {
	if !isTerminal() {
		pterm.Println(text + "...")
		return fn()
	}

	cursor.Hide()
	defer cursor.Show()
	area, err := pterm.DefaultArea.WithRemoveWhenDone(true).Start()
	if err != nil {
		return fn()
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for i := 0; ; i++ {
			area.Update(fmt.Sprintf("%s %s", spinnerFrames[i%len(spinnerFrames)], text))
			select {
			case <-stop:
				return
			case <-ticker.C:
			}
		}
	}()

	start := time.Now()
	err = fn()
	if elapsed := time.Since(start); err == nil && elapsed < minimum {
		time.Sleep(minimum - elapsed)
	}
	close(stop)
	wg.Wait()
	_ = area.Stop()
	return err
}

// clearPrompt erases a prompt and the echoed answer. textLength is the
// combined length; wrapping is computed from the terminal width.
func clearPrompt(textLength int) {
	if !isTerminal() {
		return
	}
	width := 80
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		width = w
	}
	lines := max(int(math.Ceil(float64(textLength)/float64(width))), 1)
	// The cursor sits on the empty line after Enter.
	cursor.ClearLinesUp(lines)
	cursor.StartOfLine()
}

// readPassword reads a password without echo on a terminal, or a plain line
// otherwise.
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Println()
		return string(b), err
	}
	return readLine()
}
