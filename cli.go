package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/peterh/liner"
)

// Shared color printers for console output.
var (
	colorRed    = color.New(color.FgRed)
	colorGreen  = color.New(color.FgGreen)
	colorYellow = color.New(color.FgYellow)
	colorBlue   = color.New(color.FgBlue)
)

// errSelectionAborted is returned when the user leaves the picker.
var errSelectionAborted = errors.New("selection aborted")

// printStatusError reports a non-200 response: status line, then raw body
func printStatusError(w io.Writer, e *StatusError) {
	colorRed.Fprintf(w, "Error: Received status code %d\n", e.Code)
	fmt.Fprintln(w, e.Body)
}

// printCatalog lists every prompt with its index
func printCatalog(w io.Writer, c Catalog) {
	for i, p := range c.Prompts() {
		fmt.Fprintf(w, "%s %s\n", colorYellow.Sprintf("%2d.", i), p)
	}
}

// printRuns lists recorded runs, one line each
func printRuns(w io.Writer, runs []Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No recorded runs.")
		return
	}
	for _, r := range runs {
		status := colorGreen.Sprint(r.StatusCode)
		if r.Error != "" {
			status = colorRed.Sprint("failed")
			if r.StatusCode != 0 {
				status = colorRed.Sprint(r.StatusCode)
			}
		}
		id := r.ID
		if len(id) > 8 {
			id = id[:8]
		}
		fmt.Fprintf(w, "%s  %s  %s  %s\n",
			colorBlue.Sprint(id), humanize.Time(r.StartedAt), status, r.Prompt)
	}
}

// parseSelection turns picker input into a catalog index. An empty line
// asks for a random pick.
func parseSelection(line string, c Catalog, choose Chooser) (int, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		i, _ := c.Pick(choose)
		return i, nil
	}
	i, err := strconv.Atoi(line)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", line)
	}
	if i < 0 || i >= c.Len() {
		return 0, fmt.Errorf("choose a number between 0 and %d", c.Len()-1)
	}
	return i, nil
}

// CLIHandler manages the interactive picker
type CLIHandler struct {
	liner *liner.State
}

// NewCLIHandler creates a new CLI handler with a fresh line editor
func NewCLIHandler() *CLIHandler {
	rl := liner.NewLiner()
	rl.SetCtrlCAborts(true)
	return &CLIHandler{liner: rl}
}

// Close restores the terminal
func (c *CLIHandler) Close() {
	c.liner.Close()
}

// SelectPrompt shows the catalog and reads an index until one is valid
func (c *CLIHandler) SelectPrompt(w io.Writer, catalog Catalog, choose Chooser) (int, error) {
	printCatalog(w, catalog)
	for {
		line, err := c.liner.Prompt(fmt.Sprintf("Question [0-%d, empty for random]: ", catalog.Len()-1))
		if err != nil {
			if err == io.EOF || err == liner.ErrPromptAborted {
				return 0, errSelectionAborted
			}
			fmt.Fprintf(os.Stderr, "Read error: %v\n", err)
			continue
		}

		i, err := parseSelection(line, catalog, choose)
		if err != nil {
			fmt.Fprintln(w, colorRed.Sprint(err))
			continue
		}
		c.liner.AppendHistory(line)
		return i, nil
	}
}
