package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// Dispatcher sends one catalog prompt per call and stores the answer
type Dispatcher struct {
	cfg     *Config
	catalog Catalog
	client  *APIClient
	choose  Chooser
	out     io.Writer
}

// DispatcherOption configures a Dispatcher
type DispatcherOption func(*Dispatcher)

// WithChooser overrides the random index source.
func WithChooser(c Chooser) DispatcherOption {
	return func(d *Dispatcher) {
		d.choose = c
	}
}

// WithOutput sets where non-200 responses are reported. Defaults to stdout.
func WithOutput(w io.Writer) DispatcherOption {
	return func(d *Dispatcher) {
		d.out = w
	}
}

// NewDispatcher validates cfg and prepares the API client
func NewDispatcher(ctx context.Context, cfg *Config, opts ...DispatcherOption) (*Dispatcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	catalog, err := cfg.Catalog()
	if err != nil {
		return nil, err
	}

	d := &Dispatcher{
		cfg:     cfg,
		catalog: catalog,
		client:  NewAPIClient(ctx, cfg),
		out:     os.Stdout,
	}
	for _, o := range opts {
		o(d)
	}
	return d, nil
}

// Catalog returns the prompts this dispatcher draws from
func (d *Dispatcher) Catalog() Catalog {
	return d.catalog
}

// Run picks a prompt uniformly at random and dispatches it
func (d *Dispatcher) Run(ctx context.Context) (Run, error) {
	i, _ := d.catalog.Pick(d.choose)
	return d.Dispatch(ctx, i)
}

// Dispatch sends the prompt at catalog index i. On HTTP 200 the extracted
// content replaces the output file; on any other status the code and body
// are reported and the file is left alone.
func (d *Dispatcher) Dispatch(ctx context.Context, i int) (Run, error) {
	if i < 0 || i >= d.catalog.Len() {
		return Run{}, fmt.Errorf("prompt index %d out of range [0, %d)", i, d.catalog.Len())
	}

	run := Run{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Prompt:    d.catalog.At(i),
		Model:     d.cfg.Model,
	}
	req := ChatCompletionRequest{
		Model:       d.cfg.Model,
		Messages:    []Message{{Role: "user", Content: run.Prompt}},
		Temperature: d.cfg.Temperature,
		MaxTokens:   d.cfg.MaxTokens,
	}

	slog.Debug("dispatching prompt", "run", run.ID, "index", i, "model", req.Model, "endpoint", d.cfg.Endpoint)
	content, err := d.client.Complete(ctx, req)

	var statusErr *StatusError
	switch {
	case errors.As(err, &statusErr):
		run.StatusCode = statusErr.Code
		run.Error = statusErr.Error()
		printStatusError(d.out, statusErr)
	case err != nil:
		run.Error = err.Error()
	default:
		run.StatusCode = http.StatusOK
		run.Content = content
		if err = writeArtifact(d.cfg.Output, content); err != nil {
			run.Error = err.Error()
			break
		}
		slog.Info("answer written",
			"run", run.ID,
			"path", d.cfg.Output,
			"size", humanize.Bytes(uint64(len(content))))
	}

	if d.cfg.History {
		if herr := saveRun(d.cfg.HistoryDir, run); herr != nil {
			slog.Warn("failed to record run", "run", run.ID, "error", herr)
		}
	}
	return run, err
}
