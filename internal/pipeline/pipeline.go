// Package pipeline validates a batch of merchant record files and, when the
// whole batch is clean, aggregates the facet tables served alongside it.
//
// The pipeline is all-or-nothing: a single bad file or duplicate slug fails
// the run, and the returned *ValidationError lists every failing file with
// all of its problems so they can be fixed in one pass.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"merchantdir/internal/models"
)

// RawRecord is one merchant file as read from disk.
type RawRecord struct {
	Filename string
	Data     []byte
}

// Result is the output of a successful run.
type Result struct {
	Dataset models.Dataset
	Report  *Report
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock overrides the source of the generatedAt timestamp.
func WithClock(clock func() time.Time) Option {
	return func(p *Pipeline) {
		if clock != nil {
			p.clock = clock
		}
	}
}

// WithConcurrency bounds how many files are validated at once.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithLogger sets the logger used for progress messages.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

type Pipeline struct {
	rules       Rules
	validate    *validator.Validate
	clock       func() time.Time
	concurrency int
	logger      *slog.Logger
}

// New returns a Pipeline validating against rules.
func New(rules Rules, opts ...Option) *Pipeline {
	p := &Pipeline{
		rules:       rules,
		validate:    newValidator(rules),
		clock:       time.Now,
		concurrency: runtime.GOMAXPROCS(0),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// checked is the per-file outcome before cross-file checks.
type checked struct {
	merchant *models.Merchant // nil when the file could not be decoded
	errors   []string
}

// Run validates records and, if every one passes, returns the dataset in
// input order with its facet metadata. On any violation it returns a nil
// Result and a *ValidationError.
func (p *Pipeline) Run(ctx context.Context, records []RawRecord) (*Result, error) {
	results := make([]checked, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i := range records {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = p.check(records[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("validate records: %w", err)
	}

	markDuplicateSlugs(results)

	report := &Report{Files: make([]FileResult, len(records))}
	merchants := make([]*models.Merchant, 0, len(records))
	for i, r := range results {
		report.Files[i] = FileResult{Filename: records[i].Filename, Errors: dedupe(r.errors)}
		if len(r.errors) == 0 {
			report.Valid++
			merchants = append(merchants, r.merchant)
		} else {
			report.Invalid++
		}
	}

	if report.Invalid > 0 {
		p.logger.Warn("Validation failed",
			"valid", report.Valid,
			"invalid", report.Invalid,
		)
		return nil, &ValidationError{Report: report}
	}

	metadata := Aggregate(merchants, p.rules.Capabilities, p.clock())
	p.logger.Info("Validation passed",
		"merchants", metadata.TotalMerchants,
		"categories", len(metadata.Categories),
		"capabilities", len(metadata.Capabilities),
		"payment_providers", len(metadata.PaymentProviders),
	)

	return &Result{
		Dataset: models.Dataset{Merchants: merchants, Metadata: metadata},
		Report:  report,
	}, nil
}

// check runs every per-file rule and accumulates all failures.
func (p *Pipeline) check(rec RawRecord) checked {
	var root any
	if err := json.Unmarshal(rec.Data, &root); err != nil {
		return checked{errors: []string{"Failed to parse JSON: " + err.Error()}}
	}
	if _, ok := root.(map[string]any); !ok {
		return checked{errors: []string{"Invalid JSON structure"}}
	}

	var errs []string
	m := &models.Merchant{}

	// A type mismatch leaves the field zero and decoding carries on with the
	// rest of the document.
	if err := json.Unmarshal(rec.Data, m); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return checked{errors: []string{"Failed to parse JSON: " + err.Error()}}
		}
		errs = append(errs, missingField(typeErr.Field))
	}

	errs = append(errs, checkStruct(p.validate, m)...)

	expected := strings.TrimSuffix(rec.Filename, ".json")
	if m.Slug != expected {
		errs = append(errs, fmt.Sprintf("Slug mismatch: filename %q but slug is %q", rec.Filename, m.Slug))
	}

	return checked{merchant: m, errors: errs}
}

// markDuplicateSlugs flags every file whose slug was already claimed by an
// earlier file. The first claimant is left alone.
func markDuplicateSlugs(results []checked) {
	seen := make(map[string]struct{}, len(results))
	for i := range results {
		m := results[i].merchant
		if m == nil || m.Slug == "" {
			continue
		}
		if _, dup := seen[m.Slug]; dup {
			results[i].errors = append(results[i].errors, fmt.Sprintf("Duplicate slug: %q already exists", m.Slug))
			continue
		}
		seen[m.Slug] = struct{}{}
	}
}

func dedupe(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(messages))
	out := make([]string, 0, len(messages))
	for _, msg := range messages {
		if _, ok := seen[msg]; ok {
			continue
		}
		seen[msg] = struct{}{}
		out = append(out, msg)
	}
	return out
}
