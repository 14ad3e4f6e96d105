package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dgallion1/lexchunk/internal/chunker"
	"github.com/dgallion1/lexchunk/internal/doctree"
	"github.com/dgallion1/lexchunk/internal/hierarchy"
	"github.com/dgallion1/lexchunk/internal/parser"
	"github.com/dgallion1/lexchunk/internal/store"
)

// OutcomeStatus is the final state of one document.
type OutcomeStatus string

const (
	OutcomeStored  OutcomeStatus = "stored"
	OutcomeSkipped OutcomeStatus = "skipped"
	OutcomeFailed  OutcomeStatus = "failed"
)

// Outcome describes what happened to one document.
type Outcome struct {
	Source  string          `json:"source"`
	Status  OutcomeStatus   `json:"status"`
	Kind    FailureKind     `json:"kind,omitempty"`
	Chunks  int             `json:"chunks"`
	FirstID int64           `json:"first_id,omitempty"`
	LastID  int64           `json:"last_id,omitempty"`
	Report  *chunker.Report `json:"report,omitempty"`
	Error   string          `json:"error,omitempty"`

	Err    error `json:"-"`
	Tokens []int `json:"-"`
}

func (o *Outcome) fail(err error) {
	o.Status = OutcomeFailed
	o.Kind = Classify(err)
	o.Err = err
	o.Error = err.Error()
}

// Prepared is a parsed and chunked document waiting to be stored.
type Prepared struct {
	Source string
	Doc    *doctree.Document
	Result *chunker.Result
}

// Worker runs documents through parse, chunk and store. It holds no
// per-document state and is safe for concurrent use.
type Worker struct {
	store       store.Store
	chunkCfg    chunker.Config
	metrics     *Metrics
	log         *slog.Logger
	pdfFallback bool
}

// NewWorker creates a Worker. A nil m records nothing.
func NewWorker(st store.Store, chunkCfg chunker.Config, m *Metrics, log *slog.Logger) *Worker {
	if m == nil {
		m = nopMetrics()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Worker{
		store:    st,
		chunkCfg: chunkCfg,
		metrics:  m,
		log:      log,
	}
}

// WithPDFFallback enables the pdftotext fallback for PDF inputs.
func (w *Worker) WithPDFFallback(on bool) *Worker {
	w.pdfFallback = on
	return w
}

// MaxTokens returns the chunk budget the worker merges to.
func (w *Worker) MaxTokens() int { return w.chunkCfg.MaxTokens }

// ChunkConfig returns a copy of the worker's chunking settings.
func (w *Worker) ChunkConfig() chunker.Config { return w.chunkCfg }

// Store returns the store the worker appends to.
func (w *Worker) Store() store.Store { return w.store }

// Prepare parses and chunks one document without touching the store.
func (w *Worker) Prepare(ctx context.Context, source string, data []byte) (*Prepared, error) {
	return w.prepare(ctx, source, data, w.chunkCfg, nil)
}

// PrepareWith is Prepare with chunking settings other than the worker's own.
func (w *Worker) PrepareWith(ctx context.Context, source string, data []byte, cfg chunker.Config) (*Prepared, error) {
	return w.prepare(ctx, source, data, cfg, nil)
}

func (w *Worker) prepare(ctx context.Context, source string, data []byte, cfg chunker.Config, phase func(JobStatus)) (*Prepared, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if phase != nil {
		phase(StatusParsing)
	}
	src, err := w.parse(source, data)
	if err != nil {
		return nil, err
	}
	doc := hierarchy.Parse(source, src.Lines)

	if phase != nil {
		phase(StatusChunking)
	}
	if cfg.Logger == nil {
		cfg.Logger = w.log
	}
	res, err := chunker.Chunk(doc, cfg)
	if err != nil {
		return nil, err
	}
	return &Prepared{Source: source, Doc: doc, Result: res}, nil
}

func (w *Worker) parse(source string, data []byte) (*parser.Source, error) {
	p, err := parser.ForFile(source)
	if err != nil {
		return nil, &InputError{Source: source, Err: err}
	}
	if pp, ok := p.(*parser.PDFParser); ok {
		pp.FallbackPdftotext = w.pdfFallback
	}
	src, err := p.Parse(bytes.NewReader(data), source)
	if err != nil {
		return nil, &InputError{Source: source, Err: err}
	}
	return src, nil
}

// Finish stores p, or records prepErr when preparation failed, and returns
// the document's Outcome.
func (w *Worker) Finish(ctx context.Context, source string, p *Prepared, prepErr error) Outcome {
	ctx, span := w.metrics.tracer.Start(ctx, "lexchunk.document",
		trace.WithAttributes(attribute.String("lexchunk.source", source)))
	defer span.End()
	start := time.Now()
	log := w.log.With("source", source)

	out := Outcome{Source: source}
	if prepErr != nil {
		out.fail(prepErr)
	} else {
		w.commit(ctx, p, &out)
	}

	span.SetAttributes(
		attribute.String("lexchunk.outcome", string(out.Status)),
		attribute.Int("lexchunk.chunks", out.Chunks),
	)
	if out.Err != nil {
		span.RecordError(out.Err)
		span.SetStatus(codes.Error, out.Err.Error())
	}
	w.metrics.record(ctx, out)

	switch out.Status {
	case OutcomeStored:
		log.Info("document stored", "chunks", out.Chunks, "first_id", out.FirstID, "last_id", out.LastID, "duration", time.Since(start))
	case OutcomeSkipped:
		log.Info("document already processed, skipping")
	default:
		log.Error("document failed", "kind", out.Kind, "error", out.Err)
	}
	return out
}

// Run prepares and stores one document.
func (w *Worker) Run(ctx context.Context, source string, data []byte) Outcome {
	p, err := w.Prepare(ctx, source, data)
	return w.Finish(ctx, source, p, err)
}

func (w *Worker) commit(ctx context.Context, p *Prepared, out *Outcome) {
	report := p.Result.Report
	out.Report = &report

	recs, err := w.appendWithRetry(ctx, store.MetaFor(p.Doc), p.Result.Chunks)
	switch {
	case errors.Is(err, store.ErrAlreadyProcessed):
		out.Status = OutcomeSkipped
	case err != nil:
		out.fail(fmt.Errorf("store %s: %w", p.Source, err))
	default:
		out.Status = OutcomeStored
		out.Chunks = len(recs)
		out.Tokens = make([]int, len(recs))
		for i, r := range recs {
			out.Tokens[i] = r.TokenCount
		}
		if len(recs) > 0 {
			out.FirstID = recs[0].ID
			out.LastID = recs[len(recs)-1].ID
		}
	}
}

func (w *Worker) appendWithRetry(ctx context.Context, meta store.DocumentMeta, chunks []doctree.FinalChunk) ([]store.Record, error) {
	var (
		recs []store.Record
		err  error
	)
	for attempt := range MaxRetries {
		recs, err = w.store.AppendDocument(ctx, meta, chunks)
		if err == nil || !IsRetryable(err) {
			break
		}
		w.log.Warn("retryable store error", "source", meta.Source, "attempt", attempt, "error", err)
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return recs, err
}

// Process runs the full pipeline for an async job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	p, err := w.prepare(ctx, job.Source, job.FileData(), w.chunkCfg, func(s JobStatus) {
		job.SetStatus(s, string(s))
	})
	if err == nil {
		job.SetReport(p.Doc.Title, p.Result.Report, len(p.Result.Chunks))
		job.SetStatus(StatusStoring, "storing")
	}

	out := w.Finish(ctx, job.Source, p, err)
	job.SetFileData(nil)

	switch out.Status {
	case OutcomeStored:
		job.SetIDs(out.FirstID, out.LastID)
		job.SetStatus(StatusCompleted, "done")
	case OutcomeSkipped:
		job.SetStatus(StatusSkipped, "already processed")
	default:
		job.AddError(out.Error)
		job.SetStatus(StatusFailed, string(out.Kind))
	}
}
