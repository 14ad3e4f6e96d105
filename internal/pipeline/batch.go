package pipeline

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/lexchunk/internal/parser"
)

// TokenStats summarises the chunks stored by one batch.
type TokenStats struct {
	Avg         float64 `json:"avg"`
	Max         int     `json:"max"`
	Utilisation float64 `json:"utilisation"` // Avg / budget
}

// FileError is one failed document in a batch.
type FileError struct {
	Source string      `json:"source"`
	Kind   FailureKind `json:"kind"`
	Error  string      `json:"error"`
}

// Summary aggregates the outcomes of a batch run.
type Summary struct {
	Total             int         `json:"total"`
	Skipped           int         `json:"skipped"`
	Succeeded         int         `json:"succeeded"`
	Failed            int         `json:"failed"`
	IntegrityFailures int         `json:"integrity_failures"`
	InputFailures     int         `json:"input_failures"`
	IOFailures        int         `json:"io_failures"`
	NewChunks         int         `json:"new_chunks"`
	FirstID           int64       `json:"first_id,omitempty"`
	LastID            int64       `json:"last_id,omitempty"`
	TokenStats        TokenStats  `json:"token_stats"`
	Errors            []FileError `json:"errors,omitempty"`
	Outcomes          []Outcome   `json:"outcomes"`

	tokenSum int64
}

func (s *Summary) add(o Outcome, budget int) {
	s.Outcomes = append(s.Outcomes, o)
	switch o.Status {
	case OutcomeSkipped:
		s.Skipped++
		return
	case OutcomeFailed:
		s.Failed++
		switch o.Kind {
		case KindIntegrity:
			s.IntegrityFailures++
		case KindInput:
			s.InputFailures++
		default:
			s.IOFailures++
		}
		s.Errors = append(s.Errors, FileError{Source: o.Source, Kind: o.Kind, Error: o.Error})
		return
	}

	s.Succeeded++
	s.NewChunks += o.Chunks
	if o.Chunks > 0 {
		if s.FirstID == 0 {
			s.FirstID = o.FirstID
		}
		s.LastID = o.LastID
	}
	for _, t := range o.Tokens {
		s.tokenSum += int64(t)
		s.TokenStats.Max = max(s.TokenStats.Max, t)
	}
	if s.NewChunks > 0 {
		s.TokenStats.Avg = float64(s.tokenSum) / float64(s.NewChunks)
		if budget > 0 {
			s.TokenStats.Utilisation = s.TokenStats.Avg / float64(budget)
		}
	}
}

// Discover returns the supported files under dir as sorted, slash-separated
// paths relative to dir. These paths are the documents' source identifiers.
func Discover(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !parser.IsSupportedExtension(path) {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

type prepared struct {
	p   *Prepared
	err error
}

// RunBatch processes every new document under dir. Documents are parsed and
// chunked concurrently on up to workers goroutines but appended in discovery
// order, so chunk IDs follow file order. A failed document never affects the
// others; the returned error is only set when the batch itself could not run.
func RunBatch(ctx context.Context, w *Worker, dir string, workers int) (*Summary, error) {
	files, err := Discover(dir)
	if err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = 1
	}

	sum := &Summary{Total: len(files), Outcomes: make([]Outcome, 0, len(files))}
	var pending []string
	for _, f := range files {
		done, err := w.Store().IsProcessed(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("check %s: %w", f, err)
		}
		if done {
			sum.add(Outcome{Source: f, Status: OutcomeSkipped}, w.MaxTokens())
			continue
		}
		pending = append(pending, f)
	}
	w.log.Info("batch discovered", "dir", dir, "files", len(files), "pending", len(pending))

	results := make([]prepared, len(pending))
	ready := make([]chan struct{}, len(pending))
	for i := range ready {
		ready[i] = make(chan struct{})
	}

	var g errgroup.Group
	g.SetLimit(workers)
	launched := make(chan struct{})
	go func() {
		defer close(launched)
		for i, src := range pending {
			g.Go(func() error {
				defer close(ready[i])
				data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(src)))
				if err != nil {
					results[i] = prepared{err: fmt.Errorf("read %s: %w", src, err)}
					return nil
				}
				p, err := w.Prepare(ctx, src, data)
				results[i] = prepared{p: p, err: err}
				return nil
			})
		}
	}()

	for i, src := range pending {
		<-ready[i]
		r := results[i]
		results[i] = prepared{}
		sum.add(w.Finish(ctx, src, r.p, r.err), w.MaxTokens())
	}
	<-launched
	if err := g.Wait(); err != nil {
		return sum, err
	}
	return sum, ctx.Err()
}
