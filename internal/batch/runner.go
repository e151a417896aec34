// Package batch processes queued bill images one at a time, in submission
// order, and hands the resulting facts to a sink.
package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"billtools/internal/logger"
	"billtools/pkg/models"
)

// ErrCanceled is returned with the results completed before cancellation.
var ErrCanceled = errors.New("batch processing was canceled")

// StatusError marks a document that produced no fact.
const StatusError = "error"

// ImageExtensions are the file types picked up from a folder.
var ImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp", ".tif", ".tiff"}

// Processor turns one document into a fact. pipeline.Engine implements it.
type Processor interface {
	Process(ctx context.Context, doc models.RawDocument) (*models.ExtractedFact, error)
}

// Sink persists facts. Implementations decide how rows are laid out.
type Sink interface {
	Write(ctx context.Context, facts []*models.ExtractedFact) error
}

// Result is the outcome for one file.
type Result struct {
	Index    int
	Path     string
	FileName string
	Fact     *models.ExtractedFact
	Err      error
}

// Status returns the fact status, or StatusError when processing failed.
func (r Result) Status() string {
	if r.Err != nil || r.Fact == nil {
		return StatusError
	}
	return r.Fact.Status
}

// Progress is reported after every document.
type Progress struct {
	Done   int
	Total  int
	Result Result
}

// ProgressFunc receives batch progress.
type ProgressFunc func(Progress)

// Runner processes documents sequentially.
type Runner struct {
	processor Processor
	log       zerolog.Logger
}

// NewRunner creates a runner over processor.
func NewRunner(processor Processor) *Runner {
	return &Runner{
		processor: processor,
		log:       logger.WithComponent("batch"),
	}
}

// Run processes the files at paths in order for the given billing period.
// Per-file failures are recorded in the result and do not stop the batch.
// The context is checked before every file; on cancellation the completed
// results are returned together with ErrCanceled.
func (r *Runner) Run(ctx context.Context, paths []string, period models.BillingPeriod, progress ProgressFunc) ([]Result, error) {
	results := make([]Result, 0, len(paths))

	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			r.log.Warn().
				Int("completed", len(results)).
				Int("total", len(paths)).
				Msg("Batch canceled")
			return results, fmt.Errorf("%w: %d of %d documents completed", ErrCanceled, len(results), len(paths))
		}

		result := r.processFile(ctx, i, path, period)
		if result.Err != nil && ctx.Err() != nil {
			// The in-flight document was interrupted and is not part of the results.
			return results, fmt.Errorf("%w: %d of %d documents completed", ErrCanceled, len(results), len(paths))
		}
		results = append(results, result)

		if progress != nil {
			progress(Progress{Done: len(results), Total: len(paths), Result: result})
		}
	}

	accepted, _ := Partition(results)
	r.log.Info().
		Int("total", len(paths)).
		Int("accepted", len(accepted)).
		Int("errors", countErrors(results)).
		Msg("Batch processing completed")

	return results, nil
}

func (r *Runner) processFile(ctx context.Context, index int, path string, period models.BillingPeriod) Result {
	result := Result{Index: index, Path: path, FileName: filepath.Base(path)}

	image, err := os.ReadFile(path)
	if err != nil {
		result.Err = fmt.Errorf("failed to read image: %w", err)
		return result
	}

	fact, err := r.processor.Process(ctx, models.RawDocument{
		Name:   result.FileName,
		Image:  image,
		Period: period,
	})
	if err != nil {
		result.Err = err
		r.log.Debug().Str("file", result.FileName).Err(err).Msg("Document failed")
		return result
	}
	result.Fact = fact
	return result
}

// Partition splits the facts of results, in order, into accepted facts and
// facts that need review or are degraded. Failed documents carry no fact.
func Partition(results []Result) (accepted, review []*models.ExtractedFact) {
	for _, r := range results {
		switch {
		case r.Fact == nil:
		case r.Fact.Accepted():
			accepted = append(accepted, r.Fact)
		default:
			review = append(review, r.Fact)
		}
	}
	return accepted, review
}

// Summary counts results per status.
func Summary(results []Result) map[string]int {
	counts := make(map[string]int)
	for _, r := range results {
		counts[r.Status()]++
	}
	return counts
}

func countErrors(results []Result) int {
	return Summary(results)[StatusError]
}

// FindImages returns the image files directly inside folder, sorted by name.
func FindImages(folder string) ([]string, error) {
	info, err := os.Stat(folder)
	if err != nil {
		return nil, fmt.Errorf("folder not found: %s", folder)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", folder)
	}

	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, err
	}

	var images []string
	for _, entry := range entries {
		if entry.IsDir() || !IsImage(entry.Name()) {
			continue
		}
		images = append(images, filepath.Join(folder, entry.Name()))
	}
	sort.Strings(images)
	return images, nil
}

// IsImage reports whether name has one of ImageExtensions.
func IsImage(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range ImageExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
