package batch_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billtools/internal/batch"
	"billtools/pkg/models"
)

var period = models.BillingPeriod{Month: time.June, Year: 2024}

// processor records the order of calls and answers from the image content.
type processor struct {
	calls  []string
	cancel context.CancelFunc
	after  int
}

func (p *processor) Process(ctx context.Context, doc models.RawDocument) (*models.ExtractedFact, error) {
	p.calls = append(p.calls, doc.Name)
	if p.cancel != nil && len(p.calls) == p.after {
		p.cancel()
	}
	switch string(doc.Image) {
	case "fail":
		return nil, errors.New("unreadable")
	case "review":
		return &models.ExtractedFact{FileName: doc.Name, Status: models.StatusNeedsReview}, nil
	}
	return &models.ExtractedFact{FileName: doc.Name, Status: models.StatusExtracted, BillingPeriod: doc.Period.Timestamp()}, nil
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	return dir
}

func TestFindImages(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"c.PNG":     "ok",
		"a.jpg":     "ok",
		"b.jpeg":    "ok",
		"notes.txt": "skip",
	})
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.jpg"), 0o700))

	images, err := batch.FindImages(dir)
	require.NoError(t, err)
	require.Len(t, images, 3)
	assert.Equal(t, "a.jpg", filepath.Base(images[0]))
	assert.Equal(t, "b.jpeg", filepath.Base(images[1]))
	assert.Equal(t, "c.PNG", filepath.Base(images[2]))

	_, err = batch.FindImages(filepath.Join(dir, "missing"))
	assert.Error(t, err)
	_, err = batch.FindImages(images[0])
	assert.Error(t, err)
}

func TestRunIsSequentialAndKeepsOrder(t *testing.T) {
	dir := writeFiles(t, map[string]string{"1.jpg": "ok", "2.jpg": "fail", "3.jpg": "review"})
	paths, err := batch.FindImages(dir)
	require.NoError(t, err)

	p := &processor{}
	var done []int
	results, err := batch.NewRunner(p).Run(context.Background(), paths, period, func(pr batch.Progress) {
		done = append(done, pr.Done)
		assert.Equal(t, 3, pr.Total)
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"1.jpg", "2.jpg", "3.jpg"}, p.calls)
	assert.Equal(t, []int{1, 2, 3}, done)
	require.Len(t, results, 3)
	assert.Equal(t, models.StatusExtracted, results[0].Status())
	assert.Equal(t, batch.StatusError, results[1].Status())
	assert.Equal(t, models.StatusNeedsReview, results[2].Status())
	assert.Equal(t, period.Timestamp(), results[0].Fact.BillingPeriod)

	accepted, review := batch.Partition(results)
	require.Len(t, accepted, 1)
	assert.Equal(t, "1.jpg", accepted[0].FileName)
	require.Len(t, review, 1)
	assert.Equal(t, "3.jpg", review[0].FileName)

	assert.Equal(t, map[string]int{models.StatusExtracted: 1, batch.StatusError: 1, models.StatusNeedsReview: 1}, batch.Summary(results))
}

func TestRunMissingFile(t *testing.T) {
	results, err := batch.NewRunner(&processor{}).Run(context.Background(), []string{filepath.Join(t.TempDir(), "gone.jpg")}, period, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Error(t, results[0].Err)
}

func TestRunCanceledReturnsCompleted(t *testing.T) {
	dir := writeFiles(t, map[string]string{"1.jpg": "ok", "2.jpg": "ok", "3.jpg": "ok"})
	paths, err := batch.FindImages(dir)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p := &processor{cancel: cancel, after: 2}

	results, err := batch.NewRunner(p).Run(ctx, paths, period, nil)
	assert.ErrorIs(t, err, batch.ErrCanceled)
	assert.Len(t, results, 2, "documents finished before cancellation are kept")
	assert.Equal(t, []string{"1.jpg", "2.jpg"}, p.calls)
}
