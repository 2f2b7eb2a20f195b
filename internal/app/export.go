package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
)

// QuotePDFSource is satisfied by DocumentService.
type QuotePDFSource interface {
	QuotePDF(ctx context.Context, quoteID string) (string, []byte, error)
}

type ExportFailure struct {
	QuoteID string
	Err     error
}

type ExportReport struct {
	Written  []string
	Failures []ExportFailure
}

// ExportQuotePDFs renders each quote and hands the bytes to write, running at
// most workers renders at once. One failure does not stop the others.
// Written holds filenames in completion order.
func ExportQuotePDFs(ctx context.Context, src QuotePDFSource, ids []string, workers int,
	write func(filename string, pdf []byte) error) (ExportReport, error) {
	if workers < 1 {
		workers = 1
	}
	sem := semaphore.NewWeighted(int64(workers))

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		rep ExportReport
	)
	fail := func(id string, err error) {
		log.Warn().Err(err).Str("quote_id", id).Msg("quote export failed")
		mu.Lock()
		rep.Failures = append(rep.Failures, ExportFailure{QuoteID: id, Err: err})
		mu.Unlock()
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return rep, err
		}
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return rep, err
		}
		wg.Add(1)
		go func(quoteID string) {
			defer wg.Done()
			defer sem.Release(1)

			name, pdf, err := src.QuotePDF(ctx, quoteID)
			if err != nil {
				fail(quoteID, err)
				return
			}
			if err := write(name, pdf); err != nil {
				fail(quoteID, err)
				return
			}
			log.Info().Str("quote_id", quoteID).Str("file", name).Int("bytes", len(pdf)).Msg("quote exported")
			mu.Lock()
			rep.Written = append(rep.Written, name)
			mu.Unlock()
		}(id)
	}
	wg.Wait()
	return rep, nil
}
