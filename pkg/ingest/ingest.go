// Package ingest turns corpus documents into adjacency pairs. Documents are
// tokenized concurrently but their pairs are recorded strictly in document
// order, and progress is checkpointed so an interrupted build resumes where
// it stopped.
package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/japaniel/versegen/pkg/corpus"
	"github.com/japaniel/versegen/pkg/db"
	"github.com/japaniel/versegen/pkg/model"
)

// WorkerPoolInterface abstracts the worker pool so tests can inject failing implementations.
type WorkerPoolInterface interface {
	Start(ctx context.Context)
	Submit(Job) error
	// SubmitCtx attempts to enqueue a job but returns promptly if ctx is canceled.
	SubmitCtx(ctx context.Context, job Job) error
	Close()
}

// Tokenizer splits document text into words.
type Tokenizer interface {
	Tokenize(text string) []string
}

// Ingester builds a model from documents, optionally persisting pairs and
// progress to the database.
type Ingester struct {
	// DB receives pairs and checkpoints. nil keeps everything in memory.
	DB        *sql.DB
	Tokenizer Tokenizer
	// Builder accumulates pairs in document order.
	Builder   *model.Builder
	BatchSize int
	// Logger is used for informational messages (e.g. resume status). nil means no logging.
	Logger *log.Logger
	// OnProgress is called periodically with the number of processed documents and total documents.
	OnProgress func(current, total int)

	// Concurrency settings
	Workers int

	// PoolFactory allows tests to inject custom worker pool implementations.
	PoolFactory func(workers, queue int) WorkerPoolInterface
}

// NewIngester creates a new Ingester.
func NewIngester(conn *sql.DB, tok Tokenizer) *Ingester {
	return &Ingester{
		DB:        conn,
		Tokenizer: tok,
		Builder:   &model.Builder{},
		BatchSize: 50,
		Workers:   4,
	}
}

// processedDocument holds the pairs of one document before they are recorded.
type processedDocument struct {
	Index int
	Name  string
	Pairs []model.Pair
}

// Ingest tokenizes docs and records their pairs. With a database it resumes
// after the last checkpointed document of corpusID, reloading earlier pairs
// into the Builder, and marks the corpus complete on success. It returns the
// number of pairs recorded by this call.
func (ig *Ingester) Ingest(ctx context.Context, corpusID int64, docs []corpus.Document) (int, error) {
	if ig.Tokenizer == nil {
		return 0, fmt.Errorf("ingest: tokenizer is required")
	}
	if ig.Builder == nil {
		ig.Builder = &model.Builder{}
	}
	if ig.BatchSize <= 0 {
		ig.BatchSize = 50
	}

	lastProcessed := -1
	var nextSeq int64
	if ig.DB != nil {
		var err error
		if lastProcessed, nextSeq, err = ig.resume(corpusID); err != nil {
			return 0, err
		}
	}

	total := len(docs)
	startIdx := lastProcessed + 1
	if startIdx >= total {
		return 0, ig.finish(corpusID)
	}

	var wp WorkerPoolInterface
	if ig.PoolFactory != nil {
		wp = ig.PoolFactory(ig.Workers, ig.Workers*2)
	} else {
		wp = NewWorkerPool(ig.Workers, ig.Workers*2)
	}
	resultCh := make(chan processedDocument, ig.Workers*2)
	doneCh := make(chan error, 1)

	var recorded int64

	var bw *BatchWriter
	var batchErr error
	var batchErrMu sync.Mutex
	if ig.DB != nil {
		bw = NewBatchWriter(ig.DB, ig.BatchSize, 100*time.Millisecond)
		bw.OnError = func(e error) {
			batchErrMu.Lock()
			if batchErr == nil {
				batchErr = e
			}
			batchErrMu.Unlock()
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	wp.Start(ctx)

	// record hands one document's pairs to the builder and the batch writer.
	record := func(item processedDocument) error {
		ig.Builder.AddPairs(item.Pairs)
		atomic.AddInt64(&recorded, int64(len(item.Pairs)))
		if bw == nil {
			return nil
		}
		seq := nextSeq
		nextSeq += int64(len(item.Pairs))
		return bw.Submit(func(ctx context.Context, tx *sql.Tx) error {
			if err := db.AppendPairs(tx, corpusID, seq, item.Pairs); err != nil {
				return fmt.Errorf("failed to persist %s: %w", item.Name, err)
			}
			if err := db.UpdateCorpusProgress(tx, corpusID, item.Index); err != nil {
				return fmt.Errorf("failed to save progress: %w", err)
			}
			return nil
		})
	}

	go func() {
		defer close(doneCh)
		buffer := make(map[int]processedDocument)
		nextIdx := startIdx

		flushContiguous := func() error {
			for {
				item, ok := buffer[nextIdx]
				if !ok {
					return nil
				}
				delete(buffer, nextIdx)
				if err := record(item); err != nil {
					return err
				}
				if ig.OnProgress != nil && (nextIdx+1)%ig.BatchSize == 0 {
					ig.OnProgress(nextIdx+1, total)
				}
				nextIdx++
			}
		}

		for {
			select {
			case <-ctx.Done():
				doneCh <- ctx.Err()
				return
			default:
			}

			res, ok := <-resultCh
			if !ok {
				if err := flushContiguous(); err != nil {
					cancel()
					doneCh <- err
					return
				}
				if nextIdx < total {
					if err := ctx.Err(); err != nil {
						doneCh <- err
						return
					}
					doneCh <- fmt.Errorf("ingest stopped at document %d of %d", nextIdx, total)
					return
				}
				if ig.OnProgress != nil {
					ig.OnProgress(total, total)
				}
				doneCh <- nil
				return
			}

			buffer[res.Index] = res
			if err := flushContiguous(); err != nil {
				// Signal producers to stop to prevent them from blocking on resultCh.
				cancel()
				doneCh <- err
				return
			}
		}
	}()

	if startIdx > 0 && ig.Logger != nil {
		ig.Logger.Printf("Resuming from document %d (skipping %d documents)", startIdx, startIdx)
	}

	var submitErr error
Loop:
	for i := startIdx; i < total; i++ {
		select {
		case <-ctx.Done():
			break Loop
		default:
		}

		idx := i
		doc := docs[i]
		job := func(ctx context.Context) error {
			res := processedDocument{
				Index: idx,
				Name:  doc.Name,
				Pairs: model.PairsOf(ig.Tokenizer.Tokenize(doc.Text)),
			}
			select {
			case resultCh <- res:
			case <-ctx.Done():
			}
			return nil
		}

		if err := wp.SubmitCtx(ctx, job); err != nil {
			if err != ctx.Err() && err != ErrPoolClosed {
				submitErr = err
				cancel()
			}
			break Loop
		}
	}

	// No more workers may send once the pool is closed.
	wp.Close()
	close(resultCh)

	consumerErr := <-doneCh
	if submitErr != nil {
		consumerErr = submitErr
	}

	if bw != nil {
		if err := bw.Close(); err != nil && consumerErr == nil {
			consumerErr = err
		}
	}

	batchErrMu.Lock()
	if batchErr != nil && consumerErr == nil {
		consumerErr = batchErr
	}
	batchErrMu.Unlock()

	if consumerErr == nil {
		consumerErr = ig.finish(corpusID)
	}
	return int(atomic.LoadInt64(&recorded)), consumerErr
}

// resume loads the checkpoint and the pairs recorded before it.
func (ig *Ingester) resume(corpusID int64) (int, int64, error) {
	lastProcessed, err := db.GetCorpusProgress(ig.DB, corpusID)
	if err != nil {
		return 0, 0, fmt.Errorf("read progress: %w", err)
	}
	if lastProcessed < 0 {
		return -1, 0, nil
	}
	pairs, err := db.LoadPairs(ig.DB, corpusID)
	if err != nil {
		return 0, 0, fmt.Errorf("reload pairs: %w", err)
	}
	ig.Builder.AddPairs(pairs)
	next, err := db.NextPairSeq(ig.DB, corpusID)
	if err != nil {
		return 0, 0, err
	}
	return lastProcessed, next, nil
}

func (ig *Ingester) finish(corpusID int64) error {
	if ig.DB == nil {
		return nil
	}
	if err := db.MarkCorpusComplete(ig.DB, corpusID); err != nil {
		return fmt.Errorf("mark corpus complete: %w", err)
	}
	return nil
}
