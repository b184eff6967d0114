package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"time"

	"github.com/spf13/cobra"

	"github.com/japaniel/versegen/internal/config"
	"github.com/japaniel/versegen/pkg/corpus"
	"github.com/japaniel/versegen/pkg/db"
	"github.com/japaniel/versegen/pkg/ingest"
	"github.com/japaniel/versegen/pkg/lexicon"
	"github.com/japaniel/versegen/pkg/meter"
	"github.com/japaniel/versegen/pkg/model"
	"github.com/japaniel/versegen/pkg/phonetic"
	"github.com/japaniel/versegen/pkg/rhyme"
	"github.com/japaniel/versegen/pkg/search"
	"github.com/japaniel/versegen/pkg/store"
	"github.com/japaniel/versegen/pkg/verse"
)

// app carries what every command needs: resolved config, the SQL
// connection and a logger.
type app struct {
	cfg    config.Config
	conn   *sql.DB
	logger *log.Logger
	out    io.Writer
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	conn, err := store.OpenSQL(cfg.DB)
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:    cfg,
		conn:   conn,
		logger: log.New(cmd.ErrOrStderr(), "versegen: ", log.LstdFlags),
		out:    cmd.OutOrStdout(),
	}, nil
}

func (a *app) Close() {
	if err := a.conn.Close(); err != nil {
		a.logger.Printf("error closing database: %v", err)
	}
}

// modelStore returns the configured store. The SQL stores share a.conn.
func (a *app) modelStore() (store.ModelStore, error) {
	if a.cfg.Store == config.StoreRedis {
		return store.NewRedisStore(a.cfg.RedisURL)
	}
	return store.NewSQLStore(a.conn), nil
}

// oracle prefers pronunciations imported into the database and falls back
// to the dictionary file, downloading it when missing.
func (a *app) oracle(ctx context.Context) (phonetic.Oracle, error) {
	n, err := db.CountPronunciations(a.conn)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		o := db.NewOracle(a.conn)
		o.Logger = a.logger
		return o, nil
	}
	if err := phonetic.EnsureDictionary(ctx, a.cfg.Dict, a.logger); err != nil {
		return nil, fmt.Errorf("ensure dictionary: %w", err)
	}
	return phonetic.Load(a.cfg.Dict)
}

func (a *app) documents(ctx context.Context) ([]corpus.Document, error) {
	if len(a.cfg.CorpusPaths) == 0 {
		return nil, errors.New("no corpus paths configured; pass --corpus-paths or set corpus_paths")
	}
	docs, err := corpus.Load(ctx, a.cfg.CorpusPaths)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	if len(docs) == 0 {
		return nil, errors.New("corpus paths contain no readable documents")
	}
	return docs, nil
}

func (a *app) ingester(conn *sql.DB) (*ingest.Ingester, error) {
	tok, err := corpus.NewTokenizer()
	if err != nil {
		return nil, fmt.Errorf("create tokenizer: %w", err)
	}
	ig := ingest.NewIngester(conn, tok)
	ig.Workers = a.cfg.Workers
	ig.BatchSize = a.cfg.BatchSize
	ig.Logger = a.logger
	return ig, nil
}

// buildInMemory tokenizes the corpus without touching the database.
func (a *app) buildInMemory(ctx context.Context) (*model.Model, error) {
	docs, err := a.documents(ctx)
	if err != nil {
		return nil, err
	}
	ig, err := a.ingester(nil)
	if err != nil {
		return nil, err
	}
	if _, err := ig.Ingest(ctx, 0, docs); err != nil {
		return nil, err
	}
	return ig.Builder.Model(), nil
}

func (a *app) loadModel(ctx context.Context) (*model.Model, error) {
	ms, err := a.modelStore()
	if err != nil {
		return nil, err
	}
	if rs, ok := ms.(*store.RedisStore); ok {
		defer rs.Close()
	}
	return store.LoadOrBuild(ctx, ms, a.cfg.Corpus, a.buildInMemory, a.logger)
}

// newRand seeds shuffling and seed picks from the config, or the clock.
func (a *app) newRand() *rand.Rand {
	seed := a.cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return search.NewRand(seed)
}

// searcher wires the model, the pronunciation oracle and the configured
// strategy into a line searcher.
func (a *app) searcher(ctx context.Context, m *model.Model, rnd search.Shuffler) (*search.Searcher, *rhyme.Index, error) {
	o, err := a.oracle(ctx)
	if err != nil {
		return nil, nil, err
	}
	strategy, err := search.ParseStrategy(a.cfg.Strategy)
	if err != nil {
		return nil, nil, err
	}
	ix := rhyme.NewIndex(o)
	s := search.New(m, meter.NewMatcher(lexicon.New(o)), ix, rnd)
	s.Strategy = strategy
	if a.cfg.Verbose {
		s.Logger = a.logger
		s.Trace = func(depth int, w verse.Word) {
			a.logger.Printf("%*s%s", depth*2, "", w)
		}
	}
	return s, ix, nil
}
