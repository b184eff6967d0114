package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/japaniel/versegen/internal/config"
	"github.com/japaniel/versegen/pkg/corpus"
	"github.com/japaniel/versegen/pkg/db"
	"github.com/japaniel/versegen/pkg/model"
	"github.com/japaniel/versegen/pkg/store"
)

func newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [paths...]",
		Short: "Tokenize a corpus and store its adjacency model",
		Long: "Build reads corpus files, directories and URLs, extracts word pairs and stores the model under the corpus name. " +
			"With a SQL store an interrupted build resumes where it stopped.",
		RunE: runBuild,
	}
	cmd.Flags().Bool("watch", false, "rebuild when corpus files change")
	cmd.Flags().Bool("fresh", false, "discard stored pairs and progress first")
	return cmd
}

func runBuild(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		viper.Set("corpus_paths", args)
	}
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	fresh, _ := cmd.Flags().GetBool("fresh")
	m, err := a.build(ctx, fresh)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Built %q: %d pairs, %d words.\n", a.cfg.Corpus, m.Len(), len(m.Vocabulary()))

	watch, _ := cmd.Flags().GetBool("watch")
	if !watch {
		return nil
	}
	return a.watch(ctx)
}

// build ingests the corpus into the configured store. SQL stores get pairs
// written as they are produced, so progress survives interruption.
func (a *app) build(ctx context.Context, fresh bool) (*model.Model, error) {
	if a.cfg.Store == config.StoreRedis {
		m, err := a.buildInMemory(ctx)
		if err != nil {
			return nil, err
		}
		rs, err := store.NewRedisStore(a.cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		defer rs.Close()
		if err := rs.Save(ctx, a.cfg.Corpus, m); err != nil {
			return nil, fmt.Errorf("save model: %w", err)
		}
		return m, nil
	}

	docs, err := a.documents(ctx)
	if err != nil {
		return nil, err
	}
	corpusID, err := db.CreateOrGetCorpus(a.conn, a.cfg.Corpus)
	if err != nil {
		return nil, err
	}
	if fresh {
		if err := db.ResetCorpus(a.conn, corpusID); err != nil {
			return nil, fmt.Errorf("reset corpus: %w", err)
		}
	}
	ig, err := a.ingester(a.conn)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	ig.OnProgress = func(current, total int) {
		a.logger.Printf("Processed %d/%d documents", current, total)
	}
	n, err := ig.Ingest(ctx, corpusID, docs)
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}
	a.logger.Printf("Recorded %d new pairs in %v", n, time.Since(start).Round(time.Millisecond))
	return ig.Builder.Model(), nil
}

// watch rebuilds from scratch whenever a corpus file changes, until ctx ends.
func (a *app) watch(ctx context.Context) error {
	var dirs []string
	for _, p := range a.cfg.CorpusPaths {
		info, err := os.Stat(p)
		if err != nil {
			continue // URLs and vanished files are not watched
		}
		if info.IsDir() {
			dirs = append(dirs, p)
		} else {
			dirs = append(dirs, filepath.Dir(p))
		}
	}
	if len(dirs) == 0 {
		return fmt.Errorf("nothing to watch: no local corpus paths")
	}

	w, err := corpus.NewWatcher(dirs, 500*time.Millisecond)
	if err != nil {
		return fmt.Errorf("watch corpus: %w", err)
	}
	w.Start()
	defer w.Stop()

	fmt.Fprintf(a.out, "Watching %d directories for changes.\n", len(dirs))
	for {
		select {
		case <-ctx.Done():
			return nil
		case changed, ok := <-w.Changes:
			if !ok {
				return nil
			}
			a.logger.Printf("%d corpus files changed, rebuilding", len(changed))
			m, err := a.build(ctx, true)
			if err != nil {
				a.logger.Printf("rebuild failed: %v", err)
				continue
			}
			fmt.Fprintf(a.out, "Rebuilt %q: %d pairs.\n", a.cfg.Corpus, m.Len())
		}
	}
}
