package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/japaniel/versegen/pkg/corpus"
	"github.com/japaniel/versegen/pkg/db"
	"github.com/japaniel/versegen/pkg/model"
)

// fieldsTokenizer splits on whitespace so tests do not depend on the
// segmentation dictionary.
type fieldsTokenizer struct{}

func (fieldsTokenizer) Tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

func setupDB(t *testing.T) *sql.DB {
	conn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	conn.SetMaxOpenConns(1)
	if err := db.InitDB(conn); err != nil {
		t.Fatalf("failed to init db: %v", err)
	}
	return conn
}

// makeDocs returns n three-word documents with distinct words.
func makeDocs(n int) []corpus.Document {
	docs := make([]corpus.Document, n)
	for i := range docs {
		docs[i] = corpus.Document{
			Name: fmt.Sprintf("doc%d", i),
			Text: fmt.Sprintf("a%d b%d c%d", i, i, i),
		}
	}
	return docs
}

func expectedPairs(from, to int) []model.Pair {
	var out []model.Pair
	for i := from; i < to; i++ {
		out = append(out,
			model.Pair{Prev: fmt.Sprintf("a%d", i), Next: fmt.Sprintf("b%d", i)},
			model.Pair{Prev: fmt.Sprintf("b%d", i), Next: fmt.Sprintf("c%d", i)},
		)
	}
	return out
}

func assertPairs(t *testing.T, want, got []model.Pair) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("expected %d pairs, got %d", len(want), len(got))
	}
	for i := range want {
		if want[i] != got[i] {
			t.Fatalf("pair %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestIngestInMemoryKeepsDocumentOrder(t *testing.T) {
	ingester := NewIngester(nil, fieldsTokenizer{})
	ingester.Workers = 8

	count, err := ingester.Ingest(context.Background(), 0, makeDocs(50))
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if count != 100 {
		t.Errorf("Expected 100 pairs, got %d", count)
	}
	m := ingester.Builder.Model()
	assertPairs(t, expectedPairs(0, 50), m.Pairs())

	// c0 ends its document, so it has no follower.
	if m.Forward().Contains("c0") {
		t.Errorf("pairs must not span documents")
	}
}

func TestIngestReportsProgress(t *testing.T) {
	ingester := NewIngester(nil, fieldsTokenizer{})
	ingester.BatchSize = 5
	var calls [][2]int
	ingester.OnProgress = func(current, total int) {
		calls = append(calls, [2]int{current, total})
	}
	if _, err := ingester.Ingest(context.Background(), 0, makeDocs(10)); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	last := calls[len(calls)-1]
	if last != [2]int{10, 10} {
		t.Errorf("expected final progress 10/10, got %v", last)
	}
}

func TestIngestResume(t *testing.T) {
	conn := setupDB(t)
	defer conn.Close()

	corpusID, err := db.CreateOrGetCorpus(conn, "test")
	if err != nil {
		t.Fatal(err)
	}

	// Documents 0..4 were recorded by an earlier, interrupted run.
	if err := db.AppendPairs(conn, corpusID, 0, expectedPairs(0, 5)); err != nil {
		t.Fatal(err)
	}
	if err := db.UpdateCorpusProgress(conn, corpusID, 4); err != nil {
		t.Fatal(err)
	}

	ingester := NewIngester(conn, fieldsTokenizer{})
	ingester.BatchSize = 2 // Verify batching doesn't interfere

	count, err := ingester.Ingest(context.Background(), corpusID, makeDocs(10))
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	// Documents 5..9 contribute two pairs each.
	if count != 10 {
		t.Errorf("Expected 10 recorded pairs, got %d", count)
	}
	assertPairs(t, expectedPairs(0, 10), ingester.Builder.Model().Pairs())

	stored, err := db.LoadPairs(conn, corpusID)
	if err != nil {
		t.Fatal(err)
	}
	assertPairs(t, expectedPairs(0, 10), stored)

	c, err := db.GetCorpus(conn, "test")
	if err != nil {
		t.Fatal(err)
	}
	if !c.Complete || c.LastProcessedDocument != 9 || c.PairCount != 20 {
		t.Errorf("unexpected corpus state: %+v", c)
	}
}

func TestIngestNothingLeftMarksComplete(t *testing.T) {
	conn := setupDB(t)
	defer conn.Close()
	corpusID, _ := db.CreateOrGetCorpus(conn, "done")
	if err := db.UpdateCorpusProgress(conn, corpusID, 2); err != nil {
		t.Fatal(err)
	}

	count, err := NewIngester(conn, fieldsTokenizer{}).Ingest(context.Background(), corpusID, makeDocs(3))
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected nothing recorded, got %d", count)
	}
	c, _ := db.GetCorpus(conn, "done")
	if !c.Complete {
		t.Errorf("expected corpus to be marked complete")
	}
}

func TestIngestContextCancel(t *testing.T) {
	conn := setupDB(t)
	defer conn.Close()
	corpusID, _ := db.CreateOrGetCorpus(conn, "test2")

	ingester := NewIngester(conn, fieldsTokenizer{})
	ingester.BatchSize = 10

	// Create a context that is ALREADY canceled
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	count, err := ingester.Ingest(ctx, corpusID, makeDocs(100))
	if count != 0 {
		t.Errorf("Expected 0 pairs with cancelled context, got %d", count)
	}
	if err != context.Canceled {
		t.Errorf("Expected context.Canceled error, got %v", err)
	}
	c, _ := db.GetCorpus(conn, "test2")
	if c.Complete {
		t.Errorf("canceled ingest must not mark the corpus complete")
	}
}

func TestIngestRequiresTokenizer(t *testing.T) {
	if _, err := NewIngester(nil, nil).Ingest(context.Background(), 0, makeDocs(1)); err == nil {
		t.Fatal("expected error without tokenizer")
	}
}
