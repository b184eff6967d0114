package corpus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode"
)

func lettersOnly(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r < unicode.MaxASCII && unicode.IsLetter(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func TestTokenizeKeepsLowercaseWords(t *testing.T) {
	tz, err := NewTokenizer()
	if err != nil {
		t.Fatalf("tokenizer: %v", err)
	}
	text := "Shall I compare thee to a Summer's day? 18 lines, 2 stanzas."
	tokens := tz.Tokenize(text)
	if len(tokens) == 0 {
		t.Fatal("no tokens")
	}
	for _, tok := range tokens {
		if tok != strings.ToLower(tok) || !isAlpha(tok) {
			t.Errorf("token %q is not lowercase alphabetic", tok)
		}
	}
	if got, want := strings.Join(tokens, ""), lettersOnly(text); got != want {
		t.Errorf("tokens lost letters: got %q want %q", got, want)
	}
	if tokens[0] != "shall" {
		t.Errorf("first token = %q", tokens[0])
	}
}

func TestTokenizeDropsOtherScripts(t *testing.T) {
	tz, err := NewTokenizer()
	if err != nil {
		t.Fatalf("tokenizer: %v", err)
	}
	tokens := tz.Tokenize("日本語のテキスト and verse")
	if got := strings.Join(tokens, ""); got != "andverse" {
		t.Errorf("unexpected tokens %v", tokens)
	}
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "b.txt"), []byte("second document"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("first document"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "skip.bin"), []byte{0, 1, 2}, 0644); err != nil {
		t.Fatal(err)
	}
	html, err := os.ReadFile("testdata/article.html")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "c.html"), html, 0644); err != nil {
		t.Fatal(err)
	}

	docs, err := Load(context.Background(), []string{dir})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("expected 3 documents, got %d", len(docs))
	}
	if docs[0].Text != "first document" || docs[1].Text != "second document" {
		t.Errorf("documents out of order: %+v", docs[:2])
	}
	if !strings.Contains(docs[2].Text, "darling buds") {
		t.Errorf("article text missing: %q", docs[2].Text)
	}
}

func TestFetchExtractsArticle(t *testing.T) {
	body, err := os.ReadFile("testdata/article.html")
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(body)
	}))
	defer srv.Close()

	docs, err := Load(context.Background(), []string{srv.URL + "/sonnet"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	if !strings.Contains(docs[0].Text, "eternal summer") {
		t.Errorf("expected article text, got %q", docs[0].Text)
	}
}

func TestFetchStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	if _, err := Load(context.Background(), []string{srv.URL}); err == nil {
		t.Fatal("expected error for 403")
	}
}

func TestWatcherReportsChanges(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher([]string{dir}, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("watcher: %v", err)
	}
	w.Start()
	defer w.Stop()

	path := filepath.Join(dir, "new.txt")
	if err := os.WriteFile(path, []byte("fresh words"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "ignored.bin"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case files := <-w.Changes:
		if len(files) != 1 || files[0] != path {
			t.Fatalf("unexpected changes %v", files)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no change reported")
	}
}
