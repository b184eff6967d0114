package corpus

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
)

// Document is one unit of corpus text. Adjacency never spans documents.
type Document struct {
	Name string
	Text string
}

// maxBodySize limits HTML fetched from untrusted URLs.
const maxBodySize = 10 * 1024 * 1024

// textExts are the plain-text file types Load reads; htmlExts go through
// article extraction first.
var (
	textExts = map[string]bool{".txt": true, ".md": true, ".text": true}
	htmlExts = map[string]bool{".html": true, ".htm": true, ".xhtml": true}
)

// Load reads every source in order. A source is an http(s) URL, a file or a
// directory (walked recursively, files in lexical order).
func Load(ctx context.Context, sources []string) ([]Document, error) {
	client := &http.Client{Timeout: 30 * time.Second}
	var docs []Document
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
			doc, err := Fetch(ctx, client, src)
			if err != nil {
				return nil, err
			}
			docs = append(docs, doc)
			continue
		}
		got, err := loadPath(src)
		if err != nil {
			return nil, err
		}
		docs = append(docs, got...)
	}
	return docs, nil
}

// IsCorpusFile reports whether Load would read the file at name.
func IsCorpusFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return textExts[ext] || htmlExts[ext]
}

func loadPath(path string) ([]Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		doc, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		return []Document{doc}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && IsCorpusFile(p) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	docs := make([]Document, 0, len(files))
	for _, f := range files {
		doc, err := loadFile(f)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func loadFile(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, err
	}
	if !htmlExts[strings.ToLower(filepath.Ext(path))] {
		return Document{Name: path, Text: string(data)}, nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return Document{}, err
	}
	doc, err := ExtractArticle(bytes.NewReader(data), &url.URL{Scheme: "file", Path: filepath.ToSlash(abs)})
	if err != nil {
		return Document{}, fmt.Errorf("extract %s: %w", path, err)
	}
	doc.Name = path
	return doc, nil
}

// ExtractArticle pulls the readable text out of an HTML page.
func ExtractArticle(r io.Reader, pageURL *url.URL) (Document, error) {
	article, err := readability.FromReader(r, pageURL)
	if err != nil {
		return Document{}, err
	}
	name := article.Title
	if name == "" && pageURL != nil {
		name = pageURL.String()
	}
	return Document{Name: name, Text: article.TextContent}, nil
}

// Fetch downloads an HTML page and extracts its article text.
func Fetch(ctx context.Context, client *http.Client, rawURL string) (Document, error) {
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return Document{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Document{}, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; versegen/0.1)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")

	resp, err := client.Do(req)
	if err != nil {
		return Document{}, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Document{}, fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}
	if resp.ContentLength > maxBodySize {
		return Document{}, fmt.Errorf("fetch %s: content length %d exceeds %d bytes", rawURL, resp.ContentLength, maxBodySize)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return Document{}, fmt.Errorf("read %s: %w", rawURL, err)
	}
	if len(body) > maxBodySize {
		return Document{}, fmt.Errorf("fetch %s: body exceeds %d bytes", rawURL, maxBodySize)
	}

	if strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain") {
		return Document{Name: rawURL, Text: string(body)}, nil
	}
	doc, err := ExtractArticle(bytes.NewReader(body), pageURL)
	if err != nil {
		return Document{}, fmt.Errorf("extract %s: %w", rawURL, err)
	}
	doc.Name = rawURL
	return doc, nil
}
