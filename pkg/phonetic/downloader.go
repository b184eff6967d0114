package phonetic

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// DictionaryURL is where EnsureDictionary fetches the CMU dictionary from.
var DictionaryURL = "https://raw.githubusercontent.com/cmusphinx/cmudict/master/cmudict.dict"

// maxDictSize bounds the download; the real file is about 3.5 MB.
const maxDictSize = 64 * 1024 * 1024

// EnsureDictionary checks if the dictionary exists at path.
// If not, it downloads it from DictionaryURL, reporting to logger when
// logger is non-nil.
func EnsureDictionary(ctx context.Context, path string, logger *log.Logger) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}

	if logger != nil {
		logger.Printf("dictionary not found at %s, downloading from %s", path, DictionaryURL)
	}
	return download(ctx, DictionaryURL, path)
}

func download(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "versegen-cli")

	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed: %s", resp.Status)
	}

	// Write to a temp file in the target directory so a partial download
	// never leaves a truncated dictionary behind.
	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".cmudict-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, io.LimitReader(resp.Body, maxDictSize+1))
	if err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write dictionary: %w", err)
	}
	if n > maxDictSize {
		tmp.Close()
		return fmt.Errorf("dictionary exceeds %d bytes", maxDictSize)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), destPath)
}
