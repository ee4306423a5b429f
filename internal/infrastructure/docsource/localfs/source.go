// Package localfs implements the document-source port over a local
// directory of .txt and .pdf files, for offline and development runs.
package localfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/biasharahub/docintel/internal/core/domain"
)

type Source struct {
	root string
}

func New(root string) (*Source, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat documents dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("documents path is not a directory: %s", root)
	}
	return &Source{root: root}, nil
}

// Authenticate is a no-op; the local filesystem needs no session.
func (s *Source) Authenticate(context.Context) error { return nil }

func (s *Source) ListDocuments(_ context.Context, page, pageSize int) ([]domain.DocumentRef, bool, error) {
	if page < 1 || pageSize < 1 {
		return nil, false, domain.WrapError(domain.ErrInvalidInput, "list documents",
			fmt.Errorf("page=%d page_size=%d", page, pageSize))
	}

	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, false, fmt.Errorf("read documents dir: %w", err)
	}

	var refs []domain.DocumentRef
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".txt" && ext != ".pdf" {
			continue
		}
		ref := domain.DocumentRef{ID: entry.Name(), Name: entry.Name()}
		if info, err := entry.Info(); err == nil {
			ref.Created = info.ModTime()
		}
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].ID < refs[j].ID })

	start := (page - 1) * pageSize
	if start >= len(refs) {
		return nil, false, nil
	}
	end := start + pageSize
	if end > len(refs) {
		end = len(refs)
	}
	return refs[start:end], end < len(refs), nil
}

func (s *Source) FetchText(_ context.Context, documentID string) (string, error) {
	if filepath.Base(documentID) != documentID {
		return "", domain.WrapError(domain.ErrInvalidInput, "fetch text",
			fmt.Errorf("document id escapes source dir: %s", documentID))
	}
	path := filepath.Join(s.root, documentID)

	if strings.EqualFold(filepath.Ext(documentID), ".pdf") {
		return extractPDFText(path)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", domain.WrapError(domain.ErrDocumentNotFound, "fetch text", err)
		}
		return "", fmt.Errorf("read document: %w", err)
	}
	return string(raw), nil
}

func extractPDFText(path string) (string, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", domain.WrapError(domain.ErrDocumentNotFound, "fetch text", err)
		}
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer file.Close()

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	text, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return string(text), nil
}
