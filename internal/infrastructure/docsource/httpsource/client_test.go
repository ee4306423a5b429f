package httpsource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/biasharahub/docintel/internal/core/domain"
)

func newTestServer(t *testing.T) (*httptest.Server, *http.ServeMux) {
	t.Helper()
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, mux
}

func sessionHandler(t *testing.T, wantToken string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+wantToken {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		_, _ = w.Write([]byte(`{"session":"sess-123"}`))
	}
}

func TestAuthenticateExchangesAPIToken(t *testing.T) {
	server, mux := newTestServer(t)
	mux.HandleFunc("/v1/sessions", sessionHandler(t, "api-token"))

	client := New(server.URL, "api-token", Options{})
	if err := client.Authenticate(context.Background()); err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
}

func TestAuthenticateRejectedTokenIsAuthFailure(t *testing.T) {
	server, mux := newTestServer(t)
	mux.HandleFunc("/v1/sessions", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad token", http.StatusUnauthorized)
	})

	client := New(server.URL, "wrong", Options{})
	err := client.Authenticate(context.Background())
	if !domain.IsKind(err, domain.ErrAuthFailed) {
		t.Fatalf("err = %v, want auth failure kind", err)
	}
}

func TestAuthenticateEmptySessionIsAuthFailure(t *testing.T) {
	server, mux := newTestServer(t)
	mux.HandleFunc("/v1/sessions", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"session":""}`))
	})

	client := New(server.URL, "api-token", Options{})
	if err := client.Authenticate(context.Background()); !domain.IsKind(err, domain.ErrAuthFailed) {
		t.Fatalf("err = %v, want auth failure kind", err)
	}
}

func TestListDocumentsUsesSessionAndPaging(t *testing.T) {
	server, mux := newTestServer(t)
	mux.HandleFunc("/v1/sessions", sessionHandler(t, "api-token"))
	mux.HandleFunc("/v1/documents", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sess-123" {
			http.Error(w, "no session", http.StatusUnauthorized)
			return
		}
		if r.URL.Query().Get("page") != "2" || r.URL.Query().Get("page_size") != "25" {
			http.Error(w, "bad paging", http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"documents":[{"id":"doc-1","name":"a.pdf"}],"has_more":true}`))
	})

	client := New(server.URL, "api-token", Options{})
	if err := client.Authenticate(context.Background()); err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}

	refs, hasMore, err := client.ListDocuments(context.Background(), 2, 25)
	if err != nil {
		t.Fatalf("ListDocuments() error = %v", err)
	}
	if len(refs) != 1 || refs[0].ID != "doc-1" {
		t.Fatalf("refs = %v", refs)
	}
	if !hasMore {
		t.Error("hasMore = false, want true")
	}
}

func TestFetchText(t *testing.T) {
	server, mux := newTestServer(t)
	mux.HandleFunc("/v1/sessions", sessionHandler(t, "api-token"))
	mux.HandleFunc("/v1/documents/doc-1/text", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("Invoice #INV-001"))
	})

	client := New(server.URL, "api-token", Options{})
	if err := client.Authenticate(context.Background()); err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}

	text, err := client.FetchText(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("FetchText() error = %v", err)
	}
	if text != "Invoice #INV-001" {
		t.Errorf("text = %q", text)
	}
}

func TestFetchTextMissingDocument(t *testing.T) {
	server, mux := newTestServer(t)
	mux.HandleFunc("/v1/sessions", sessionHandler(t, "api-token"))
	mux.HandleFunc("/v1/documents/ghost/text", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	client := New(server.URL, "api-token", Options{})
	if err := client.Authenticate(context.Background()); err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}

	if _, err := client.FetchText(context.Background(), "ghost"); !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("err = %v, want document-not-found kind", err)
	}
}
