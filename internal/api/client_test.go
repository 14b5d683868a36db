package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		handler  http.HandlerFunc
		wantKind Kind
	}{
		{
			name: "non-2xx status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantKind: KindServerError,
		},
		{
			name: "error field in 2xx payload",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"error":"invalid credentials"}`))
			},
			wantKind: KindApplication,
		},
		{
			name: "garbage payload",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`not json`))
			},
			wantKind: KindServerError,
		},
		{
			name: "missing user_id",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{}`))
			},
			wantKind: KindServerError,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			client := New(srv.URL, nil)
			_, cerr := client.Login(context.Background(), "a@b.com", "x")
			require.NotNil(t, cerr)
			assert.Equal(t, tt.wantKind, cerr.Kind)
		})
	}
}

func TestLoginUnreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // refuse connections from here on

	client := New(srv.URL, nil)
	_, cerr := client.Login(context.Background(), "a@b.com", "x")
	require.NotNil(t, cerr)
	assert.Equal(t, KindUnreachable, cerr.Kind)
}

func TestLoginSuccess(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"email":"a@b.com","password":"x"}`, string(body))
		w.Write([]byte(`{"user_id":"u1"}`))
	}))
	defer srv.Close()

	client := New(srv.URL, nil)
	userID, cerr := client.Login(context.Background(), "a@b.com", "x")
	require.Nil(t, cerr)
	assert.Equal(t, "u1", userID)
}

func TestRegisterSendsName(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/register", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"email":"a@b.com","password":"x","name":"Ada"}`, string(body))
		w.Write([]byte(`{"user_id":"u2"}`))
	}))
	defer srv.Close()

	client := New(srv.URL, nil)
	userID, cerr := client.Register(context.Background(), "a@b.com", "x", "Ada")
	require.Nil(t, cerr)
	assert.Equal(t, "u2", userID)
}

func TestHealth(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	client := New(srv.URL, nil)
	status, cerr := client.Health(context.Background())
	require.Nil(t, cerr)
	assert.Equal(t, "ok", status)
}

func TestUploadMultipartAndProgress(t *testing.T) {
	t.Parallel()

	content := strings.Repeat("quilldeck\n", 20_000) // ~200 KB

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(10<<20))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "notes.txt", header.Filename)
		got, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, content, string(got))
		w.Write([]byte(`{"document_id":"d1"}`))
	}))
	defer srv.Close()

	var reported []int
	client := New(srv.URL, nil)
	id, cerr := client.Upload(context.Background(), "notes.txt", strings.NewReader(content), int64(len(content)), func(p int) {
		reported = append(reported, p)
	})
	require.Nil(t, cerr)
	assert.Equal(t, "d1", id)

	require.NotEmpty(t, reported)
	prev := -1
	for _, p := range reported {
		assert.Greater(t, p, prev, "progress must be strictly increasing")
		assert.LessOrEqual(t, p, 99, "progress may not reach 100 before the server confirms")
		prev = p
	}
}

func TestUploadServerRejection(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		w.Write([]byte(`{"error":"file too large"}`))
	}))
	defer srv.Close()

	client := New(srv.URL, nil)
	_, cerr := client.Upload(context.Background(), "big.txt", strings.NewReader("x"), 1, nil)
	require.NotNil(t, cerr)
	assert.Equal(t, KindApplication, cerr.Kind)
	assert.Equal(t, "file too large", cerr.Message)
}

func TestGenerateSummary(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/documents/summary", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"document_id":"d1","length":"short"}`, string(body))
		w.Write([]byte(`{"content":"the gist","keywords":["ai","summary"]}`))
	}))
	defer srv.Close()

	client := New(srv.URL, nil)
	result, cerr := client.GenerateSummary(context.Background(), "d1", "short")
	require.Nil(t, cerr)
	assert.Equal(t, "the gist", result.Content)
	assert.Equal(t, []string{"ai", "summary"}, result.Keywords)
}

func TestGenerateSummaryNormalizesKeywords(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":"the gist"}`))
	}))
	defer srv.Close()

	client := New(srv.URL, nil)
	result, cerr := client.GenerateSummary(context.Background(), "d1", "long")
	require.Nil(t, cerr)
	require.NotNil(t, result.Keywords)
	assert.Empty(t, result.Keywords)
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, KindValidation, KindOf(Validation("nope")))
	assert.Equal(t, Kind(""), KindOf(io.EOF))
	assert.Equal(t, Kind(""), KindOf(nil))
}
