package onedrive

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docpilot/internal/core/domain"
)

// graph is a scripted Graph server keyed by "METHOD path".
type graph struct {
	mu       sync.Mutex
	routes   map[string]http.HandlerFunc
	requests []string
	bodies   map[string][]byte
	srv      *httptest.Server
}

func newGraph(t *testing.T) *graph {
	t.Helper()
	g := &graph{routes: map[string]http.HandlerFunc{}, bodies: map[string][]byte{}}
	g.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		body, _ := io.ReadAll(r.Body)

		g.mu.Lock()
		g.requests = append(g.requests, key)
		g.bodies[key] = body
		h, ok := g.routes[key]
		g.mu.Unlock()

		if !ok {
			http.Error(w, `{"error":{"code":"itemNotFound"}}`, http.StatusNotFound)
			return
		}
		h(w, r)
	}))
	t.Cleanup(g.srv.Close)
	return g
}

func (g *graph) handle(key string, h http.HandlerFunc) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.routes[key] = h
}

func (g *graph) json(key string, status int, v any) {
	g.handle(key, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	})
}

func (g *graph) seen() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.requests...)
}

func (g *graph) source(tokens *mockTokens) *Source {
	return New(tokens, WithBaseURL(g.srv.URL), WithRateLimiter(NewRateLimiter(1000, 1000)))
}

func file(id, name string, size int64) map[string]any {
	return map[string]any{
		"id":                   id,
		"name":                 name,
		"size":                 size,
		"lastModifiedDateTime": "2024-03-01T10:00:00Z",
	}
}

func folder(id, name string) map[string]any {
	return map[string]any{"id": id, "name": name, "folder": map[string]any{"childCount": 1}}
}

func TestSource_Name(t *testing.T) {
	assert.Equal(t, "onedrive", New(newMockTokens("t")).Name())
}

func TestList_FollowsNextLink(t *testing.T) {
	g := newGraph(t)
	g.json("GET /me/drive/root:/Docs:/children", http.StatusOK, map[string]any{
		"value":           []any{file("1", "a.pdf", 10)},
		"@odata.nextLink": g.srv.URL + "/page2",
	})
	g.json("GET /page2", http.StatusOK, map[string]any{
		"value": []any{file("2", "b.docx", 20)},
	})

	items, err := g.source(newMockTokens("t")).List(context.Background(), "/Docs", false)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "a.pdf", items[0].Name)
	assert.Equal(t, "b.docx", items[1].Name)
	assert.Equal(t, int64(20), items[1].Size)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), items[0].LastModified.UTC())
}

func TestList_RootFolder(t *testing.T) {
	g := newGraph(t)
	g.json("GET /me/drive/root/children", http.StatusOK, map[string]any{
		"value": []any{file("1", "a.txt", 1), folder("f", "Sub")},
	})

	items, err := g.source(newMockTokens("t")).List(context.Background(), "", false)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.False(t, items[0].IsFolder)
	assert.True(t, items[1].IsFolder)
}

func TestList_RecursiveDepthFirst(t *testing.T) {
	g := newGraph(t)
	g.json("GET /me/drive/root:/Docs:/children", http.StatusOK, map[string]any{
		"value": []any{folder("f1", "A"), file("1", "root.txt", 1), folder("f2", "B")},
	})
	g.json("GET /me/drive/root:/Docs/A:/children", http.StatusOK, map[string]any{
		"value": []any{file("2", "a.txt", 1), folder("f3", "Deep")},
	})
	g.json("GET /me/drive/root:/Docs/A/Deep:/children", http.StatusOK, map[string]any{
		"value": []any{file("3", "deep.txt", 1)},
	})
	g.json("GET /me/drive/root:/Docs/B:/children", http.StatusOK, map[string]any{
		"value": []any{file("4", "b.txt", 1)},
	})

	items, err := g.source(newMockTokens("t")).List(context.Background(), "Docs", true)
	require.NoError(t, err)

	var got []string
	for _, it := range items {
		assert.False(t, it.IsFolder)
		got = append(got, it.RelativePath+"|"+it.Name)
	}
	assert.Equal(t, []string{"|root.txt", "A|a.txt", "A/Deep|deep.txt", "B|b.txt"}, got)
}

func TestList_RecursiveSkipsFailingSubfolder(t *testing.T) {
	g := newGraph(t)
	g.json("GET /me/drive/root:/Docs:/children", http.StatusOK, map[string]any{
		"value": []any{folder("f1", "Broken"), folder("f2", "Good")},
	})
	g.json("GET /me/drive/root:/Docs/Broken:/children", http.StatusInternalServerError, map[string]any{})
	g.json("GET /me/drive/root:/Docs/Good:/children", http.StatusOK, map[string]any{
		"value": []any{file("1", "ok.txt", 1)},
	})

	items, err := g.source(newMockTokens("t")).List(context.Background(), "Docs", true)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Good", items[0].RelativePath)
}

func TestList_RootFailureIsReturned(t *testing.T) {
	g := newGraph(t)
	g.json("GET /me/drive/root:/Docs:/children", http.StatusForbidden, map[string]any{})

	_, err := g.source(newMockTokens("t")).List(context.Background(), "Docs", true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSourceUnavailable))
}

func TestDownload_ReturnsContent(t *testing.T) {
	g := newGraph(t)
	g.handle("GET /me/drive/items/abc/content", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer t1", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte("%PDF-1.4 body"))
	})

	data, err := g.source(newMockTokens("t1")).Download(context.Background(), domain.RemoteItem{ID: "abc"})
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 body", string(data))
}

func TestDownload_RefreshesTokenOnceAfter401(t *testing.T) {
	g := newGraph(t)
	g.handle("GET /me/drive/items/abc/content", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte("ok"))
	})

	tokens := newMockTokens("stale", "fresh")
	data, err := g.source(tokens).Download(context.Background(), domain.RemoteItem{ID: "abc"})
	require.NoError(t, err)
	assert.Equal(t, "ok", string(data))
	assert.Equal(t, 1, tokens.invalidated)
	assert.Len(t, g.seen(), 2)
}

func TestDownload_PersistentUnauthorized(t *testing.T) {
	g := newGraph(t)
	g.json("GET /me/drive/items/abc/content", http.StatusUnauthorized, map[string]any{})

	tokens := newMockTokens("a", "b")
	_, err := g.source(tokens).Download(context.Background(), domain.RemoteItem{ID: "abc"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAuthExpired))
	assert.Equal(t, 1, tokens.invalidated)
	assert.Len(t, g.seen(), 2)
}

func TestDownload_NotFound(t *testing.T) {
	g := newGraph(t)

	_, err := g.source(newMockTokens("t")).Download(context.Background(), domain.RemoteItem{ID: "missing"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestDownload_RequiresID(t *testing.T) {
	_, err := New(newMockTokens("t")).Download(context.Background(), domain.RemoteItem{})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestDownload_TokenError(t *testing.T) {
	g := newGraph(t)
	tokens := newMockTokens("t")
	tokens.err = domain.ErrAuthRequired

	_, err := g.source(tokens).Download(context.Background(), domain.RemoteItem{ID: "abc"})
	assert.True(t, errors.Is(err, domain.ErrAuthRequired))
	assert.Empty(t, g.seen())
}

func TestUpload_DirectPut(t *testing.T) {
	g := newGraph(t)
	g.json("GET /me/drive/root:/Out", http.StatusOK, folder("out", "Out"))
	g.json("PUT /me/drive/root:/Out/all.txt:/content", http.StatusCreated, map[string]any{
		"id": "new", "webUrl": "https://example/new",
	})

	res, err := g.source(newMockTokens("t")).Upload(context.Background(), []byte("hello"), "/Out", "all.txt")
	require.NoError(t, err)
	assert.Equal(t, "new", res.ID)
	assert.Equal(t, "https://example/new", res.WebURL)
	assert.Equal(t, "hello", string(g.bodies["PUT /me/drive/root:/Out/all.txt:/content"]))
}

func TestUpload_FallsBackToCreateThenFill(t *testing.T) {
	g := newGraph(t)
	g.json("GET /me/drive/root:/Out", http.StatusOK, folder("out", "Out"))
	g.json("PUT /me/drive/root:/Out/all.txt:/content", http.StatusForbidden, map[string]any{})
	g.json("POST /me/drive/root:/Out:/children", http.StatusCreated, map[string]any{"id": "item1"})
	g.json("PUT /me/drive/items/item1/content", http.StatusOK, map[string]any{"id": "item1", "webUrl": "u"})

	res, err := g.source(newMockTokens("t")).Upload(context.Background(), []byte("x"), "Out", "all.txt")
	require.NoError(t, err)
	assert.Equal(t, "item1", res.ID)

	var meta map[string]any
	require.NoError(t, json.Unmarshal(g.bodies["POST /me/drive/root:/Out:/children"], &meta))
	assert.Equal(t, "all.txt", meta["name"])
	assert.Equal(t, "replace", meta["@microsoft.graph.conflictBehavior"])
}

func TestUpload_FallsBackToFolderID(t *testing.T) {
	g := newGraph(t)
	g.json("GET /me/drive/root:/Out", http.StatusOK, folder("out-id", "Out"))
	g.json("PUT /me/drive/root:/Out/all.txt:/content", http.StatusBadRequest, map[string]any{})
	g.json("POST /me/drive/root:/Out:/children", http.StatusBadRequest, map[string]any{})
	g.json("PUT /me/drive/items/out-id:/all.txt:/content", http.StatusOK, map[string]any{"id": "z"})

	res, err := g.source(newMockTokens("t")).Upload(context.Background(), []byte("x"), "Out", "all.txt")
	require.NoError(t, err)
	assert.Equal(t, "z", res.ID)
}

func TestUpload_AllStrategiesFail(t *testing.T) {
	g := newGraph(t)
	g.json("GET /me/drive/root:/Out", http.StatusOK, folder("out-id", "Out"))
	g.json("PUT /me/drive/root:/Out/all.txt:/content", http.StatusBadRequest, map[string]any{})
	g.json("POST /me/drive/root:/Out:/children", http.StatusBadRequest, map[string]any{})
	g.json("PUT /me/drive/items/out-id:/all.txt:/content", http.StatusInternalServerError, map[string]any{})

	_, err := g.source(newMockTokens("t")).Upload(context.Background(), []byte("x"), "Out", "all.txt")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUploadFailed))
	assert.Contains(t, err.Error(), "unexpected status 500")
}

func TestUpload_CreatesMissingFolders(t *testing.T) {
	g := newGraph(t)
	g.json("GET /me/drive/root:/Reports", http.StatusOK, folder("r", "Reports"))
	g.json("POST /me/drive/root:/Reports:/children", http.StatusCreated, folder("y", "2024"))
	g.json("PUT /me/drive/root:/Reports/2024/all.txt:/content", http.StatusCreated, map[string]any{"id": "f"})

	_, err := g.source(newMockTokens("t")).Upload(context.Background(), []byte("x"), "Reports/2024", "all.txt")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"GET /me/drive/root:/Reports",
		"GET /me/drive/root:/Reports/2024",
		"POST /me/drive/root:/Reports:/children",
		"PUT /me/drive/root:/Reports/2024/all.txt:/content",
	}, g.seen())

	var meta map[string]any
	require.NoError(t, json.Unmarshal(g.bodies["POST /me/drive/root:/Reports:/children"], &meta))
	assert.Equal(t, "2024", meta["name"])
	assert.Equal(t, "rename", meta["@microsoft.graph.conflictBehavior"])
}

func TestUpload_FolderCreationFailure(t *testing.T) {
	g := newGraph(t)
	g.json("POST /me/drive/root/children", http.StatusForbidden, map[string]any{})

	_, err := g.source(newMockTokens("t")).Upload(context.Background(), []byte("x"), "New", "all.txt")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUploadFailed))
}

func TestUpload_EmptyName(t *testing.T) {
	_, err := New(newMockTokens("t")).Upload(context.Background(), []byte("x"), "Out", " ")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}
