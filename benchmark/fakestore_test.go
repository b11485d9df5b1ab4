package benchmark

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"objbench/metrics"
)

// fakeStore is an in-memory object store answering like the real one: PUT of an existing object is
// a conflict, GET and DELETE of a missing object are not found, uploads are multipart field "file".
type fakeStore struct {
	*httptest.Server

	mu       sync.Mutex
	objects  map[string][]byte
	requests []string // "METHOD /path"
	token    string
}

func newFakeStore(t *testing.T, token string) *fakeStore {
	t.Helper()
	s := &fakeStore{objects: make(map[string][]byte), token: token}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

func (s *fakeStore) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests = append(s.requests, r.Method+" "+r.URL.Path)
	s.mu.Unlock()

	if s.token != "" && r.Header.Get("Authorization") != "Bearer "+s.token {
		http.Error(w, "The provided bearer token is invalid", http.StatusUnauthorized)
		return
	}

	id, ok := strings.CutPrefix(r.URL.Path, "/object/")
	if !ok || len(id) != 64 {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodPut:
		file, _, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "Missing form-file 'file'", http.StatusBadRequest)
			return
		}
		content, err := io.ReadAll(file)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if _, exists := s.objects[id]; exists {
			http.Error(w, "The requested object already exists.", http.StatusConflict)
			return
		}
		s.objects[id] = content
		_, _ = io.WriteString(w, "object persisted")

	case http.MethodGet:
		s.mu.Lock()
		content, exists := s.objects[id]
		s.mu.Unlock()
		if !exists {
			http.Error(w, "The requested object does not exist", http.StatusNotFound)
			return
		}
		_, _ = w.Write(content)

	case http.MethodDelete:
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, exists := s.objects[id]; !exists {
			http.Error(w, "the requested object does not exists", http.StatusNotFound)
			return
		}
		delete(s.objects, id)
		_, _ = io.WriteString(w, "object deleted")

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *fakeStore) object(id string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	content, ok := s.objects[id]
	return content, ok
}

func (s *fakeStore) objectCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

func (s *fakeStore) requestLog() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

func newTestMetrics() (*metrics.Metrics, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return metrics.New(reg), reg
}

func newTestClient(t *testing.T, token string, m *metrics.Metrics) *ObjectClient {
	t.Helper()
	client, err := NewObjectClient(ClientOptions{VUs: 8, Timeout: 5 * time.Second, BearerToken: token}, m, zap.NewNop().Sugar())
	require.NoError(t, err)
	return client
}

func quietParams(vus, iterations int) BenchmarkParams {
	return BenchmarkParams{
		VUs:              vus,
		Iterations:       iterations,
		SetupConcurrency: 4,
		Quiet:            true,
	}
}
