package tools

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/kubescape/funcrunner/core/domain"
)

// StubEngine is an httptest server answering the container engine endpoints used by funcrunner.
// It records every operation it receives so tests can assert on the lifecycle sequence.
type StubEngine struct {
	ContainerID string
	Logs        []byte
	APIVersion  string

	mu          sync.Mutex
	ops         []domain.EngineOp
	failures    map[domain.EngineOp]int
	stdin       []byte
	createBody  []byte
	pullQueries []string
	pullAuths   []string
	deleted     []string
	stdinDone   sync.WaitGroup
	server      *httptest.Server
}

// NewStubEngine starts a stub engine whose containers print logs
func NewStubEngine(logs string) *StubEngine {
	s := &StubEngine{
		ContainerID: "c0ffee",
		Logs:        []byte(logs),
		APIVersion:  "1.43",
		failures:    map[domain.EngineOp]int{},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /_ping", s.handle(domain.OpPing, http.StatusOK, s.ping))
	mux.HandleFunc("GET /version", s.handle(domain.OpVersion, http.StatusOK, s.version))
	mux.HandleFunc("POST /images/create", s.handle(domain.OpPull, http.StatusOK, s.pull))
	mux.HandleFunc("POST /containers/create", s.handle(domain.OpCreate, http.StatusCreated, s.create))
	mux.HandleFunc("POST /containers/{id}/start", s.handle(domain.OpStart, http.StatusNoContent, nil))
	mux.HandleFunc("POST /containers/{id}/attach", s.attach)
	mux.HandleFunc("POST /containers/{id}/wait", s.handle(domain.OpWait, http.StatusOK, s.wait))
	mux.HandleFunc("GET /containers/{id}/logs", s.handle(domain.OpLogs, http.StatusOK, s.logs))
	mux.HandleFunc("DELETE /containers/{id}", s.handle(domain.OpDelete, http.StatusNoContent, s.delete))
	s.server = httptest.NewServer(mux)
	return s
}

// URL returns the base URL of the stub
func (s *StubEngine) URL() string {
	return s.server.URL
}

// Client returns an HTTP client for the stub
func (s *StubEngine) Client() *http.Client {
	return s.server.Client()
}

// Close shuts the stub down
func (s *StubEngine) Close() {
	s.server.Close()
}

// Fail makes every later op request answer with status
func (s *StubEngine) Fail(op domain.EngineOp, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = status
}

// Ops returns the recorded operations, ping and version excluded
func (s *StubEngine) Ops() []domain.EngineOp {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ops []domain.EngineOp
	for _, op := range s.ops {
		if op != domain.OpPing && op != domain.OpVersion {
			ops = append(ops, op)
		}
	}
	return ops
}

// Stdin returns what was written to the container input stream
func (s *StubEngine) Stdin() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stdin
}

// CreateBody returns the body of the last container create request
func (s *StubEngine) CreateBody() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createBody
}

// PullQueries returns the raw query of every pull request
func (s *StubEngine) PullQueries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pullQueries
}

// PullAuths returns the registry auth header of every pull request
func (s *StubEngine) PullAuths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pullAuths
}

// Deleted returns the ids of deleted containers
func (s *StubEngine) Deleted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleted
}

func (s *StubEngine) record(op domain.EngineOp) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = append(s.ops, op)
	status, failed := s.failures[op]
	return status, failed
}

func (s *StubEngine) handle(op domain.EngineOp, status int, body func(w http.ResponseWriter, r *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if failure, failed := s.record(op); failed {
			w.WriteHeader(failure)
			_, _ = fmt.Fprintf(w, `{"message":"stub %s failure"}`, op)
			return
		}
		if body == nil {
			w.WriteHeader(status)
			return
		}
		if status != http.StatusOK {
			w.WriteHeader(status)
		}
		body(w, r)
	}
}

func (s *StubEngine) ping(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("OK"))
}

func (s *StubEngine) version(w http.ResponseWriter, _ *http.Request) {
	_ = json.NewEncoder(w).Encode(map[string]string{"Version": "28.3.3", "ApiVersion": s.APIVersion})
}

func (s *StubEngine) pull(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.pullQueries = append(s.pullQueries, r.URL.RawQuery)
	s.pullAuths = append(s.pullAuths, r.Header.Get("X-Registry-Auth"))
	s.mu.Unlock()
	_, _ = fmt.Fprintf(w, `{"status":"Pulling from %s","id":"%s"}`+"\n", r.URL.Query().Get("fromImage"), r.URL.Query().Get("tag"))
}

func (s *StubEngine) create(w http.ResponseWriter, r *http.Request) {
	b, _ := io.ReadAll(r.Body)
	s.mu.Lock()
	s.createBody = b
	s.mu.Unlock()
	_, _ = fmt.Fprintf(w, `{"Id":"%s","Warnings":[]}`, s.ContainerID)
}

// attach upgrades the connection to a raw stream and reads stdin until the client closes it
func (s *StubEngine) attach(w http.ResponseWriter, _ *http.Request) {
	if failure, failed := s.record(domain.OpStdin); failed {
		w.WriteHeader(failure)
		_, _ = w.Write([]byte(`{"message":"stub stdin failure"}`))
		return
	}
	hj, ok := w.(http.Hijacker)
	if !ok {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	s.stdinDone.Add(1)
	conn, buf, err := hj.Hijack()
	if err != nil {
		s.stdinDone.Done()
		return
	}
	go func() {
		defer s.stdinDone.Done()
		defer conn.Close()
		_, _ = buf.WriteString("HTTP/1.1 101 UPGRADED\r\nContent-Type: application/vnd.docker.raw-stream\r\nConnection: Upgrade\r\nUpgrade: tcp\r\n\r\n")
		_ = buf.Flush()
		b, _ := io.ReadAll(buf)
		s.mu.Lock()
		s.stdin = b
		s.mu.Unlock()
	}()
}

// wait returns once the input stream, if any, has been consumed
func (s *StubEngine) wait(w http.ResponseWriter, _ *http.Request) {
	s.stdinDone.Wait()
	_, _ = w.Write([]byte(`{"StatusCode":0}`))
}

func (s *StubEngine) logs(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write(s.Logs)
}

func (s *StubEngine) delete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.deleted = append(s.deleted, r.PathValue("id"))
	s.mu.Unlock()
}
