package memmachine_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/memgatehq/memgate/pkg/memmachine"
)

// recordingServer captures every request the client sends so specs can
// assert on paths, methods, headers, and bodies.
type recordingServer struct {
	mu       sync.Mutex
	requests []recordedRequest
	handler  http.HandlerFunc
	server   *httptest.Server
}

type recordedRequest struct {
	Method string
	Path   string
	Auth   string
	Body   []byte
}

func newRecordingServer(handler http.HandlerFunc) *recordingServer {
	rs := &recordingServer{handler: handler}
	rs.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		rs.mu.Lock()
		rs.requests = append(rs.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Auth:   r.Header.Get("Authorization"),
			Body:   body,
		})
		rs.mu.Unlock()
		rs.handler(w, r)
	}))
	return rs
}

func (rs *recordingServer) Requests() []recordedRequest {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return append([]recordedRequest(nil), rs.requests...)
}

var _ = Describe("Client", func() {
	var ctx context.Context

	newClient := func(baseURL string) *memmachine.Client {
		client, err := memmachine.NewClient(memmachine.Config{
			BaseURL:   baseURL,
			OrgID:     "org-1",
			ProjectID: "proj-1",
			APIKey:    "secret",
		}, zap.NewNop())
		Expect(err).NotTo(HaveOccurred())
		return client
	}

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("NewClient", func() {
		It("rejects a missing base URL", func() {
			_, err := memmachine.NewClient(memmachine.Config{
				OrgID: "o", ProjectID: "p",
			}, zap.NewNop())
			Expect(err).To(MatchError(ContainSubstring("base URL")))
		})

		It("rejects missing org and project ids", func() {
			_, err := memmachine.NewClient(memmachine.Config{
				BaseURL: "http://localhost:8080", ProjectID: "p",
			}, zap.NewNop())
			Expect(err).To(MatchError(ContainSubstring("org id")))

			_, err = memmachine.NewClient(memmachine.Config{
				BaseURL: "http://localhost:8080", OrgID: "o",
			}, zap.NewNop())
			Expect(err).To(MatchError(ContainSubstring("project id")))
		})
	})

	Describe("Search", func() {
		It("posts the scoped query and returns the raw body", func() {
			rs := newRecordingServer(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"memories":[{"content":"hi"}]}`))
			})
			defer rs.server.Close()

			raw, err := newClient(rs.server.URL).Search(ctx, "what did we discuss", 7)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(raw)).To(Equal(`{"memories":[{"content":"hi"}]}`))

			reqs := rs.Requests()
			Expect(reqs).To(HaveLen(1))
			Expect(reqs[0].Method).To(Equal(http.MethodPost))
			Expect(reqs[0].Path).To(Equal("/v1/memories/search"))
			Expect(reqs[0].Auth).To(Equal("Bearer secret"))

			var payload memmachine.SearchRequest
			Expect(json.Unmarshal(reqs[0].Body, &payload)).To(Succeed())
			Expect(payload.OrgID).To(Equal("org-1"))
			Expect(payload.ProjectID).To(Equal("proj-1"))
			Expect(payload.Query).To(Equal("what did we discuss"))
			Expect(payload.Limit).To(Equal(7))
		})

		It("surfaces non-2xx answers as API errors", func() {
			rs := newRecordingServer(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			})
			defer rs.server.Close()

			_, err := newClient(rs.server.URL).Search(ctx, "q", 0)
			Expect(err).To(MatchError(ContainSubstring("HTTP 500")))
		})
	})

	Describe("Store", func() {
		messages := []memmachine.Message{
			{Content: "hello", Producer: "u1", ProducedFor: "a1", Role: "user"},
		}

		It("stores messages in one request on success", func() {
			rs := newRecordingServer(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusCreated)
			})
			defer rs.server.Close()

			Expect(newClient(rs.server.URL).Store(ctx, messages)).To(Succeed())

			reqs := rs.Requests()
			Expect(reqs).To(HaveLen(1))
			Expect(reqs[0].Path).To(Equal("/v1/memories"))

			var payload memmachine.StoreRequest
			Expect(json.Unmarshal(reqs[0].Body, &payload)).To(Succeed())
			Expect(payload.Messages).To(HaveLen(1))
			Expect(payload.Messages[0].Content).To(Equal("hello"))
		})

		It("creates the project and retries once on a project-missing 404", func() {
			var storeCalls int
			rs := newRecordingServer(func(w http.ResponseWriter, r *http.Request) {
				switch r.URL.Path {
				case "/v1/memories":
					storeCalls++
					if storeCalls == 1 {
						w.WriteHeader(http.StatusNotFound)
						w.Write([]byte(`{"error":"project proj-1 not found"}`))
						return
					}
					w.WriteHeader(http.StatusCreated)
				case "/v1/projects":
					w.WriteHeader(http.StatusCreated)
				}
			})
			defer rs.server.Close()

			Expect(newClient(rs.server.URL).Store(ctx, messages)).To(Succeed())

			var paths []string
			for _, r := range rs.Requests() {
				paths = append(paths, r.Path)
			}
			Expect(paths).To(Equal([]string{"/v1/memories", "/v1/projects", "/v1/memories"}))
		})

		It("does not retry a 404 that is not about the project", func() {
			rs := newRecordingServer(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				w.Write([]byte(`{"error":"no such route"}`))
			})
			defer rs.server.Close()

			err := newClient(rs.server.URL).Store(ctx, messages)
			Expect(err).To(MatchError(ContainSubstring("HTTP 404")))
			Expect(rs.Requests()).To(HaveLen(1))
		})

		It("retries at most once even when the retry hits the same 404", func() {
			rs := newRecordingServer(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/v1/projects" {
					w.WriteHeader(http.StatusCreated)
					return
				}
				w.WriteHeader(http.StatusNotFound)
				w.Write([]byte(`{"error":"project proj-1 not found"}`))
			})
			defer rs.server.Close()

			err := newClient(rs.server.URL).Store(ctx, messages)
			Expect(err).To(MatchError(ContainSubstring("after project create")))
			Expect(rs.Requests()).To(HaveLen(3))
		})

		It("propagates a failed project create", func() {
			rs := newRecordingServer(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/v1/projects" {
					http.Error(w, "forbidden", http.StatusForbidden)
					return
				}
				w.WriteHeader(http.StatusNotFound)
				w.Write([]byte(`project missing`))
			})
			defer rs.server.Close()

			err := newClient(rs.server.URL).Store(ctx, messages)
			Expect(err).To(MatchError(ContainSubstring("creating project")))
		})
	})

	Describe("DeleteMemories", func() {
		It("issues a scoped DELETE", func() {
			rs := newRecordingServer(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			})
			defer rs.server.Close()

			Expect(newClient(rs.server.URL).DeleteMemories(ctx)).To(Succeed())

			reqs := rs.Requests()
			Expect(reqs).To(HaveLen(1))
			Expect(reqs[0].Method).To(Equal(http.MethodDelete))
			Expect(reqs[0].Path).To(Equal("/v1/memories"))

			var payload memmachine.ProjectRequest
			Expect(json.Unmarshal(reqs[0].Body, &payload)).To(Succeed())
			Expect(payload.ProjectID).To(Equal("proj-1"))
		})
	})

	Describe("Ping", func() {
		It("hits the health endpoint", func() {
			rs := newRecordingServer(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"status":"ok"}`))
			})
			defer rs.server.Close()

			Expect(newClient(rs.server.URL).Ping(ctx)).To(Succeed())
			Expect(rs.Requests()[0].Path).To(Equal("/v1/health"))
		})

		It("reports an unreachable service", func() {
			rs := newRecordingServer(func(w http.ResponseWriter, r *http.Request) {})
			client := newClient(rs.server.URL)
			rs.server.Close()

			Expect(client.Ping(ctx)).To(MatchError(ContainSubstring("connecting to memmachine")))
		})
	})
})
