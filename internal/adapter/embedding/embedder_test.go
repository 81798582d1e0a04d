package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestOpenAIEmbedderRequiresKey(t *testing.T) {
	t.Setenv("TEST_EMPTY_KEY", "")
	if _, err := NewOpenAICompatibleEmbedder("TEST_EMPTY_KEY", "text-embedding-3-small", "http://x"); err == nil {
		t.Error("accepted a missing API key")
	}
}

func TestOpenAIEmbedderDimensions(t *testing.T) {
	t.Setenv("TEST_API_KEY", "k")
	tests := []struct {
		model string
		want  int
	}{
		{"text-embedding-3-small", 1536},
		{"text-embedding-3-large", 3072},
		{"text-embedding-ada-002", 1536},
	}
	for _, tt := range tests {
		e, err := NewOpenAICompatibleEmbedder("TEST_API_KEY", tt.model, "http://x")
		if err != nil {
			t.Fatalf("%s: %v", tt.model, err)
		}
		if e.Dimension() != tt.want {
			t.Errorf("%s dimension = %d, want %d", tt.model, e.Dimension(), tt.want)
		}
	}
}

func TestOpenAIEmbedOne(t *testing.T) {
	var gotAuth string
	var gotReq embeddingRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(embeddingResponse{
			Data: []embeddingData{{Embedding: []float32{0.1, 0.2, 0.3}, Index: 0}},
		})
	}))
	defer srv.Close()

	t.Setenv("TEST_API_KEY", "secret")
	e, err := NewOpenAICompatibleEmbedder("TEST_API_KEY", "text-embedding-3-small", srv.URL)
	if err != nil {
		t.Fatal(err)
	}

	vector, err := e.EmbedOne(context.Background(), "hello")
	if err != nil {
		t.Fatalf("EmbedOne: %v", err)
	}
	if len(vector) != 3 || vector[0] != 0.1 {
		t.Errorf("vector = %v", vector)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if len(gotReq.Input) != 1 || gotReq.Input[0] != "hello" {
		t.Errorf("request input = %v", gotReq.Input)
	}
	if gotReq.Model != "text-embedding-3-small" {
		t.Errorf("request model = %q", gotReq.Model)
	}
}

func TestOpenAIEmbedKeepsOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embeddingRequest
		json.NewDecoder(r.Body).Decode(&req)
		// Answer out of order; the client must reassemble by index.
		data := make([]embeddingData, len(req.Input))
		for i := range req.Input {
			j := len(req.Input) - 1 - i
			data[i] = embeddingData{Embedding: []float32{float32(j)}, Index: j}
		}
		json.NewEncoder(w).Encode(embeddingResponse{Data: data})
	}))
	defer srv.Close()

	t.Setenv("TEST_API_KEY", "k")
	e, err := NewOpenAICompatibleEmbedder("TEST_API_KEY", "text-embedding-3-small", srv.URL)
	if err != nil {
		t.Fatal(err)
	}

	vectors, err := e.Embed(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vectors) != 3 {
		t.Fatalf("got %d vectors, want 3", len(vectors))
	}
	for i, v := range vectors {
		if len(v) != 1 || v[0] != float32(i) {
			t.Errorf("vector %d = %v, want [%d]", i, v, i)
		}
	}
}

func TestOpenAIEmbedderAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(embeddingResponse{
			Error: &apiError{Message: "rate limited", Type: "rate_limit"},
		})
	}))
	defer srv.Close()

	t.Setenv("TEST_API_KEY", "k")
	e, err := NewOpenAICompatibleEmbedder("TEST_API_KEY", "text-embedding-3-small", srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.EmbedOne(context.Background(), "x"); err == nil {
		t.Error("API error not surfaced")
	}
}

func TestOllamaEmbedderDefaults(t *testing.T) {
	e, err := NewOllamaEmbedder("mxbai-embed-large", "")
	if err != nil {
		t.Fatal(err)
	}
	if e.Dimension() != 1024 {
		t.Errorf("dimension = %d, want 1024", e.Dimension())
	}
	if e.ModelName() != "mxbai-embed-large" {
		t.Errorf("model = %q", e.ModelName())
	}
}

func TestGeminiEmbedOne(t *testing.T) {
	var gotReq geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "secret" {
			t.Errorf("key = %q, want secret", r.URL.Query().Get("key"))
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(geminiResponse{
			Embedding: &geminiEmbedding{Values: []float32{0.5, 0.6}},
		})
	}))
	defer srv.Close()

	e := &GeminiEmbedder{
		apiKey:    "secret",
		model:     "models/text-embedding-004",
		baseURL:   srv.URL,
		dimension: 768,
		client:    &http.Client{Timeout: time.Second},
	}

	vector, err := e.EmbedOne(context.Background(), "hello")
	if err != nil {
		t.Fatalf("EmbedOne: %v", err)
	}
	if len(vector) != 2 || vector[0] != 0.5 {
		t.Errorf("vector = %v", vector)
	}
	if len(gotReq.Content.Parts) != 1 || gotReq.Content.Parts[0].Text != "hello" {
		t.Errorf("request content = %+v", gotReq.Content)
	}
}

func TestGeminiEmbedderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(geminiResponse{
			Error: &geminiError{Code: 429, Message: "quota", Status: "RESOURCE_EXHAUSTED"},
		})
	}))
	defer srv.Close()

	e := &GeminiEmbedder{
		apiKey:  "k",
		model:   "models/text-embedding-004",
		baseURL: srv.URL,
		client:  &http.Client{Timeout: time.Second},
	}
	if _, err := e.EmbedOne(context.Background(), "x"); err == nil {
		t.Error("API error not surfaced")
	}
}

func TestMockEmbedder(t *testing.T) {
	e := NewMockEmbedder(4)
	if e.Dimension() != 4 || e.ModelName() != "mock" {
		t.Errorf("mock = %d/%q", e.Dimension(), e.ModelName())
	}

	a, err := e.EmbedOne(context.Background(), "abc")
	if err != nil {
		t.Fatal(err)
	}
	b, err := e.EmbedOne(context.Background(), "abc")
	if err != nil {
		t.Fatal(err)
	}
	if len(a) != 4 {
		t.Fatalf("vector length = %d, want 4", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("mock vectors not deterministic at %d: %v vs %v", i, a, b)
		}
	}

	vectors, err := e.Embed(context.Background(), []string{"x", "y"})
	if err != nil {
		t.Fatal(err)
	}
	if len(vectors) != 2 {
		t.Errorf("got %d vectors, want 2", len(vectors))
	}
}
