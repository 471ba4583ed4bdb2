package ollama

import (
	"net/http"
	"net/url"
	"sync"

	"github.com/ollama/ollama/api"
	"golang.org/x/sync/semaphore"

	"github.com/vantagecomms/vantage/backend/pkg/ai"
)

// GraphOllamaClient implements ai.GraphAIClient using Ollama as the backend,
// for deployments that keep embedding and explanation models local.
type GraphOllamaClient struct {
	embeddingModel  string
	completionModel string

	reqLock    *semaphore.Weighted
	timeoutMin int

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	baseURL    *url.URL
	apiKey     string
	httpClient *http.Client

	Client *api.Client
}

// NewGraphOllamaClientParams contains configuration options for creating a
// new GraphOllamaClient.
type NewGraphOllamaClientParams struct {
	EmbeddingModel  string
	CompletionModel string

	BaseURL string
	ApiKey  string

	// TimeoutMin bounds a single request in minutes. Zero means 5.
	TimeoutMin            int
	MaxConcurrentRequests int64
}

type headerTransport struct {
	headers map[string]string
	rt      http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// clone so original request isn't modified
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		// don't overwrite if already set
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}
	return t.rt.RoundTrip(r)
}

// NewGraphOllamaClient creates a new Ollama-based AI client connected to the
// server at BaseURL (or the default if empty).
func NewGraphOllamaClient(
	params NewGraphOllamaClientParams,
) (*GraphOllamaClient, error) {
	var (
		u   *url.URL
		err error
	)

	if params.BaseURL != "" {
		u, err = url.Parse(params.BaseURL)
		if err != nil {
			return nil, err
		}
	}

	httpClient := &http.Client{
		Transport: &headerTransport{
			headers: map[string]string{
				"Authorization": "Bearer " + params.ApiKey,
			},
			rt: http.DefaultTransport,
		},
	}

	concurrent := params.MaxConcurrentRequests
	if concurrent <= 0 {
		concurrent = 2
	}
	timeout := params.TimeoutMin
	if timeout <= 0 {
		timeout = 5
	}

	return &GraphOllamaClient{
		embeddingModel:  params.EmbeddingModel,
		completionModel: params.CompletionModel,

		reqLock:    semaphore.NewWeighted(concurrent),
		timeoutMin: timeout,

		baseURL:    u,
		apiKey:     params.ApiKey,
		httpClient: httpClient,

		Client: api.NewClient(u, httpClient),
	}, nil
}
