package openai

import (
	"sync"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/sync/semaphore"

	"github.com/vantagecomms/vantage/backend/pkg/ai"
)

const defaultTimeoutMin = 5

// GraphOpenAIClient implements ai.GraphAIClient against any OpenAI-compatible
// API. It manages separate clients for embeddings and completions so the two
// can point at different providers.
//
// A GraphOpenAIClient should be created using NewGraphOpenAIClient.
type GraphOpenAIClient struct {
	embeddingModel  string
	completionModel string

	embeddingURL string
	embeddingKey string
	chatURL      string
	chatKey      string

	timeoutMin    int
	embeddingLock *semaphore.Weighted

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	ChatClient      *openai.Client
	EmbeddingClient *openai.Client
}

// NewGraphOpenAIClientParams configures a new GraphOpenAIClient.
//
// EmbeddingModel embeds node descriptions and search queries.
// CompletionModel generates path explanations.
// The URL/Key pairs configure the two API endpoints; an empty URL means the
// default OpenAI endpoint.
type NewGraphOpenAIClientParams struct {
	EmbeddingModel  string
	CompletionModel string

	EmbeddingURL string
	EmbeddingKey string
	ChatURL      string
	ChatKey      string

	// TimeoutMin bounds a single request in minutes. Zero means the default.
	TimeoutMin int
	// MaxParallelEmbeddings limits concurrent embedding requests. Zero
	// means 4.
	MaxParallelEmbeddings int
}

// NewGraphOpenAIClient creates a client configured with the provided
// parameters.
func NewGraphOpenAIClient(params NewGraphOpenAIClientParams) *GraphOpenAIClient {
	timeout := params.TimeoutMin
	if timeout <= 0 {
		timeout = defaultTimeoutMin
	}
	parallel := params.MaxParallelEmbeddings
	if parallel <= 0 {
		parallel = 4
	}

	return &GraphOpenAIClient{
		embeddingModel:  params.EmbeddingModel,
		completionModel: params.CompletionModel,

		embeddingURL: params.EmbeddingURL,
		embeddingKey: params.EmbeddingKey,
		chatURL:      params.ChatURL,
		chatKey:      params.ChatKey,

		timeoutMin:    timeout,
		embeddingLock: semaphore.NewWeighted(int64(parallel)),

		ChatClient:      newOpenaiClient(params.ChatURL, params.ChatKey),
		EmbeddingClient: newOpenaiClient(params.EmbeddingURL, params.EmbeddingKey),
	}
}

func newOpenaiClient(baseURL, apiKey string) *openai.Client {
	if apiKey == "" {
		return nil
	}
	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(options...)
	return &client
}
