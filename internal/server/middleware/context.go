package middleware

import (
	"github.com/vantagecomms/vantage/backend/internal/storage"
	"github.com/vantagecomms/vantage/backend/internal/util"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"

	"github.com/vantagecomms/vantage/backend/pkg/ai"
	oai "github.com/vantagecomms/vantage/backend/pkg/ai/ollama"
	gai "github.com/vantagecomms/vantage/backend/pkg/ai/openai"
	"github.com/vantagecomms/vantage/backend/pkg/logger"
)

// AppUser is the authenticated caller. OrgID scopes every graph operation;
// a caller can never address another organization's rows.
type AppUser struct {
	UserID      string
	OrgID       string
	Role        string
	Permissions []string
}

type App struct {
	DBConn       *pgxpool.Pool
	Queue        *amqp091.Channel
	Key          *keyfunc.Keyfunc
	Snapshots    *storage.SnapshotBucket
	AiClient     ai.GraphAIClient
	MasterAPIKey string
	MasterUserID string
	MasterOrgID  string
}

type AppContext struct {
	echo.Context
	App  *App
	User *AppUser
}

func AppContextMiddleware(
	db *pgxpool.Pool,
	queue *amqp091.Channel,
	key *keyfunc.Keyfunc,
	snapshots *storage.SnapshotBucket,
	masterAPIKey string,
	masterUserID string,
	masterOrgID string,
) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			adapter := util.GetEnv("AI_ADAPTER")
			var aiClient ai.GraphAIClient

			switch adapter {
			case "ollama":
				client, err := oai.NewGraphOllamaClient(oai.NewGraphOllamaClientParams{
					EmbeddingModel:  util.GetEnv("AI_EMBED_MODEL"),
					CompletionModel: util.GetEnv("AI_CHAT_MODEL"),

					BaseURL: util.GetEnv("AI_CHAT_URL"),
					ApiKey:  util.GetEnv("AI_CHAT_KEY"),

					MaxConcurrentRequests: int64(util.GetEnvNumeric("AI_PARALLEL_REQ", 15)),
				})
				if err != nil {
					logger.Fatal("Failed to create Ollama client", "err", err)
				}
				aiClient = client
			default:
				aiClient = gai.NewGraphOpenAIClient(gai.NewGraphOpenAIClientParams{
					EmbeddingModel:  util.GetEnv("AI_EMBED_MODEL"),
					CompletionModel: util.GetEnv("AI_CHAT_MODEL"),

					EmbeddingURL: util.GetEnv("AI_EMBED_URL"),
					EmbeddingKey: util.GetEnv("AI_EMBED_KEY"),
					ChatURL:      util.GetEnv("AI_CHAT_URL"),
					ChatKey:      util.GetEnv("AI_CHAT_KEY"),

					MaxParallelEmbeddings: int(util.GetEnvNumeric("AI_PARALLEL_REQ", 4)),
				})
			}

			app := &App{
				DBConn:       db,
				Queue:        queue,
				Key:          key,
				Snapshots:    snapshots,
				AiClient:     aiClient,
				MasterAPIKey: masterAPIKey,
				MasterUserID: masterUserID,
				MasterOrgID:  masterOrgID,
			}
			cc := &AppContext{c, app, nil}
			return next(cc)
		}
	}
}
