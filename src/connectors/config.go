package connectors

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	OrchestratorWebhookURL string `envconfig:"ORCHESTRATOR_WEBHOOK_URL" default:"http://localhost:5678/webhook"`
	RetryResultCallbackURL string `envconfig:"RETRY_RESULT_CALLBACK_URL" default:"http://localhost:8000/api/v1/webhooks/retry-result"`
	RequestTimeoutSeconds  int    `envconfig:"ORCHESTRATOR_TIMEOUT_SECONDS" default:"5"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
