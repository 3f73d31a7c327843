package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"retentionpulse/internal/config"
	"retentionpulse/internal/infrastructure"
)

const anthropicVersion = "bedrock-2023-05-31"

// InvokeModelAPI is the subset of the Bedrock runtime client used here.
type InvokeModelAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

type bedrockContent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type bedrockMessage struct {
	Role    string           `json:"role"`
	Content []bedrockContent `json:"content"`
}

type bedrockRequest struct {
	AnthropicVersion string           `json:"anthropic_version"`
	MaxTokens        int              `json:"max_tokens"`
	System           string           `json:"system,omitempty"`
	Messages         []bedrockMessage `json:"messages"`
	Temperature      float64          `json:"temperature"`
	TopP             float64          `json:"top_p"`
}

type bedrockResponse struct {
	Content []bedrockContent `json:"content"`
	Usage   struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// BedrockClient asks an Anthropic model hosted on AWS Bedrock.
type BedrockClient struct {
	client      InvokeModelAPI
	modelID     string
	maxTokens   int
	temperature float64
	topP        float64
	timeout     time.Duration
	logger      *slog.Logger
}

// NewBedrockClient loads AWS credentials from the default chain.
func NewBedrockClient(ctx context.Context, cfg config.AssistantConfig, region string, logger *slog.Logger) (*BedrockClient, error) {
	if cfg.BedrockRegion != "" {
		region = cfg.BedrockRegion
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewBedrockClientWithAPI(bedrockruntime.NewFromConfig(awsCfg), cfg, logger), nil
}

// NewBedrockClientWithAPI wraps an existing runtime client
func NewBedrockClientWithAPI(api InvokeModelAPI, cfg config.AssistantConfig, logger *slog.Logger) *BedrockClient {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.AssistantTimeout
	}
	modelID := cfg.BedrockModelID
	if modelID == "" {
		modelID = config.DefaultBedrockModelID
	}
	return &BedrockClient{
		client:      api,
		modelID:     modelID,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		topP:        cfg.TopP,
		timeout:     timeout,
		logger:      infrastructure.WithComponent(logger, "bedrock").With(slog.String("model", modelID)),
	}
}

func (c *BedrockClient) Provider() string { return config.AssistantBedrock }

func (c *BedrockClient) Ask(ctx context.Context, system, dataContext, question string) (string, error) {
	if c.client == nil {
		return "", ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(bedrockRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        c.maxTokens,
		System:           system,
		Messages: []bedrockMessage{{
			Role:    "user",
			Content: []bedrockContent{{Type: "text", Text: UserMessage(dataContext, question)}},
		}},
		Temperature: c.temperature,
		TopP:        c.topP,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	out, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		if isTimeout(ctx, err) {
			return "", ErrTimeout
		}
		var respErr *awshttp.ResponseError
		if errors.As(err, &respErr) {
			return "", &StatusError{Code: respErr.HTTPStatusCode(), Body: truncate(respErr.Err.Error(), 200)}
		}
		return "", fmt.Errorf("bedrock invoke failed: %w", err)
	}

	var parsed bedrockResponse
	if err := json.Unmarshal(out.Body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	var sb strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	answer := strings.TrimSpace(sb.String())
	if answer == "" {
		return "", ErrEmptyAnswer
	}

	c.logger.DebugContext(ctx, "Bedrock answered",
		slog.Int("input_tokens", parsed.Usage.InputTokens),
		slog.Int("output_tokens", parsed.Usage.OutputTokens))
	return answer, nil
}
