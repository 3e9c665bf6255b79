package tool

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aws/aws-sdk-go-v2/config"

	"github.com/mbayswater/adjutant/pkg/models"
)

// apiSystemPrompt frames direct API invocations. CLI backends carry their
// own system prompts; this stands in for them on the api path.
const apiSystemPrompt = "You are an engineering assistant executing a single work order. " +
	"Produce the requested artifact directly, with no preamble."

// APIConfig contains configuration for creating an APIRunner.
type APIConfig struct {
	// APIKey is the Anthropic API key. If empty, uses ANTHROPIC_API_KEY env var.
	APIKey string
	// Model is the default Claude model; a pool entry's model overrides it.
	Model string
	// UseAWSBedrock indicates whether to use AWS Bedrock instead of direct API.
	UseAWSBedrock bool
	// AWSRegion is the AWS region for Bedrock (e.g., "us-west-2").
	AWSRegion string
	// AWSProfile is the optional AWS profile name to use.
	AWSProfile string
}

// APIRunner invokes api-kind backends through direct Anthropic Messages
// calls instead of spawning a subprocess.
type APIRunner struct {
	client  anthropic.Client
	model   anthropic.Model
	bedrock bool
	tracker *TokenTracker
}

// NewAPIRunner creates an APIRunner.
func NewAPIRunner(cfg APIConfig) (*APIRunner, error) {
	var opts []option.RequestOption

	if cfg.UseAWSBedrock {
		ctx := context.Background()

		var loadOpts []func(*config.LoadOptions) error
		if cfg.AWSRegion != "" {
			loadOpts = append(loadOpts, config.WithRegion(cfg.AWSRegion))
		}
		if cfg.AWSProfile != "" {
			loadOpts = append(loadOpts, config.WithSharedConfigProfile(cfg.AWSProfile))
		}

		opts = append(opts, bedrock.WithLoadDefaultConfig(ctx, loadOpts...))
	} else {
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is not set")
		}
		opts = append(opts, option.WithAPIKey(apiKey))
	}

	model := anthropic.Model(cfg.Model)
	if model == "" {
		model = anthropic.ModelClaudeSonnet4_20250514
	}
	if cfg.UseAWSBedrock {
		model = translateModelForBedrock(model)
	}

	return &APIRunner{
		client:  anthropic.NewClient(opts...),
		model:   model,
		bedrock: cfg.UseAWSBedrock,
		tracker: NewTokenTracker(),
	}, nil
}

// Tracker returns the runner's token usage tracker.
func (r *APIRunner) Tracker() *TokenTracker {
	return r.tracker
}

// Invoke sends the prompt as a single Messages call. SDK failures are
// mapped onto the subprocess result shape: the error text lands in the
// result with a non-zero exit code, so the adapter's quota classification
// treats an HTTP 429 or 401 the same way it treats CLI output.
func (r *APIRunner) Invoke(ctx context.Context, spec models.ToolSpec, prompt, workDir string) (*models.ExecutionResult, error) {
	model := r.model
	if spec.Model != "" {
		model = anthropic.Model(spec.Model)
		if r.bedrock {
			model = translateModelForBedrock(model)
		}
	}

	start := time.Now()
	resp, err := r.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     model,
		MaxTokens: 4096,
		System: []anthropic.TextBlockParam{
			{Text: apiSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		if ctx.Err() != nil {
			return &models.ExecutionResult{ExitCode: -1, DurationMs: elapsed},
				fmt.Errorf("%w after %dms: %v", ErrTimeout, elapsed, ctx.Err())
		}
		return &models.ExecutionResult{
			ExitCode:   1,
			Error:      err.Error(),
			DurationMs: elapsed,
		}, nil
	}

	r.tracker.Add(resp.Usage.InputTokens, resp.Usage.OutputTokens)

	var text string
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			text += variant.Text
		}
	}

	return &models.ExecutionResult{
		Output:     text,
		DurationMs: elapsed,
	}, nil
}

// translateModelForBedrock converts standard Anthropic model names to the
// cross-region Bedrock inference profile format (us.anthropic.{model}-v1:0).
func translateModelForBedrock(model anthropic.Model) anthropic.Model {
	bedrockModels := map[anthropic.Model]string{
		anthropic.ModelClaudeSonnet4_20250514:   "us.anthropic.claude-sonnet-4-20250514-v1:0",
		anthropic.ModelClaudeSonnet4_5_20250929: "us.anthropic.claude-sonnet-4-5-20250929-v1:0",
		anthropic.ModelClaudeHaiku4_5_20251001:  "us.anthropic.claude-haiku-4-5-20251001-v1:0",
		anthropic.ModelClaudeOpus4_1_20250805:   "us.anthropic.claude-opus-4-1-20250805-v1:0",
		anthropic.ModelClaudeOpus4_5_20251101:   "us.anthropic.claude-opus-4-5-20251101-v1:0",
		anthropic.ModelClaude3_7Sonnet20250219:  "us.anthropic.claude-3-7-sonnet-20250219-v1:0",
		anthropic.ModelClaude3_5Haiku20241022:   "us.anthropic.claude-3-5-haiku-20241022-v1:0",
	}

	if bedrockModel, ok := bedrockModels[model]; ok {
		return anthropic.Model(bedrockModel)
	}

	// Unmapped names pass through; they may already be in Bedrock format.
	return model
}

// TokenTracker tracks token usage across API calls.
type TokenTracker struct {
	mu        sync.Mutex
	inputTok  int64
	outputTok int64
	calls     int
}

// NewTokenTracker creates a new token tracker.
func NewTokenTracker() *TokenTracker {
	return &TokenTracker{}
}

// Add records token usage from an API call.
func (t *TokenTracker) Add(input, output int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inputTok += input
	t.outputTok += output
	t.calls++
}

// Total returns the total input and output tokens tracked.
func (t *TokenTracker) Total() (input, output int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inputTok, t.outputTok
}

// Calls returns the number of API calls made.
func (t *TokenTracker) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

// Verify APIRunner implements Runner at compile time.
var _ Runner = (*APIRunner)(nil)
