package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/medreport/internal/domain/ai"
	"github.com/bryanwahyu/medreport/internal/domain/analysis"
	"github.com/bryanwahyu/medreport/internal/domain/document"
	"github.com/bryanwahyu/medreport/internal/infra/ai/prompt"
)

const (
	defaultModel        = "gpt-4"
	defaultCaptionModel = "gpt-4o-mini"
	defaultTemperature  = 0.2
	defaultMaxTokens    = 4000
	captionMaxTokens    = 120
)

type Config struct {
	APIKey       string
	BaseURL      string
	Model        string
	CaptionModel string
	Temperature  float32
	MaxTokens    int
}

type Client struct {
	*openai.Client
	Model        string
	CaptionModel string
	Temperature  float32
	MaxTokens    int
}

func NewClient(cfg Config) *Client {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	c := &Client{
		Client:       openai.NewClientWithConfig(oc),
		Model:        cfg.Model,
		CaptionModel: cfg.CaptionModel,
		Temperature:  cfg.Temperature,
		MaxTokens:    cfg.MaxTokens,
	}
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.CaptionModel == "" {
		c.CaptionModel = defaultCaptionModel
	}
	if c.Temperature <= 0 {
		c.Temperature = defaultTemperature
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = defaultMaxTokens
	}
	return c
}

// Analyze implements ai.Client.
func (c *Client) Analyze(ctx context.Context, documentText string, history []analysis.Record) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.SystemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: prompt.UserPrompt(documentText, history)},
		},
	}
	c.limit(&req, c.Model, c.MaxTokens)
	return c.complete(ctx, req)
}

// Caption implements document.Captioner using a vision-capable chat model.
func (c *Client) Caption(ctx context.Context, imagePath string) (string, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	mime := "image/jpeg"
	if document.Ext(imagePath) == ".png" {
		mime = "image/png"
	}
	dataURL := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)

	req := openai.ChatCompletionRequest{
		Model: c.CaptionModel,
		Messages: []openai.ChatCompletionMessage{{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: prompt.CaptionPrompt()},
				{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{
					URL:    dataURL,
					Detail: openai.ImageURLDetailLow,
				}},
			},
		}},
	}
	c.limit(&req, c.CaptionModel, captionMaxTokens)
	caption, err := c.complete(ctx, req)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(caption), nil
}

// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens and the
// default temperature.
func (c *Client) limit(req *openai.ChatCompletionRequest, model string, maxTokens int) {
	if isReasoningModel(model) {
		req.MaxCompletionTokens = maxTokens
		return
	}
	req.MaxTokens = maxTokens
	req.Temperature = c.Temperature
}

func (c *Client) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: response has no choices", ai.ErrServiceFailure)
	}
	return resp.Choices[0].Message.Content, nil
}

func isReasoningModel(model string) bool {
	for _, p := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}

func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.Code == "insufficient_quota" {
			return fmt.Errorf("%w: %w", ai.ErrQuotaExceeded, err)
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %w", ai.ErrQuotaExceeded, err)
	}
	return fmt.Errorf("%w: failed to create chat completion: %w", ai.ErrServiceFailure, err)
}
