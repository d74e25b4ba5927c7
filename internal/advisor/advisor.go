// Package advisor drives the appeal pipeline from natural language: a
// Claude tool-use loop over the operation registry, so an owner can ask
// "is my Green Street assessment worth appealing?" and get the pipeline
// run for them.
package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/parcelworks/appealdesk/internal/toolapi"
)

const systemPrompt = "You are an assessment-appeal assistant for residential property owners. " +
	"Use the provided tools to resolve the subject property, gather comparable sales, judge eligibility, " +
	"draft the narrative, and build the evidence packet. Never invent sale prices or addresses; every figure " +
	"must come from a tool result. Be plain about weak cases."

const DefaultModel = "claude-sonnet-4-5"

// Loop ceiling; a full pipeline run is 5-6 tool calls.
const maxTurns = 16

type AnthropicMessager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

type Advisor struct {
	messages AnthropicMessager
	registry *toolapi.Registry
	model    string
}

func New(messages AnthropicMessager, registry *toolapi.Registry, model string) *Advisor {
	if model == "" {
		model = DefaultModel
	}
	return &Advisor{messages: messages, registry: registry, model: model}
}

func NewFromEnv(registry *toolapi.Registry, model string) (*Advisor, error) {
	apiKey := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	if apiKey == "" {
		return nil, errors.New("ANTHROPIC_API_KEY not configured")
	}
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	return New(&c.Messages, registry, model), nil
}

// Ask runs one advisory conversation: the model calls pipeline operations
// until it can answer, and the final text is returned.
func (a *Advisor) Ask(ctx context.Context, question string) (string, error) {
	tools := a.toolParams()
	messages := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(question)),
	}

	for turn := 0; turn < maxTurns; turn++ {
		resp, err := a.messages.New(ctx, anthropic.MessageNewParams{
			Model:     anthropic.Model(a.model),
			MaxTokens: 4096,
			System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
			Messages:  messages,
			Tools:     tools,
		})
		if err != nil {
			return "", err
		}

		if resp.StopReason != anthropic.StopReasonToolUse {
			return collectText(resp), nil
		}

		messages = append(messages, resp.ToParam())
		var results []anthropic.ContentBlockParamUnion
		for _, block := range resp.Content {
			if block.Type != "tool_use" {
				continue
			}
			log.Printf("advisor tool_call name=%s", block.Name)
			results = append(results, a.runTool(ctx, block))
		}
		messages = append(messages, anthropic.NewUserMessage(results...))
	}
	return "", errors.New("tool-use loop did not converge")
}

func (a *Advisor) runTool(ctx context.Context, block anthropic.ContentBlockUnion) anthropic.ContentBlockParamUnion {
	result, err := a.registry.Invoke(ctx, block.Name, json.RawMessage(block.Input))
	if err != nil {
		log.Printf("advisor tool_error name=%s err=%q", block.Name, err.Error())
		return toolResultBlock(block.ID, err.Error(), true)
	}
	blob, err := json.Marshal(result)
	if err != nil {
		return toolResultBlock(block.ID, "encode result: "+err.Error(), true)
	}
	return toolResultBlock(block.ID, string(blob), false)
}

func toolResultBlock(toolUseID, content string, isError bool) anthropic.ContentBlockParamUnion {
	return anthropic.ContentBlockParamUnion{
		OfToolResult: &anthropic.ToolResultBlockParam{
			ToolUseID: toolUseID,
			IsError:   anthropic.Bool(isError),
			Content: []anthropic.ToolResultBlockParamContentUnion{
				{OfText: &anthropic.TextBlockParam{Text: content}},
			},
		},
	}
}

func (a *Advisor) toolParams() []anthropic.ToolUnionParam {
	var out []anthropic.ToolUnionParam
	for _, t := range a.registry.Tools() {
		properties, _ := t.InputSchema["properties"].(map[string]any)
		required, _ := t.InputSchema["required"].([]string)
		out = append(out, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        t.Name,
				Description: anthropic.String(t.Description),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: properties,
					Required:   required,
				},
			},
		})
	}
	return out
}

func collectText(resp *anthropic.Message) string {
	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String()
}
