package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github/itish2003/compliance-rag/models"

	"google.golang.org/genai"
)

// maxToolTurns bounds the tool-calling loop; a run that has not produced a
// final answer after this many tool rounds is treated as failed.
const maxToolTurns = 8

// AgentService runs the two reasoning agents. Each invocation is a single
// stateless request: images in, validated verdict out. The compliance agent
// may call the document-retrieval tool any number of times before answering;
// the trademark agent answers directly from the visual input with a mandatory
// structured schema.
type AgentService interface {
	CheckCompliance(ctx context.Context, imageURIs []string) (models.ComplianceVerdict, error)
	DetectTrademarks(ctx context.Context, imageURIs []string) (models.TrademarkVerdict, error)
}

// generateCaller is the slice of the genai client the agents need, extracted
// so tests can script model behavior.
type generateCaller interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type agentServiceImpl struct {
	api   generateCaller
	model string
	tools *ToolRegistry
}

// NewAgentService wires the Gemini client and the retrieval pipeline into an
// AgentService. The pipeline's query operation is registered as the
// 'search_documents' tool.
func NewAgentService(client *genai.Client, model string, pipeline *RetrievalPipeline) AgentService {
	registry := NewToolRegistry()
	registry.Register(SearchDocumentsDeclaration(), SearchDocumentsTool(pipeline))
	return &agentServiceImpl{
		api:   client.Models,
		model: model,
		tools: registry,
	}
}

// CheckCompliance implements AgentService. The agent decides autonomously
// whether and how often to search the licensing documents (tool choice AUTO),
// then answers in the two-line text convention, which is parsed into a
// validated verdict. The Gemini API does not allow combining tool
// declarations with a constrained response schema in one call, so the
// validation lives in the parser instead.
func (a *agentServiceImpl) CheckCompliance(ctx context.Context, imageURIs []string) (models.ComplianceVerdict, error) {
	contents, err := buildAgentInput(imageURIs, compliancePrompt)
	if err != nil {
		return models.ComplianceVerdict{}, err
	}

	config := &genai.GenerateContentConfig{
		Tools:             a.tools.Tools(),
		SystemInstruction: ComplianceSystemPrompt(),
		ToolConfig: &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{
				Mode: genai.FunctionCallingConfigModeAuto,
			},
		},
	}

	answer, err := a.runToolLoop(ctx, contents, config)
	if err != nil {
		return models.ComplianceVerdict{}, err
	}

	verdict, err := models.ParseComplianceText(answer)
	if err != nil {
		return models.ComplianceVerdict{}, fmt.Errorf("compliance agent produced an invalid verdict: %w", err)
	}
	return verdict, nil
}

// DetectTrademarks implements AgentService. No tools; the response schema is
// enforced by the API, and the decoded JSON still passes through the
// validating constructor.
func (a *agentServiceImpl) DetectTrademarks(ctx context.Context, imageURIs []string) (models.TrademarkVerdict, error) {
	contents, err := buildAgentInput(imageURIs, trademarkPrompt)
	if err != nil {
		return models.TrademarkVerdict{}, err
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: TrademarkSystemPrompt(),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    trademarkSchema(),
	}

	result, err := a.api.GenerateContent(ctx, a.model, contents, config)
	if err != nil {
		return models.TrademarkVerdict{}, fmt.Errorf("gemini api call failed: %w", err)
	}

	answer, err := candidateText(result)
	if err != nil {
		return models.TrademarkVerdict{}, err
	}

	verdict, err := models.ParseTrademarkJSON([]byte(answer))
	if err != nil {
		return models.TrademarkVerdict{}, fmt.Errorf("trademark agent produced an invalid verdict: %w", err)
	}
	return verdict, nil
}

// runToolLoop drives the send -> function call -> function response cycle
// until the model produces a final text answer. The conversation history is
// an explicit contents slice, so each request is self-contained.
func (a *agentServiceImpl) runToolLoop(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (string, error) {
	for turn := 0; turn < maxToolTurns; turn++ {
		result, err := a.api.GenerateContent(ctx, a.model, contents, config)
		if err != nil {
			return "", fmt.Errorf("gemini api call failed: %w", err)
		}
		if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
			return "", fmt.Errorf("gemini returned an empty response")
		}

		modelContent := result.Candidates[0].Content
		calls := functionCalls(modelContent)
		if len(calls) == 0 {
			return candidateText(result)
		}

		// The model may request several tool calls in one turn; the API
		// expects exactly one response part per call in the next user turn.
		responseParts := make([]*genai.Part, 0, len(calls))
		for _, call := range calls {
			log.Printf("AGENT: Wants to call tool %q with args: %v", call.Name, call.Args)

			var toolResult string
			query, ok := call.Args["query"].(string)
			if !ok {
				toolResult = "Error: 'query' argument must be a string."
			} else if out, err := a.tools.Invoke(ctx, call.Name, query); err != nil {
				log.Printf("AGENT: Tool %q failed: %v", call.Name, err)
				toolResult = fmt.Sprintf("Error: %v", err)
			} else {
				toolResult = out
			}

			responseParts = append(responseParts, &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					Name:     call.Name,
					Response: map[string]interface{}{"result": toolResult},
				},
			})
		}

		contents = append(contents, modelContent, &genai.Content{
			Role:  genai.RoleUser,
			Parts: responseParts,
		})
	}
	return "", fmt.Errorf("agent did not produce a final answer within %d tool turns", maxToolTurns)
}

// buildAgentInput assembles the agent's input items: one user turn carrying
// the images as inline blobs, and one carrying the task prompt. Images must
// already be normalized to data URIs.
func buildAgentInput(imageURIs []string, prompt string) ([]*genai.Content, error) {
	if len(imageURIs) == 0 {
		return nil, fmt.Errorf("at least one image is required")
	}

	imageParts := make([]*genai.Part, 0, len(imageURIs))
	for i, uri := range imageURIs {
		mediaType, data, err := DecodeDataURI(uri)
		if err != nil {
			return nil, fmt.Errorf("image %d is not a valid data URI: %w", i, err)
		}
		imageParts = append(imageParts, &genai.Part{
			InlineData: &genai.Blob{MIMEType: mediaType, Data: data},
		})
	}

	return []*genai.Content{
		{Role: genai.RoleUser, Parts: imageParts},
		{Role: genai.RoleUser, Parts: []*genai.Part{{Text: prompt}}},
	}, nil
}

// functionCalls collects every function call part of a model turn, in order.
// An empty result means the turn is a final answer.
func functionCalls(content *genai.Content) []*genai.FunctionCall {
	var calls []*genai.FunctionCall
	for _, part := range content.Parts {
		if part.FunctionCall != nil {
			calls = append(calls, part.FunctionCall)
		}
	}
	return calls
}

// candidateText concatenates the text parts of the first candidate.
func candidateText(result *genai.GenerateContentResponse) (string, error) {
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini returned an empty response")
	}
	var sb strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("gemini response contained no text")
	}
	return sb.String(), nil
}

// trademarkSchema declares the mandatory structured output for the trademark
// agent.
func trademarkSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"trademark_detected": {
				Type:        genai.TypeString,
				Enum:        []string{"Yes", "No"},
				Description: "Whether the design contains a licensed trademark.",
			},
			"organization": {
				Type:        genai.TypeString,
				Nullable:    genai.Ptr(true),
				Description: "The organization or university owning the detected mark, or null when none is detected.",
			},
		},
		Required: []string{"trademark_detected"},
	}
}
