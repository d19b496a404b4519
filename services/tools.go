package services

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// ToolFunc is a capability the agent can invoke by name with a string
// argument, returning a string result that is fed back into its reasoning.
type ToolFunc func(ctx context.Context, input string) (string, error)

// ToolRegistry maps tool names to callables and carries the matching
// function declarations handed to the model. Dispatch is explicit: an unknown
// name is an error result, never a panic.
type ToolRegistry struct {
	funcs map[string]ToolFunc
	decls []*genai.FunctionDeclaration
}

// NewToolRegistry returns an empty registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{funcs: make(map[string]ToolFunc)}
}

// Register adds a tool under its declared name.
func (r *ToolRegistry) Register(decl *genai.FunctionDeclaration, fn ToolFunc) {
	r.funcs[decl.Name] = fn
	r.decls = append(r.decls, decl)
}

// Tools renders the registry as genai tool declarations. Returns nil for an
// empty registry so a tool-less agent config stays tool-less.
func (r *ToolRegistry) Tools() []*genai.Tool {
	if len(r.decls) == 0 {
		return nil
	}
	return []*genai.Tool{{FunctionDeclarations: r.decls}}
}

// Invoke dispatches a tool call by name.
func (r *ToolRegistry) Invoke(ctx context.Context, name, input string) (string, error) {
	fn, ok := r.funcs[name]
	if !ok {
		return "", fmt.Errorf("unknown tool %q requested", name)
	}
	return fn(ctx, input)
}

// SearchDocumentsDeclaration describes the retrieval tool exposed to the
// compliance agent.
func SearchDocumentsDeclaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        "search_documents",
		Description: "Search for relevant licensing rules based on the apparel design information stored in the vector database using a semantic query.",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"query": {
					Type:        genai.TypeString,
					Description: "The natural language query to search the vector database. This should be a concise search query.",
				},
			},
			Required: []string{"query"},
		},
	}
}

// SearchDocumentsTool binds the declaration to the retrieval pipeline's query
// operation.
func SearchDocumentsTool(pipeline *RetrievalPipeline) ToolFunc {
	return func(ctx context.Context, query string) (string, error) {
		return pipeline.Query(ctx, query, DefaultTopK)
	}
}
