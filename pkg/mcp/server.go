package mcp

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"markov-go/internal/config"
	"markov-go/internal/model/markov"
	"markov-go/internal/service"
	"markov-go/internal/service/generator"

	"github.com/gin-gonic/gin"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

const mcpPath = "/mcp"

type CompletionServer struct {
	server            *mcp.Server
	completionService *service.CompletionService
	logger            *zap.Logger
	handler           *mcp.StreamableHTTPHandler
}

type MessageParam struct {
	Role    string `json:"role" jsonschema:"author of the message, user or assistant"`
	Content string `json:"content" jsonschema:"text of the message"`
}

type GenerateParams struct {
	Messages  []MessageParam `json:"messages" jsonschema:"conversation so far, oldest first"`
	Order     int            `json:"order,omitempty" jsonschema:"number of preceding tokens used as context"`
	MaxTokens int            `json:"max_tokens,omitempty" jsonschema:"maximum number of tokens to generate"`
}

type InspectParams struct {
	Messages []MessageParam `json:"messages" jsonschema:"conversation so far, oldest first"`
	Order    int            `json:"order,omitempty" jsonschema:"number of preceding tokens used as context"`
}

func NewCompletionServer(completionService *service.CompletionService, cfg *config.Config, logger *zap.Logger) *CompletionServer {
	server := &CompletionServer{
		completionService: completionService,
		logger:            logger,
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Mcp.Name,
		Version: cfg.Mcp.Version,
	}, nil)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "generate",
		Description: "Generate a reply to a conversation with a Markov model built from a seed corpus and the conversation itself",
	}, server.handleGenerate)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "inspectModel",
		Description: "Report the size of the Markov model that would be built for a conversation: tokens, contexts, vocabulary and transitions",
	}, server.handleInspect)

	server.handler = mcp.NewStreamableHTTPHandler(func(req *http.Request) *mcp.Server {
		return mcpServer
	}, nil)

	server.server = mcpServer
	return server
}

func toConversation(messages []MessageParam) ([]markov.Message, error) {
	conversation := make([]markov.Message, 0, len(messages))
	for i, msg := range messages {
		role := markov.Role(strings.ToLower(msg.Role))
		if !role.Valid() {
			return nil, fmt.Errorf("message %d: unknown role %q", i, msg.Role)
		}
		conversation = append(conversation, markov.Message{Role: role, Content: msg.Content})
	}
	return conversation, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func (s *CompletionServer) handleGenerate(ctx context.Context, req *mcp.CallToolRequest, args GenerateParams) (*mcp.CallToolResult, any, error) {
	s.logger.Info("Handling generate request", zap.Int("messages", len(args.Messages)), zap.Int("max_tokens", args.MaxTokens))

	conversation, err := toConversation(args.Messages)
	if err != nil {
		s.logger.Error("Invalid conversation", zap.Error(err))
		return textResult(fmt.Sprintf("Invalid conversation: %v", err)), nil, nil
	}

	text, result := s.completionService.GenerateText(ctx, conversation, generator.Options{
		Order:     args.Order,
		MaxTokens: args.MaxTokens,
	})

	s.logger.Info("Generate request complete",
		zap.Int("emitted", result.Emitted),
		zap.String("reason", string(result.Reason)))

	return textResult(text), nil, nil
}

func (s *CompletionServer) handleInspect(ctx context.Context, req *mcp.CallToolRequest, args InspectParams) (*mcp.CallToolResult, any, error) {
	conversation, err := toConversation(args.Messages)
	if err != nil {
		return textResult(fmt.Sprintf("Invalid conversation: %v", err)), nil, nil
	}

	stats, err := s.completionService.Inspect(conversation, args.Order)
	if err != nil {
		s.logger.Error("Failed to inspect model", zap.Error(err))
		return textResult(fmt.Sprintf("Failed to inspect model: %v", err)), nil, nil
	}

	return textResult(formatStats(stats)), nil, nil
}

func formatStats(stats generator.TableStats) string {
	var result strings.Builder
	result.WriteString(fmt.Sprintf("Order: %d\n", stats.Order))
	result.WriteString(fmt.Sprintf("Tokens: %d\n", stats.Tokens))
	result.WriteString(fmt.Sprintf("Contexts: %d\n", stats.Contexts))
	result.WriteString(fmt.Sprintf("Vocabulary: %d\n", stats.VocabularySize))
	result.WriteString(fmt.Sprintf("Transitions: %d\n", stats.Transitions))
	result.WriteString(fmt.Sprintf("Singleton contexts: %d\n", stats.SingletonContexts))
	return result.String()
}

// SetupHTTPRoutes mounts the streamable MCP transport on the router
func (s *CompletionServer) SetupHTTPRoutes(router *gin.Engine) {
	s.logger.Info("MCP server mounted", zap.String("path", mcpPath))
	router.Any(mcpPath, gin.WrapH(s.handler))
}
