package controller

import (
	"net/http"

	"markov-go/internal/model/markov"
	"markov-go/internal/service"
	"markov-go/internal/service/generator"
	"markov-go/internal/service/stream"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type GenerateController struct {
	completionService *service.CompletionService
	logger            *zap.Logger
}

func NewGenerateController(completionService *service.CompletionService, logger *zap.Logger) *GenerateController {
	return &GenerateController{
		completionService: completionService,
		logger:            logger,
	}
}

type MessageRequest struct {
	Role    string `json:"role" binding:"required,oneof=user assistant"`
	Content string `json:"content"`
}

type GenerateRequest struct {
	Messages  []MessageRequest `json:"messages" binding:"dive"`
	Order     int              `json:"order" binding:"omitempty,min=1"`
	MaxTokens int              `json:"max_tokens" binding:"omitempty,min=1"`
}

type InspectRequest struct {
	Messages []MessageRequest `json:"messages" binding:"dive"`
	Order    int              `json:"order" binding:"omitempty,min=1"`
}

func toConversation(messages []MessageRequest) []markov.Message {
	conversation := make([]markov.Message, 0, len(messages))
	for _, msg := range messages {
		conversation = append(conversation, markov.Message{
			Role:    markov.Role(msg.Role),
			Content: msg.Content,
		})
	}
	return conversation
}

// Generate streams the completion as plain text, one chunk per flush
func (gc *GenerateController) Generate(c *gin.Context) {
	var request GenerateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		gc.logger.Error("Invalid request payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request payload",
			"details": err.Error(),
		})
		return
	}

	gc.logger.Info("Generating completion",
		zap.Int("messages", len(request.Messages)),
		zap.Int("order", request.Order),
		zap.Int("max_tokens", request.MaxTokens))

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Header("Cache-Control", "no-cache, no-transform")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	// The request context is cancelled when the client disconnects
	chunks := gc.completionService.Generate(c.Request.Context(), toConversation(request.Messages), generator.Options{
		Order:     request.Order,
		MaxTokens: request.MaxTokens,
	})

	summary, err := stream.Deliver(chunks, stream.NewWriterSink(c.Writer))
	if err != nil {
		gc.logger.Warn("Streaming aborted", zap.Error(err), zap.Int("chunks", summary.Chunks))
		return
	}

	gc.logger.Debug("Streaming complete",
		zap.Int("chunks", summary.Chunks),
		zap.Bool("diagnostic", summary.Diagnostic),
		zap.String("reason", string(summary.Result.Reason)))
}

// Inspect returns the statistics of the model that would be built for a conversation
func (gc *GenerateController) Inspect(c *gin.Context) {
	var request InspectRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		gc.logger.Error("Invalid request payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request payload",
			"details": err.Error(),
		})
		return
	}

	stats, err := gc.completionService.Inspect(toConversation(request.Messages), request.Order)
	if err != nil {
		gc.logger.Error("Failed to inspect model", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to inspect model",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, stats)
}
