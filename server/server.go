// Package server is the thin HTTP surface over the hybrid router.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/startel-org/startel/engine"
)

// Answerer answers one question. router.Router implements it.
type Answerer interface {
	Answer(ctx context.Context, question string) (string, error)
}

// AskRequest is the body of POST /api/ask.
type AskRequest struct {
	Question string `json:"question" binding:"required"`
}

// AskResponse is the reply of POST /api/ask.
type AskResponse struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ErrorResponse carries a client-facing error message.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Handler serves the ask endpoint.
type Handler struct {
	answerer Answerer
}

// NewHandler creates a Handler over the given Answerer.
func NewHandler(answerer Answerer) *Handler {
	return &Handler{answerer: answerer}
}

// Routes builds the gin engine with all endpoints registered.
func (h *Handler) Routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", h.Health)
	r.POST("/api/ask", h.Ask)
	return r
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ask answers a single question.
func (h *Handler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "question is required"})
		return
	}

	answer, err := h.answerer.Answer(c.Request.Context(), req.Question)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, engine.ErrAmbiguousYear) {
			status = http.StatusBadRequest
		}
		log.Error().Err(err).Str("question", req.Question).Msg("answer failed")
		c.JSON(status, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, AskResponse{Question: req.Question, Answer: answer})
}
