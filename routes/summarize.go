package routes

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"pdf-research-summarizer/internal/config"
	"pdf-research-summarizer/internal/logger"
	"pdf-research-summarizer/middleware"
	"pdf-research-summarizer/models"
	"pdf-research-summarizer/services"
	"pdf-research-summarizer/utils"
)

// SetupSummarizeRoutes registers the PDF summarization endpoint. The service
// may be nil when no API key is configured; the endpoint then answers 503.
func SetupSummarizeRoutes(router *gin.Engine, cfg *config.Config, svc *services.SummaryService) {
	api := router.Group("/api")
	api.POST("/summarize", HandleSummarize(cfg, svc))
}

// HandleSummarize accepts a multipart PDF upload and returns the structured
// summary.
func HandleSummarize(cfg *config.Config, svc *services.SummaryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if svc == nil {
			utils.RespondWithServiceUnavailable(c, "Summarization is not configured on this server")
			return
		}

		if c.Request.ContentLength > cfg.MaxFileSize+1024 {
			utils.RespondWithError(c, http.StatusRequestEntityTooLarge,
				"file_too_large",
				"File size exceeds maximum limit",
				gin.H{"max_size": cfg.MaxFileSize})
			return
		}

		file, header, err := c.Request.FormFile("file")
		if err != nil {
			utils.RespondWithBadRequest(c, "No PDF file provided", nil)
			return
		}
		defer file.Close()

		if header.Size > cfg.MaxFileSize {
			utils.RespondWithError(c, http.StatusRequestEntityTooLarge,
				"file_too_large",
				"File size exceeds maximum limit",
				gin.H{"max_size": cfg.MaxFileSize, "received": header.Size})
			return
		}

		ct := header.Header.Get("Content-Type")
		if !strings.Contains(ct, "pdf") && !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
			utils.RespondWithBadRequest(c, "Only PDF files are allowed", gin.H{"content_type": ct})
			return
		}

		data, err := io.ReadAll(io.LimitReader(file, cfg.MaxFileSize+1))
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to read uploaded file", nil)
			return
		}
		if int64(len(data)) > cfg.MaxFileSize {
			utils.RespondWithError(c, http.StatusRequestEntityTooLarge,
				"file_too_large",
				"File size exceeds maximum limit",
				gin.H{"max_size": cfg.MaxFileSize})
			return
		}

		doc := models.Document{
			Data:        data,
			ContentType: "application/pdf",
			Size:        int64(len(data)),
			Filename:    header.Filename,
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		summary, err := svc.Summarize(ctx, doc)
		if err != nil {
			respondPipelineError(c, err)
			return
		}

		status := http.StatusOK
		if summary.Partial {
			// Partial results are still useful; flag them instead of failing.
			c.Header("X-Summary-Partial", "true")
		}
		c.JSON(status, summary)
	}
}

func respondPipelineError(c *gin.Context, err error) {
	requestID := middleware.GetRequestID(c)

	var vErr *services.ValidationError
	var eErr *services.ExtractionError
	var pErr *services.PipelineError
	switch {
	case errors.As(err, &vErr):
		status := http.StatusBadRequest
		code := "invalid_file"
		if vErr.TooLarge {
			status = http.StatusRequestEntityTooLarge
			code = "file_too_large"
		}
		utils.RespondWithError(c, status, code, vErr.Reason, nil)
	case errors.As(err, &eErr):
		logger.Warn("PDF extraction failed", "request_id", requestID, "error", err)
		utils.RespondWithError(c, http.StatusUnprocessableEntity,
			"extraction_failed",
			"Could not extract text from the PDF",
			gin.H{"reason": eErr.Reason})
	case errors.As(err, &pErr):
		logger.Error("Summarization pipeline failed", "request_id", requestID,
			"failed_chunks", pErr.FailedChunks, "total_chunks", pErr.TotalChunks)
		utils.RespondWithError(c, http.StatusBadGateway,
			"summarization_failed",
			"Too many sections failed to summarize",
			gin.H{"failed_chunks": pErr.FailedChunks, "total_chunks": pErr.TotalChunks})
	case errors.Is(err, context.DeadlineExceeded):
		utils.RespondWithError(c, http.StatusGatewayTimeout,
			"timeout",
			"Summarization did not finish in time",
			nil)
	default:
		logger.Error("Summarization failed", "request_id", requestID, "error", err)
		utils.RespondWithInternalError(c, "Failed to summarize document", nil)
	}
}
