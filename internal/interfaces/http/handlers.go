package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/garyjia/classwallet-submitter/internal/application/service"
	"github.com/garyjia/classwallet-submitter/internal/domain/entity"
	"github.com/garyjia/classwallet-submitter/internal/report"
)

// SubmissionRunner runs one attempt and later releases its browser
type SubmissionRunner interface {
	Submit(ctx context.Context, req *entity.SubmissionRequest) *service.Attempt
	Finish(ctx context.Context, attempt *service.Attempt)
}

// HistoryManager reads and prunes submission history
type HistoryManager interface {
	List(ctx context.Context, filter entity.HistoryFilter) ([]*entity.SubmissionRecord, error)
	Delete(ctx context.Context, timestamp string) (int64, error)
	Purge(ctx context.Context, createdBy string) (int64, error)
	Analytics(ctx context.Context, month string) (*report.Summary, []*entity.SubmissionRecord, error)
	Export(ctx context.Context, month, dir string) (string, error)
}

// Handlers contains all HTTP request handlers
type Handlers struct {
	runner    SubmissionRunner
	history   HistoryManager
	gate      *semaphore.Weighted
	exportDir string
	baseCtx   context.Context
	holds     *sync.WaitGroup
	logger    *zap.Logger
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Busy      bool   `json:"busy"`
}

// HistoryResponse lists submission records
type HistoryResponse struct {
	Success     bool                       `json:"success"`
	Submissions []*entity.SubmissionRecord `json:"submissions"`
	Count       int                        `json:"count"`
}

// DeleteResponse reports a history deletion
type DeleteResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	DeletedCount int64  `json:"deleted_count"`
}

const busyMessage = "A submission is already in progress. Finish reviewing it in the browser before starting another."

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	busy := !h.gate.TryAcquire(1)
	if !busy {
		h.gate.Release(1)
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Busy:      busy,
		},
	})
}

// Submit handles POST /api/v1/submit. The response is sent when the
// workflow ends; the browser may stay open for review afterwards and
// further submissions are refused until it is closed.
func (h *Handlers) Submit(c *gin.Context) {
	var req entity.SubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid submission body", zap.Error(err))
		c.JSON(http.StatusBadRequest, entity.SubmissionOutcome{
			Message:   fmt.Sprintf("Invalid request: %v", err),
			ErrorCode: entity.ErrorCodeInvalidRequest,
		})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, entity.SubmissionOutcome{
			Message:   fmt.Sprintf("Invalid request: %v", err),
			ErrorCode: entity.ErrorCodeInvalidRequest,
			PONumber:  req.PONumber,
		})
		return
	}

	if !h.gate.TryAcquire(1) {
		c.JSON(http.StatusConflict, entity.SubmissionOutcome{Message: busyMessage})
		return
	}

	// A workflow runs for minutes, well past the server-wide write timeout
	if err := http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{}); err != nil {
		h.logger.Debug("Could not clear write deadline", zap.Error(err))
	}

	attempt := h.runner.Submit(h.baseCtx, &req)

	h.holds.Add(1)
	go func() {
		defer h.holds.Done()
		defer h.gate.Release(1)
		h.runner.Finish(h.baseCtx, attempt)
	}()

	c.JSON(http.StatusOK, attempt.Outcome)
}

// ListSubmissions handles GET /api/v1/submissions
func (h *Handlers) ListSubmissions(c *gin.Context) {
	filter := entity.HistoryFilter{CreatedBy: c.Query("created_by")}
	if limit := c.Query("limit"); limit != "" && limit != "all" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid limit"})
			return
		}
		filter.Limit = n
	}

	records, err := h.history.List(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list submissions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: err.Error()})
		return
	}
	if records == nil {
		records = []*entity.SubmissionRecord{}
	}

	c.JSON(http.StatusOK, HistoryResponse{Success: true, Submissions: records, Count: len(records)})
}

// DeleteSubmission handles DELETE /api/v1/submissions/:timestamp
func (h *Handlers) DeleteSubmission(c *gin.Context) {
	timestamp := c.Param("timestamp")

	n, err := h.history.Delete(c.Request.Context(), timestamp)
	switch {
	case errors.Is(err, service.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, DeleteResponse{
			Success: false,
			Message: fmt.Sprintf("Could not delete submission %s", timestamp),
		})
		return
	case err != nil:
		h.logger.Error("Failed to delete submission", zap.String("timestamp", timestamp), zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, DeleteResponse{
		Success:      true,
		Message:      fmt.Sprintf("Submission %s deleted successfully", timestamp),
		DeletedCount: n,
	})
}

// DeleteAllSubmissions handles DELETE /api/v1/submissions
func (h *Handlers) DeleteAllSubmissions(c *gin.Context) {
	createdBy := c.Query("created_by")

	n, err := h.history.Purge(c.Request.Context(), createdBy)
	if err != nil {
		h.logger.Error("Failed to delete submissions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, DeleteResponse{
		Success:      true,
		Message:      fmt.Sprintf("Deleted %d submissions", n),
		DeletedCount: n,
	})
}

// Analytics handles GET /api/v1/reports/analytics?month=YYYY-MM[&format=xlsx]
func (h *Handlers) Analytics(c *gin.Context) {
	month := c.DefaultQuery("month", time.Now().Format(report.MonthLayout))

	if c.Query("format") == "xlsx" {
		path, err := h.history.Export(c.Request.Context(), month, h.exportDir)
		if err != nil {
			h.analyticsError(c, month, err)
			return
		}
		c.FileAttachment(path, filepath.Base(path))
		return
	}

	summary, _, err := h.history.Analytics(c.Request.Context(), month)
	if err != nil {
		h.analyticsError(c, month, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: summary})
}

func (h *Handlers) analyticsError(c *gin.Context, month string, err error) {
	if errors.Is(err, report.ErrInvalidMonth) {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}
	h.logger.Error("Failed to build analytics", zap.String("month", month), zap.Error(err))
	c.JSON(http.StatusInternalServerError, Response{Success: false, Error: err.Error()})
}
