package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/gin-gonic/gin"

	"iara.com/iarasync/core"
	iara "iara.com/iarasync/iara/core"
	"iara.com/iarasync/iara/model"
	"iara.com/iarasync/logging"
	"iara.com/iarasync/web/common"
	"iara.com/iarasync/web/middlewares"
)

// SyncService is what the endpoints need from the engine.
type SyncService interface {
	Sync(ctx context.Context, req SyncRequestDTO) (*core.RunReport, error)
	Runs(ctx context.Context, filter iara.RunFilter) ([]model.SyncRun, int64, error)
}

// RunnerService serves the endpoints from a configured runner.
type RunnerService struct {
	Runner *iara.Runner
}

func (s *RunnerService) Sync(ctx context.Context, req SyncRequestDTO) (*core.RunReport, error) {
	return s.Runner.With(req.Source, req.Target, req.DryRun).Run(ctx)
}

func (s *RunnerService) Runs(ctx context.Context, filter iara.RunFilter) ([]model.SyncRun, int64, error) {
	store, err := s.Runner.Open(ctx, s.Runner.Config.Target, true)
	if err != nil {
		return nil, 0, err
	}
	defer store.Close()
	return iara.SearchRuns(ctx, store.DB, filter)
}

type Endpoint struct {
	service SyncService
	running atomic.Bool
}

func Register(r *gin.RouterGroup, service SyncService) *Endpoint {
	endpoint := &Endpoint{service: service}
	r.POST("/sync", endpoint.Sync)
	r.GET("/runs", endpoint.ListRuns)
	r.POST("/runs/search", endpoint.SearchRuns)
	return endpoint
}

type SyncRequestDTO struct {
	Source string `json:"source,omitempty"`
	Target string `json:"target,omitempty" binding:"omitempty,nefield=Source"`
	DryRun bool   `json:"dryRun"`
}

// Sync runs one reconciliation. A second request while one is in flight
// gets 409.
func (ep *Endpoint) Sync(c *gin.Context) {
	var req SyncRequestDTO
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, common.NewErrorResponse(common.FormatBindingError(err)))
			return
		}
	}

	if !ep.running.CompareAndSwap(false, true) {
		c.JSON(http.StatusConflict, common.NewErrorResponse("a synchronization is already running"))
		return
	}
	defer ep.running.Store(false)

	ctx := logging.WithField(context.WithoutCancel(c.Request.Context()), "operator", middlewares.OperatorName(c))
	report, err := ep.service.Sync(ctx, req)
	if err != nil {
		resp := common.NewErrorResponse(err.Error())
		if report != nil {
			resp.RunID = report.RunID.String()
		}
		c.JSON(http.StatusInternalServerError, resp)
		return
	}

	c.JSON(http.StatusOK, common.NewSuccessResponse(report))
}

func (ep *Endpoint) ListRuns(c *gin.Context) {
	filter := iara.RunFilter{Limit: 50, Status: c.Query("status")}
	if val, err := strconv.Atoi(c.Query("limit")); err == nil {
		filter.Limit = val
	}
	if val, err := strconv.Atoi(c.Query("offset")); err == nil {
		filter.Offset = val
	}
	ep.search(c, filter)
}

type RunSearchDTO struct {
	Since  *common.DateOnly `json:"since"`
	Status string           `json:"status" binding:"omitempty,oneof=succeeded failed"`
	Limit  int              `json:"limit" binding:"min=0,max=500"`
	Offset int              `json:"offset" binding:"min=0"`
}

func (ep *Endpoint) SearchRuns(c *gin.Context) {
	var params RunSearchDTO
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(common.FormatBindingError(err)))
		return
	}
	if params.Limit == 0 {
		params.Limit = 50
	}
	ep.search(c, iara.RunFilter{
		Since:  params.Since.TimePtr(),
		Status: params.Status,
		Limit:  params.Limit,
		Offset: params.Offset,
	})
}

func (ep *Endpoint) search(c *gin.Context, filter iara.RunFilter) {
	runs, total, err := ep.service.Runs(c.Request.Context(), filter)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, core.ErrFatal) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, common.NewErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, common.NewSearchResponse(runs, total, filter.Limit, filter.Offset))
}
