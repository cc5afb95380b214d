package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"quantcv/internal/market"
	"quantcv/internal/monitor"
	"quantcv/internal/strategy"
	"quantcv/internal/strategy/backtest"
	"quantcv/internal/strategy/optimizer"
)

// Response represents a standard API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// RunRequest represents a cross-validation run request. Either observations
// or a synthetic length must be supplied.
type RunRequest struct {
	Observations    []market.Observation      `json:"observations,omitempty"`
	Synthetic       int                       `json:"synthetic,omitempty"`
	Symbol          string                    `json:"symbol,omitempty"`
	Strategy        *strategy.Definition      `json:"strategy,omitempty"`
	Backtest        *backtest.Config          `json:"backtest,omitempty"`
	CrossValidation *optimizer.CrossValConfig `json:"cross_validation,omitempty"`
}

// BacktestHandler handles backtest API requests
type BacktestHandler struct {
	defaults struct {
		backtest *backtest.Config
		crossVal *optimizer.CrossValConfig
	}
	log     *logrus.Logger
	metrics *monitor.Metrics
}

// NewBacktestHandler creates a new backtest handler
func NewBacktestHandler(bt *backtest.Config, cv *optimizer.CrossValConfig, log *logrus.Logger, metrics *monitor.Metrics) *BacktestHandler {
	h := &BacktestHandler{log: log, metrics: metrics}
	h.defaults.backtest = bt
	h.defaults.crossVal = cv
	return h
}

// Run executes a cross-validated backtest and returns the full report.
func (h *BacktestHandler) Run(c *gin.Context) {
	var req RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	series, err := h.resolveSeries(&req)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	def := req.Strategy
	if def == nil {
		def = strategy.DefaultDefinition()
	}
	btConfig := req.Backtest
	if btConfig == nil {
		btConfig = h.defaults.backtest
	}
	cvConfig := req.CrossValidation
	if cvConfig == nil {
		cvConfig = h.defaults.crossVal
	}

	validator := optimizer.NewCrossValidator(cvConfig, btConfig, logrus.NewEntry(h.log))

	start := time.Now()
	report, err := validator.Run(c.Request.Context(), series, def)
	if err != nil {
		var insufficient *optimizer.InsufficientDataError
		status := http.StatusInternalServerError
		if errors.As(err, &insufficient) {
			status = http.StatusUnprocessableEntity
		}
		if h.metrics != nil {
			h.metrics.ObserveRun("failed", 0, 0, time.Since(start))
		}
		c.JSON(status, Response{Success: false, Error: err.Error()})
		return
	}

	if h.metrics != nil {
		skipped := cvConfig.Folds - len(report.FoldDetails)
		if skipped < 0 {
			skipped = 0
		}
		h.metrics.ObserveRun("completed", len(report.FoldDetails), skipped, time.Since(start))
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: report})
}

// Health reports service liveness.
func (h *BacktestHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"status": "ok"}})
}

func (h *BacktestHandler) resolveSeries(req *RunRequest) (market.Series, error) {
	if len(req.Observations) > 0 {
		series := market.Series(req.Observations)
		if err := series.Validate(); err != nil {
			return nil, err
		}
		return series, nil
	}
	if req.Synthetic > 0 {
		symbol := req.Symbol
		if symbol == "" {
			symbol = "SPY"
		}
		return market.Synthetic(symbol, req.Synthetic, 42), nil
	}
	return nil, errors.New("either observations or synthetic must be provided")
}
