package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/medconsensus/internal/oncology"
)

// analyze runs the rule-based lung cancer analysis without the workflow.
//
//	@Summary	Lung cancer analysis
//	@Tags		analysis
//	@Accept		json
//	@Produce	json
//	@Param		payload	body		AnalyzeRequest	true	"Case text and patient factors"
//	@Success	200		{object}	AnalyzeResponse
//	@Failure	400		{object}	HTTPError
//	@Router		/api/analyze [post]
func (s *Server) analyze(c echo.Context) error {
	var req AnalyzeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.Text) == "" && strings.TrimSpace(req.TestResults) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "text or test_results is required")
	}
	if req.PerformanceStatus != nil && (*req.PerformanceStatus < 0 || *req.PerformanceStatus > 4) {
		return echo.NewHTTPError(http.StatusBadRequest, "performance_status must be between 0 and 4")
	}

	analysis := oncology.Analyze(oncology.Input{
		Topic:          req.Text,
		MedicalHistory: req.MedicalHistory,
		TestResults:    req.TestResults,
		Patient: oncology.Patient{
			Age:               req.Age,
			Gender:            req.Gender,
			PerformanceStatus: req.PerformanceStatus,
			WeightLoss:        req.WeightLoss,
			Comorbidities:     req.Comorbidities,
			MetastasisSites:   req.MetastasisSites,
			BrainMetastases:   req.BrainMetastases,
			PDL1:              req.PDL1,
			PriorTreatment:    req.PriorTreatment,
		},
	}, s.catalog)
	return c.JSON(http.StatusOK, AnalyzeResponse{Analysis: analysis, Summary: analysis.Summary()})
}
