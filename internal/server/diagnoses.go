package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/mohammad-safakhou/medconsensus/internal/report"
	"github.com/mohammad-safakhou/medconsensus/internal/workflow"
)

// createDiagnosis runs the workflow synchronously.
//
//	@Summary	Run a consensus diagnosis
//	@Tags		diagnoses
//	@Accept		json
//	@Produce	json
//	@Param		payload	body		DiagnosisRequest	true	"Patient case"
//	@Success	200		{object}	DiagnosisResponse
//	@Failure	400		{object}	HTTPError
//	@Failure	500		{object}	HTTPError
//	@Router		/api/diagnoses [post]
func (s *Server) createDiagnosis(c echo.Context) error {
	var req DiagnosisRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req.Topic = strings.TrimSpace(req.Topic)
	if req.Topic == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "topic is required")
	}
	if req.MaxRounds < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "max_rounds cannot be negative")
	}
	if req.Language != "" {
		if _, ok := report.LookupLanguage(req.Language); !ok {
			return echo.NewHTTPError(http.StatusBadRequest, "unsupported language: "+req.Language)
		}
		if s.translator == nil {
			return echo.NewHTTPError(http.StatusBadRequest, "translation is not enabled")
		}
	}
	rounds := req.MaxRounds
	if rounds == 0 {
		rounds = s.maxRounds
	}

	ctx := c.Request().Context()
	initial := workflow.NewState(req.Topic, req.Symptoms, req.MedicalHistory, req.TestResults, rounds)
	final, err := s.runner.Run(ctx, initial)
	if err != nil {
		var cfgErr *workflow.ConfigurationError
		if errors.As(err, &cfgErr) {
			return echo.NewHTTPError(http.StatusInternalServerError, "workflow misconfigured: "+cfgErr.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	finished := s.now()
	rep := report.Assemble(final)
	if req.Language != "" {
		translated, err := report.Translate(ctx, s.translator, rep, req.Language, finished, s.logger)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		rep = translated
	}
	s.logger.Info("diagnosis completed",
		zap.String("run_id", final.RunID),
		zap.Bool("timed_out", final.TimedOut),
		zap.Int("rounds", final.CurrentRound))

	return c.JSON(http.StatusOK, DiagnosisResponse{
		RunID:    final.RunID,
		FileName: report.FileName(finished),
		Report:   rep,
		Markdown: report.Markdown(rep, finished),
	})
}

// languages lists the translation targets.
//
//	@Summary	Supported report languages
//	@Tags		diagnoses
//	@Produce	json
//	@Success	200	{object}	LanguagesResponse
//	@Router		/api/languages [get]
func (s *Server) languages(c echo.Context) error {
	return c.JSON(http.StatusOK, LanguagesResponse{Languages: report.Languages()})
}
