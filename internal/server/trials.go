package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/medconsensus/internal/oncology"
)

const defaultSearchLimit = 10

// listTrials searches the catalog. A q parameter runs a full-text search;
// otherwise the eligibility filters select matching trials.
//
//	@Summary	Search clinical trials
//	@Tags		trials
//	@Produce	json
//	@Param		q			query		string	false	"Full-text query"
//	@Param		limit		query		int		false	"Maximum hits for q"
//	@Param		type		query		string	false	"Cancer type"
//	@Param		stage		query		string	false	"Stage"
//	@Param		markers		query		string	false	"Comma separated markers"
//	@Param		ps			query		int		false	"ECOG performance status"
//	@Param		brain_mets	query		bool	false	"Brain metastases present"
//	@Success	200			{object}	TrialsResponse
//	@Failure	400			{object}	HTTPError
//	@Router		/api/trials [get]
func (s *Server) listTrials(c echo.Context) error {
	if q := strings.TrimSpace(c.QueryParam("q")); q != "" {
		limit := defaultSearchLimit
		if raw := c.QueryParam("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
			}
			limit = n
		}
		hits, err := s.index.Search(q, limit)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		trials := make([]oncology.Trial, 0, len(hits))
		for _, h := range hits {
			trials = append(trials, h.Trial)
		}
		return c.JSON(http.StatusOK, TrialsResponse{Count: len(trials), Trials: trials, Hits: hits})
	}

	criteria, err := criteriaFromQuery(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	trials := oncology.FindTrials(s.catalog, criteria)
	if trials == nil {
		trials = []oncology.Trial{}
	}
	return c.JSON(http.StatusOK, TrialsResponse{Count: len(trials), Trials: trials})
}

func criteriaFromQuery(c echo.Context) (oncology.TrialCriteria, error) {
	criteria := oncology.TrialCriteria{
		CancerType:     c.QueryParam("type"),
		Stage:          c.QueryParam("stage"),
		PriorTreatment: c.QueryParam("prior_treatment"),
	}
	if raw := c.QueryParam("markers"); raw != "" {
		for _, m := range strings.Split(raw, ",") {
			if m = strings.TrimSpace(m); m != "" {
				criteria.Markers = append(criteria.Markers, m)
			}
		}
	}
	if raw := c.QueryParam("ps"); raw != "" {
		ps, err := strconv.Atoi(raw)
		if err != nil || ps < 0 || ps > 4 {
			return criteria, echo.NewHTTPError(http.StatusBadRequest, "ps must be an ECOG score between 0 and 4")
		}
		criteria.PerformanceStatus = &ps
	}
	if raw := c.QueryParam("brain_mets"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return criteria, echo.NewHTTPError(http.StatusBadRequest, "brain_mets must be a boolean")
		}
		criteria.BrainMetastases = &b
	}
	return criteria, nil
}

// getTrial returns one trial by its NCT id.
//
//	@Summary	Clinical trial details
//	@Tags		trials
//	@Produce	json
//	@Param		id	path		string	true	"NCT identifier"
//	@Success	200	{object}	oncology.Trial
//	@Failure	404	{object}	HTTPError
//	@Router		/api/trials/{id} [get]
func (s *Server) getTrial(c echo.Context) error {
	t, ok := oncology.TrialByID(s.catalog, c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "trial not found")
	}
	return c.JSON(http.StatusOK, t)
}
