package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/targetrank-server/internal/domain"
)

// maxPanelSize bounds comparative panel requests.
const maxPanelSize = 200

// handleScoreGene scores one gene on demand and persists the result.
func (s *Server) handleScoreGene(c *gin.Context) {
	symbol := strings.TrimSpace(c.Param("symbol"))
	if symbol == "" {
		s.respondError(c, http.StatusBadRequest, domain.ErrCodeInvalidInput, "gene symbol is required", "")
		return
	}

	scores, err := s.batch.ScoreSingle(c.Request.Context(), symbol)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.respondError(c, http.StatusNotFound, domain.ErrCodeNotFound, "gene not found", symbol)
			return
		}
		s.log.WithError(err).WithField("gene", symbol).Error("On-demand scoring failed")
		s.respondError(c, http.StatusInternalServerError, domain.ErrCodeScoringError, "failed to score gene", err.Error())
		return
	}

	c.JSON(http.StatusOK, scores)
}

// handleGetGeneScores returns the stored composite and drug scores for a gene.
func (s *Server) handleGetGeneScores(c *gin.Context) {
	symbol := strings.TrimSpace(c.Param("symbol"))

	composites, err := s.scores.GetGeneScores(c.Request.Context(), symbol)
	if err != nil {
		s.log.WithError(err).WithField("gene", symbol).Error("Failed to load gene scores")
		s.respondError(c, http.StatusInternalServerError, domain.ErrCodeDatabaseError, "failed to load gene scores", "")
		return
	}
	if len(composites) == 0 {
		s.respondError(c, http.StatusNotFound, domain.ErrCodeNotFound, "no scores for gene", symbol)
		return
	}

	drugScores, err := s.scores.GetDrugScores(c.Request.Context(), symbol)
	if err != nil {
		s.log.WithError(err).WithField("gene", symbol).Warn("Failed to load drug scores")
		drugScores = nil
	}

	c.JSON(http.StatusOK, gin.H{
		"gene_symbol":      symbol,
		"composite_scores": composites,
		"drug_scores":      drugScores,
	})
}

// handleGetGeneProfile returns the derived analytics profile for a gene.
func (s *Server) handleGetGeneProfile(c *gin.Context) {
	symbol := strings.TrimSpace(c.Param("symbol"))

	profile, err := s.analytics.GeneProfile(c.Request.Context(), symbol)
	if err != nil {
		s.log.WithError(err).WithField("gene", symbol).Error("Failed to derive gene profile")
		s.respondError(c, http.StatusInternalServerError, domain.ErrCodeAnalyticsError, "failed to derive gene profile", "")
		return
	}
	if profile == nil {
		s.respondError(c, http.StatusNotFound, domain.ErrCodeNotFound, "no analytics data for gene", symbol)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// comparePanelRequest is the comparative analysis request body.
type comparePanelRequest struct {
	Genes []string `json:"genes" binding:"required"`
}

// handleComparePanel runs comparative analytics over a gene panel. An
// empty or all-absent panel yields the analytics error object with a 422,
// not a raised server error.
func (s *Server) handleComparePanel(c *gin.Context) {
	var req comparePanelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, domain.ErrCodeInvalidInput, "invalid request body", err.Error())
		return
	}
	if len(req.Genes) > maxPanelSize {
		s.respondError(c, http.StatusBadRequest, domain.ErrCodeInvalidInput, "panel too large", strconv.Itoa(maxPanelSize))
		return
	}

	report, analyticsErr := s.analytics.ComparePanel(c.Request.Context(), req.Genes)
	if analyticsErr != nil {
		c.JSON(http.StatusUnprocessableEntity, analyticsErr)
		return
	}

	c.JSON(http.StatusOK, report)
}

// handleTopGenes returns the best-scoring genes for one use case.
func (s *Server) handleTopGenes(c *gin.Context) {
	useCase, err := domain.ParseUseCase(c.Param("use_case"))
	if err != nil {
		s.respondError(c, http.StatusBadRequest, domain.ErrCodeInvalidInput, "invalid use case", c.Param("use_case"))
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 500 {
			s.respondError(c, http.StatusBadRequest, domain.ErrCodeInvalidInput, "invalid limit", raw)
			return
		}
		limit = parsed
	}

	scores, err := s.scores.GetTopGenes(c.Request.Context(), useCase, limit)
	if err != nil {
		s.log.WithError(err).WithField("use_case", useCase).Error("Failed to load top genes")
		s.respondError(c, http.StatusInternalServerError, domain.ErrCodeDatabaseError, "failed to load top genes", "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"use_case": useCase,
		"genes":    scores,
	})
}

// handleStartBatch kicks off a batch scoring run over all scorable genes.
func (s *Server) handleStartBatch(c *gin.Context) {
	if !s.batch.Start() {
		s.respondError(c, http.StatusConflict, domain.ErrCodeScoringError, "a batch run is already in progress", "")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status": "started",
	})
}

// handleListRuns lists archived batch runs.
func (s *Server) handleListRuns(c *gin.Context) {
	limit := 20
	offset := 0
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}
	if raw := c.Query("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	runs, err := s.runs.ListRuns(c.Request.Context(), limit, offset)
	if err != nil {
		s.log.WithError(err).Error("Failed to list batch runs")
		s.respondError(c, http.StatusInternalServerError, domain.ErrCodeDatabaseError, "failed to list batch runs", "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// handleGetRun returns one archived batch run with its summary and scores.
func (s *Server) handleGetRun(c *gin.Context) {
	runID := c.Param("run_id")

	run, err := s.runs.GetRun(c.Request.Context(), runID)
	if err != nil {
		s.log.WithError(err).WithField("run_id", runID).Error("Failed to load batch run")
		s.respondError(c, http.StatusInternalServerError, domain.ErrCodeDatabaseError, "failed to load batch run", "")
		return
	}
	if run == nil {
		s.respondError(c, http.StatusNotFound, domain.ErrCodeNotFound, "unknown run", runID)
		return
	}

	c.JSON(http.StatusOK, run)
}

func (s *Server) respondError(c *gin.Context, status int, code, message, details string) {
	c.JSON(status, domain.NewAPIError(code, message, details, c.GetString("correlation_id")))
}
