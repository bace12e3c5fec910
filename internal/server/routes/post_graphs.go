package routes

import (
	"errors"
	"net/http"

	"kgqa/internal/server/middleware"
	"kgqa/internal/util"
	"kgqa/pkg/common"
	"kgqa/pkg/graph"
	"kgqa/pkg/logger"
	"kgqa/pkg/store"

	"github.com/labstack/echo/v4"
)

// IngestHandler builds a new graph from a batch of texts, or extends an
// existing graph when the request carries a graph_id.
func IngestHandler(c echo.Context) error {
	type ingestBody struct {
		Texts       []string `json:"texts" validate:"required"`
		Description string   `json:"description"`
		GraphID     string   `json:"graph_id"`
	}

	type ingestResponse struct {
		Message string               `json:"message"`
		GraphID string               `json:"graph_id,omitempty"`
		Summary *common.BuildSummary `json:"summary,omitempty"`
	}

	data := new(ingestBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, ingestResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, ingestResponse{
			Message: "Invalid request body",
		})
	}

	texts := make([]string, 0, len(data.Texts))
	for _, text := range data.Texts {
		texts = append(texts, util.SanitizeText(text))
	}

	ctx := c.Request().Context()
	builder := c.(*middleware.AppContext).App.Builder

	graphID, summary, err := builder.BuildOrUpdate(ctx, texts, data.Description, data.GraphID)
	if err != nil {
		switch {
		case errors.Is(err, graph.ErrEmptyBatch):
			return c.JSON(http.StatusBadRequest, ingestResponse{
				Message: "No texts provided",
			})
		case errors.Is(err, store.ErrNotFound):
			return c.JSON(http.StatusNotFound, ingestResponse{
				Message: "Graph not found",
			})
		default:
			logger.Error("[Ingest] Build failed", "err", err)
			return c.JSON(http.StatusInternalServerError, ingestResponse{
				Message: "Internal server error",
			})
		}
	}

	return c.JSON(http.StatusOK, ingestResponse{
		Message: "Texts ingested successfully",
		GraphID: graphID,
		Summary: summary,
	})
}
