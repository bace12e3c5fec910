package routes

import (
	"errors"
	"net/http"

	"kgqa/internal/server/middleware"
	"kgqa/pkg/common"
	"kgqa/pkg/store"

	"github.com/labstack/echo/v4"
)

// ListGraphsHandler lists the digests of all stored graphs.
func ListGraphsHandler(c echo.Context) error {
	type listResponse struct {
		Message string                `json:"message"`
		Graphs  []common.GraphSummary `json:"graphs"`
	}

	st := c.(*middleware.AppContext).App.Store

	return c.JSON(http.StatusOK, listResponse{
		Message: "Graphs listed",
		Graphs:  st.List(),
	})
}

// GetGraphSummaryHandler returns the digest of one graph, including its top
// entities by edge degree.
func GetGraphSummaryHandler(c echo.Context) error {
	type summaryParams struct {
		GraphID string `param:"id" validate:"required"`
	}

	type summaryResponse struct {
		Message string               `json:"message"`
		Summary *common.GraphSummary `json:"summary,omitempty"`
	}

	params := new(summaryParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, summaryResponse{
			Message: "Invalid request params",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, summaryResponse{
			Message: "Invalid request params",
		})
	}

	st := c.(*middleware.AppContext).App.Store
	summary, err := st.Summary(params.GraphID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, summaryResponse{
				Message: "Graph not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, summaryResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, summaryResponse{
		Message: "Graph summary",
		Summary: &summary,
	})
}
