package routes

import (
	"errors"
	"net/http"

	"kgqa/internal/server/middleware"
	"kgqa/pkg/common"
	"kgqa/pkg/logger"
	"kgqa/pkg/store"

	"github.com/labstack/echo/v4"
)

// QueryGraphHandler answers a natural language question against one graph.
func QueryGraphHandler(c echo.Context) error {
	type queryBody struct {
		GraphID  string `param:"id" validate:"required"`
		Question string `json:"question" validate:"required"`
	}

	type queryResponse struct {
		Message string              `json:"message"`
		Result  *common.QueryResult `json:"result,omitempty"`
	}

	data := new(queryBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, queryResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, queryResponse{
			Message: "Invalid request body",
		})
	}

	ctx := c.Request().Context()
	router := c.(*middleware.AppContext).App.Router

	result, err := router.Answer(ctx, data.GraphID, data.Question)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, queryResponse{
				Message: "Graph not found",
			})
		}
		logger.Error("[Query] Answer failed", "err", err)
		return c.JSON(http.StatusInternalServerError, queryResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, queryResponse{
		Message: "Question answered",
		Result:  result,
	})
}
