package routes

import (
	"net/http"

	"kgqa/internal/server/middleware"

	"github.com/labstack/echo/v4"
)

// DeleteGraphHandler removes a graph with all of its entities and edges.
// Deleting an unknown or already-deleted graph is not an error; the response
// reports whether anything was removed.
func DeleteGraphHandler(c echo.Context) error {
	type deleteParams struct {
		GraphID string `param:"id" validate:"required"`
	}

	type deleteResponse struct {
		Message string `json:"message"`
		Deleted bool   `json:"deleted"`
	}

	params := new(deleteParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, deleteResponse{
			Message: "Invalid request params",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, deleteResponse{
			Message: "Invalid request params",
		})
	}

	st := c.(*middleware.AppContext).App.Store
	deleted := st.Delete(params.GraphID)

	message := "Graph deleted"
	if !deleted {
		message = "Graph not found"
	}
	return c.JSON(http.StatusOK, deleteResponse{
		Message: message,
		Deleted: deleted,
	})
}
