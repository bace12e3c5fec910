package routes

import (
	"net/http"

	"kgqa/internal/server/middleware"

	"github.com/labstack/echo/v4"
)

// HealthHandler reports service liveness plus aggregate totals over all
// stored graphs.
func HealthHandler(c echo.Context) error {
	type healthResponse struct {
		Status        string `json:"status"`
		ActiveGraphs  int    `json:"active_graphs"`
		TotalEntities int    `json:"total_entities"`
		TotalEdges    int    `json:"total_edges"`
	}

	st := c.(*middleware.AppContext).App.Store

	resp := healthResponse{Status: "ok"}
	for _, summary := range st.List() {
		resp.ActiveGraphs++
		resp.TotalEntities += summary.EntityCount
		resp.TotalEdges += summary.EdgeCount
	}

	return c.JSON(http.StatusOK, resp)
}
