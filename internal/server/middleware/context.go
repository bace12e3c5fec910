package middleware

import (
	"github.com/labstack/echo/v4"

	"kgqa/pkg/graph"
	"kgqa/pkg/query"
	"kgqa/pkg/store"
)

// App bundles the long-lived service components shared by every request: the
// in-memory graph store, the ingest builder writing to it, and the query
// router reading from it.
type App struct {
	Store   *store.Store
	Builder *graph.Builder
	Router  *query.Router
}

// AppContext wraps the echo context with the shared App so handlers can reach
// the service components through a single type assertion.
type AppContext struct {
	echo.Context
	App *App
}

// AppContextMiddleware installs the shared App on every request context.
func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app}
			return next(cc)
		}
	}
}
