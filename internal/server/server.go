package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	mid "kgqa/internal/server/middleware"
	"kgqa/internal/util"
	"kgqa/pkg/graph"
	"kgqa/pkg/logger"
	"kgqa/pkg/query"
	"kgqa/pkg/store"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

// Init builds the service components from the environment, wires the routes,
// and runs the HTTP server until an interrupt or SIGTERM triggers a graceful
// shutdown.
func Init() {
	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st := store.New()
	builder := graph.NewBuilder(st, graph.BuilderParams{
		MinConfidence: util.GetEnvFloat("MIN_CONFIDENCE", graph.DefaultMinConfidence),
		ParallelTexts: util.GetEnvInt("PARALLEL_TEXTS", graph.DefaultParallelTexts),
		TokenEncoder:  util.GetEnvString("TOKEN_ENCODER", graph.DefaultTokenEncoder),
		MaxUnitTokens: util.GetEnvInt("MAX_UNIT_TOKENS", graph.DefaultMaxUnitTokens),
	})
	router := query.NewRouter(st, util.GetEnvInt("HOP_LIMIT", query.DefaultHopLimit))

	e.Use(mid.AppContextMiddleware(&mid.App{
		Store:   st,
		Builder: builder,
		Router:  router,
	}))
	e.Use(middleware.CORS())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("16M"))

	RegisterRoutes(e)

	go func() {
		port := strconv.Itoa(util.GetEnvInt("PORT", 8080))
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}
