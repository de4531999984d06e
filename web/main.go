package main

import (
	"context"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"iara.com/iarasync/config"
	iara "iara.com/iarasync/iara/core"
	"iara.com/iarasync/logging"
	"iara.com/iarasync/security"
	"iara.com/iarasync/web/handlers"
	"iara.com/iarasync/web/middlewares"
)

func main() {
	cfg, err := config.Load(os.Getenv("IARA_CONFIG"))
	if err != nil {
		logging.Default().Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Configure(&logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: "stderr"})
	log := logging.Default()

	jwtSecret, err := security.SecretFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to decode JWT secret")
	}

	runner, err := iara.NewRunner(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to prepare runner")
	}

	r := gin.Default()
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
	r.GET("/metrics", gin.WrapH(runner.Metrics.Handler()))

	protected := r.Group("/api/v1")
	protected.Use(middlewares.Authentication(jwtSecret))
	{
		protected.GET("/whoami", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"operator": middlewares.OperatorName(c)})
		})
		handlers.Register(protected, &handlers.RunnerService{Runner: runner})
	}

	addr := os.Getenv("IARA_HTTP_ADDR")
	if addr == "" {
		addr = ":8090"
	}
	log.Info().Str("addr", addr).Str("source", cfg.Source).Str("target", cfg.Target).Msg("sync trigger listening")
	if err := r.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
