package middlewares

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/tnqbao/gau-feed-service/config"
)

func CORSMiddleware(cfg *config.EnvConfig) gin.HandlerFunc {
	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Traceparent", "Tracestate"},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition", "ETag"},
		MaxAge:        12 * time.Hour,
	}

	if len(cfg.CORS.AllowDomains) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.CORS.AllowDomains
		corsConfig.AllowCredentials = true
	}

	return cors.New(corsConfig)
}
