package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/tnqbao/gau-feed-service/http/controller"
	middlewares "github.com/tnqbao/gau-feed-service/http/middleware"
)

func SetupRouter(ctrl *controller.Controller) *gin.Engine {
	r := gin.Default()
	middles, err := middlewares.NewMiddlewares(ctrl)
	if err != nil {
		panic(err)
	}

	r.Use(middles.CORSMiddleware, middles.TracingMiddleware)

	apiRoutes := r.Group("/api/v1")
	{
		feedRoutes := apiRoutes.Group("/feeds")
		{
			feedRoutes.POST("", ctrl.CreateFeed)
			feedRoutes.GET("/:feed_id", ctrl.GetFeed)

			feedRoutes.POST("/:feed_id/images", ctrl.UploadImage)
			feedRoutes.GET("/:feed_id/images", ctrl.ListImages)
			feedRoutes.GET("/:feed_id/images/:image_id", ctrl.DownloadImage)
		}
	}
	return r
}
