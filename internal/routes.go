package internal

import (
	"net/http"

	"ard/internal/controllers"
	"ard/internal/providers"
	"ard/internal/structures"
)

func InitRoutes(apiController *controllers.ApiController, conf *structures.Config) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Get("/config", http.HandlerFunc(apiController.GetConfig))
	routers.Put("/config", http.HandlerFunc(apiController.SetConfig))
	return routers
}
