package bootstrap

import (
	"rain-check/internal/api"
	"rain-check/internal/config"
	"rain-check/internal/handlers"
	"rain-check/internal/messaging"
	"rain-check/internal/services"
)

type HandlersBundle struct {
	WeatherCheckHandler *handlers.WeatherCheckHandler
	CheckService        *services.WeatherCheckService
}

// InitHandlers wires both upstream clients, the estimation loop and the
// handler from cfg.
func InitHandlers(cfg *config.Config, publisher messaging.Publisher) *HandlersBundle {
	weatherClient := api.NewWeatherClient(cfg)
	chatClient := api.NewChatClient(cfg)

	estimator := services.NewRainEstimator(chatClient, chatClient.Model())
	orchestrator := services.NewOrchestrator(estimator)
	checkService := services.NewWeatherCheckService(weatherClient, orchestrator, publisher, cfg.PublishTimeout)

	return &HandlersBundle{
		CheckService:        checkService,
		WeatherCheckHandler: handlers.NewWeatherCheckHandler(checkService, cfg.DefaultLat, cfg.DefaultLon),
	}
}
