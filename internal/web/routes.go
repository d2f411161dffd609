package web

import (
	"github.com/boviclouds/muzzle-id/internal/constants"
	"github.com/boviclouds/muzzle-id/internal/web/handlers"
)

func (s *Server) setupRoutes(svc Services) {
	// Create handlers
	predictHandler := handlers.NewPredictHandler(
		svc.Detector,
		svc.Extractor,
		svc.Registry,
		s.config.DetectorConfidence(constants.ProfilePredict),
		s.config.Extractor.InputSize,
		s.config.Matcher.Threshold,
		s.config.Assets.PredictionDir,
	)
	cowsHandler := handlers.NewCowsHandler(svc.Registry, svc.Enroller, svc.Images, s.config.Assets.MuzzleDir)
	databaseHandler := handlers.NewDatabaseHandler(svc.Registry, svc.Store)
	healthHandler := handlers.NewHealthHandler(svc.Registry, svc.Store, svc.Images)

	s.router.Get("/health", healthHandler.Check)

	s.router.Post("/add-cow", cowsHandler.Add)
	s.router.Post("/predict", predictHandler.Predict)

	s.router.Get("/cows", cowsHandler.List)
	s.router.Get("/cow/{id}/raw-images", cowsHandler.RawImages)
	s.router.Get("/cow/{id}/muzzle-images", cowsHandler.MuzzleImages)
	s.router.Delete("/cow/{id}", cowsHandler.Delete)

	s.router.Get("/database/info", databaseHandler.Info)
	s.router.Post("/database/backup", databaseHandler.Backup)
	s.router.Post("/database/reload", databaseHandler.Reload)
}
