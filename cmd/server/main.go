package main

import (
	"flag"
	"os"

	"github.com/limaJavier/gradplan/internal/api"
	"github.com/limaJavier/gradplan/internal/config"
	"github.com/limaJavier/gradplan/internal/logger"
	"github.com/limaJavier/gradplan/pkg/model"
)

func main() {
	configPathPtr := flag.String("config", "config.yaml", "Path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPathPtr)
	if err != nil {
		logger.Error().Err(err).Msg("cannot load configuration")
		os.Exit(1)
	}
	logger.Configure(cfg.Logger())

	courses, err := cfg.LoadCatalog()
	if err != nil {
		logger.Error().Err(err).Msg("cannot load catalog")
		os.Exit(1)
	}

	handler := api.NewHandler(courses, cfg.CreditRequirements(), cfg.Settings(), func(settings model.Settings) (model.Planner, error) {
		return model.NewPlanner(cfg.NewSolver(), settings)
	})
	server := api.NewServer(handler, cfg.Server.Port, cfg.Server.Mode, cfg.Planning.TimeBudget)

	if err := server.Run(); err != nil {
		logger.Error().Err(err).Msg("server stopped with an error")
		os.Exit(1)
	}
}
