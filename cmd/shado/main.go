package main

import (
	"log"
	"os"

	"github.com/nagu/shado/internal/repository"
	"github.com/nagu/shado/internal/service"
	"github.com/nagu/shado/pkg/cleanup"
	"github.com/nagu/shado/pkg/config"
)

func init() {
	service.InitValidator()
}

var (
	stateService    service.StateServiceI
	entriesService  service.EntriesServiceI
	insightsService service.InsightsServiceI
)

func main() {
	cfg := config.New()
	dbPath := cfg.GetString("SHADO_DB_PATH")
	if dbPath == "" {
		var err error
		dbPath, err = repository.DefaultDBPath()
		if err != nil {
			log.Fatal("resolving database path error: " + err.Error())
		}
	}
	stateRepo := repository.NewStateRepo(&repository.SQLiteCfg{
		Path: dbPath,
		Key:  cfg.GetStringOr("SHADO_STATE_KEY", repository.StateKeyDefault),
	})
	stateService = service.NewStateService(stateRepo)
	entriesService = service.NewEntriesService(stateRepo)
	insightsService = service.NewInsightsService(stateRepo)

	code := 0
	if err := rootCmd.Execute(); err != nil {
		code = 1
	}
	cleanup.CleanUp()
	os.Exit(code)
}
