package main

import (
	"github.com/readably/readably-backend/config"
	"github.com/readably/readably-backend/models"
	"github.com/readably/readably-backend/routes"
	"github.com/readably/readably-backend/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(
		&models.User{},
		&models.ParentLink{},
		&models.ReadingMaterial{},
		&models.ReadingSession{},
		&models.UserProgress{},
		&models.Reward{},
		&models.RewardUnlock{},
		&models.UserPointsBalance{},
		&models.Achievement{},
		&models.UserAchievement{},
		&models.Challenge{},
		&models.UserChallenge{},
	)

	r := routes.SetupRouter(db)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
