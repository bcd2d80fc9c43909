package main

import (
	"log"

	"anoa.com/titlereview/internal/bootstrap"
	"anoa.com/titlereview/internal/config"
	"anoa.com/titlereview/internal/server"
	"anoa.com/titlereview/pkg/database"
	"anoa.com/titlereview/pkg/redis"
	"anoa.com/titlereview/pkg/validator"
	goredis "github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	validator.RegisterRules()

	db, err := database.Connect(database.Params{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Name:     cfg.DBName,
	})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	if err := bootstrap.Migrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	if cfg.AppEnv == "development" {
		if err := bootstrap.SeedAdmin(db); err != nil {
			log.Fatalf("failed to seed admin user: %v", err)
		}
	}

	// Redis backs confirmation codes and the signup cooldown; without it
	// the auth surface cannot issue codes.
	var redisClient *goredis.Client
	if cfg.RedisURL != "" {
		redisClient, err = redis.Connect(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect redis: %v", err)
		}
	} else {
		log.Println("REDIS_URL not set, signup code issuance disabled")
	}

	srv := server.NewServer(db, redisClient, cfg)

	if err := srv.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}
