package database

import (
	"context"
	"log"
	"tripledger-backend/config"

	"github.com/redis/go-redis/v9"
)

var Redis *redis.Client

func ConnectRedis() {
	Redis = redis.NewClient(&redis.Options{
		Addr: config.AppConfig.RedisAddr,
	})

	_, err := Redis.Ping(context.Background()).Result()
	if err != nil {
		log.Println("⚠️  Redis not available, FX cache runs memory-only:", err)
		Redis = nil
		return
	}

	log.Println("✅ Redis connected successfully")
}
