package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	APIBaseURL           string
	SocketURL            string
	DataDir              string
	RedisAddr            string
	RedisPassword        string
	RedisDB              int
	MongoURI             string
	RequestTimeout       time.Duration
	Language             string
	LowStockThreshold    int
	MediumStockThreshold int
}

func Load() Config {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file found, using environment variables")
	}

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	timeout, err := strconv.Atoi(getEnv("REQUEST_TIMEOUT_SECONDS", "15"))
	if err != nil || timeout < 1 {
		timeout = 15
	}
	lowStock, err := strconv.Atoi(getEnv("LOW_STOCK_THRESHOLD", "5"))
	if err != nil || lowStock < 0 {
		lowStock = 5
	}
	mediumStock, err := strconv.Atoi(getEnv("MEDIUM_STOCK_THRESHOLD", "15"))
	if err != nil || mediumStock <= lowStock {
		mediumStock = lowStock + 10
	}

	return Config{
		APIBaseURL:           getEnv("API_BASE_URL", "http://127.0.0.1:3001/api"),
		SocketURL:            getEnv("SOCKET_URL", "ws://127.0.0.1:3001/socket"),
		DataDir:              getEnv("DATA_DIR", ".restomanager"),
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		RedisPassword:        os.Getenv("REDIS_PASSWORD"),
		RedisDB:              redisDB,
		MongoURI:             getEnv("MONGODB_URI", "mongodb://localhost:27017/restaurante_manager"),
		RequestTimeout:       time.Duration(timeout) * time.Second,
		Language:             getEnv("DEFAULT_LANGUAGE", "es"),
		LowStockThreshold:    lowStock,
		MediumStockThreshold: mediumStock,
	}
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}
