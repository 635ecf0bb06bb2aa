/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"stash-premium-go/internal/models"
)

type durationSetting struct {
	key          string
	defaultValue time.Duration
	target       *time.Duration
}

func Load() (*models.Config, error) {
	var (
		readTimeout, writeTimeout, shutdownTimeout       time.Duration
		connMaxLifetime, connMaxIdleTime, pingTimeout    time.Duration
		authTimeout                                      time.Duration
		sweepInterval, sweepStaleAfter, sweepExpireAfter time.Duration
	)

	durations := []durationSetting{
		{"HTTP_READ_TIMEOUT", 10 * time.Second, &readTimeout},
		{"HTTP_WRITE_TIMEOUT", 15 * time.Second, &writeTimeout},
		{"HTTP_SHUTDOWN_TIMEOUT", 30 * time.Second, &shutdownTimeout},
		{"DB_CONN_MAX_LIFETIME", 5 * time.Minute, &connMaxLifetime},
		{"DB_CONN_MAX_IDLE_TIME", 30 * time.Second, &connMaxIdleTime},
		{"DB_PING_TIMEOUT", 5 * time.Second, &pingTimeout},
		{"AUTH_TIMEOUT", 10 * time.Second, &authTimeout},
		{"SWEEPER_INTERVAL", 15 * time.Minute, &sweepInterval},
		{"SWEEPER_STALE_AFTER", 24 * time.Hour, &sweepStaleAfter},
		{"SWEEPER_EXPIRE_AFTER", 0, &sweepExpireAfter},
	}

	for _, d := range durations {
		value, err := getEnvDuration(d.key, d.defaultValue)
		if err != nil {
			return nil, err
		}
		*d.target = value
	}

	rewards, err := LoadRewards(getEnvString("REWARDS_FILE", "rewards.yaml"))
	if err != nil {
		return nil, err
	}

	return &models.Config{
		Server: models.ServerConfig{
			Addr:            getEnvString("HTTP_ADDR", ":8080"),
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: shutdownTimeout,
		},
		Database: models.DatabaseConfig{
			Driver:          getEnvString("DATABASE_DRIVER", "sqlite3"),
			Path:            getEnvString("DATABASE_PATH", "stash.db"),
			URL:             getEnvString("DATABASE_URL", ""),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: connMaxLifetime,
			ConnMaxIdleTime: connMaxIdleTime,
			PingTimeout:     pingTimeout,
		},
		Auth: models.AuthConfig{
			JWTSecret:   getEnvString("AUTH_JWT_SECRET", ""),
			JWTAudience: getEnvString("AUTH_JWT_AUDIENCE", "authenticated"),
			URL:         getEnvString("AUTH_URL", ""),
			APIKey:      getEnvString("AUTH_API_KEY", ""),
			Timeout:     authTimeout,
		},
		Webhook: models.WebhookConfig{
			Secret:          getEnvString("WEBHOOK_SECRET", ""),
			Token:           getEnvString("WEBHOOK_TOKEN", ""),
			SignatureHeader: getEnvString("WEBHOOK_SIGNATURE_HEADER", "X-Every-Signature"),
		},
		Sweeper: models.SweeperConfig{
			Interval:    sweepInterval,
			StaleAfter:  sweepStaleAfter,
			ExpireAfter: sweepExpireAfter,
		},
		Rewards: *rewards,
		Metrics: models.MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
		},
	}, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
