// Copyright (c) 2026 Khaled Abbas
//
// This source code is licensed under the Business Source License 1.1.
//
// Change Date: 4 years after the first public release of this version.
// Change License: MIT
//
// On the Change Date, this version of the code automatically converts
// to the MIT License. Prior to that date, use is subject to the
// Additional Use Grant. See the LICENSE file for details.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"bambucloud/src/cloud"
	"bambucloud/src/logging"
	"bambucloud/src/model"
	"bambucloud/src/store"
	"bambucloud/src/syncer"
)

func main() {
	// Load environment variables from .env file
	err := godotenv.Load()
	if err != nil {
		panic("Error loading .env file")
	}

	var stats SyncStats

	var (
		BAMBU_REGION    = os.Getenv("BAMBU_REGION")
		BAMBU_EMAIL     = os.Getenv("BAMBU_EMAIL")
		BAMBU_PASSWORD  = os.Getenv("BAMBU_PASSWORD")
		BAMBU_DEVICE_ID = os.Getenv("BAMBU_DEVICE_ID")

		DB_USER     = os.Getenv("DB_USER")
		DB_PASSWORD = os.Getenv("DB_PASSWORD")
		DB_NAME     = os.Getenv("DB_NAME")
		DB_HOST     = os.Getenv("DB_HOST")
		DB_PORT     = os.Getenv("DB_PORT")

		POLLING_INTERVAL, _ = strconv.Atoi(os.Getenv("POLLING_INTERVAL"))
	)

	region, err := model.ParseRegion(BAMBU_REGION)
	if err != nil {
		panic(err)
	}

	// Generate Unique ID
	workerID := uuid.New().String()
	fmt.Printf("Starting sync worker with UUID: %s\n", workerID)
	stats.SetID(workerID)

	// Setup Graceful Shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Open the local task cache
	taskStore, err := store.Open(ctx, store.Config{
		User:     DB_USER,
		Password: DB_PASSWORD,
		Name:     DB_NAME,
		Host:     DB_HOST,
		Port:     DB_PORT,
		SSLMode:  os.Getenv("DB_SSLMODE"),
	})
	if err != nil {
		panic(err)
	}
	defer taskStore.Close()

	// Log in to the vendor cloud
	client, err := cloud.Login(ctx, region, BAMBU_EMAIL, BAMBU_PASSWORD)
	if err != nil {
		panic(fmt.Sprintf("failed to log in to cloud: %v", err))
	}
	fmt.Printf("Logged in as %s (region %s, mqtt %s)\n", client.Username(), client.Region(), client.MQTTHost())

	// Start API Server
	apiPort := os.Getenv("API_PORT")
	if apiPort == "" {
		apiPort = "8080"
	}
	go func() {
		if err := StartAPIServer(apiPort, taskStore, &stats); err != nil {
			logging.Log(fmt.Sprintf("API server failed: %v", err), slog.LevelError)
		}
	}()

	sync := syncer.New(client, taskStore, BAMBU_DEVICE_ID)

	// Setup a Timer for the periodic sync pass
	if POLLING_INTERVAL <= 0 {
		POLLING_INTERVAL = 300
	}
	ticker := time.NewTicker(time.Duration(POLLING_INTERVAL) * time.Second)
	defer ticker.Stop()

	logging.Log("Sync worker started. Mirroring cloud task records into the cache...", slog.LevelInfo)

	// Initial pass
	runSync(ctx, sync, &stats)

	for {
		select {
		case <-ctx.Done():
			logging.Log("Shutting down sync worker gracefully...", slog.LevelInfo)
			return
		case <-ticker.C:
			runSync(ctx, sync, &stats)
		}
	}
}

func runSync(ctx context.Context, sync *syncer.Syncer, stats *SyncStats) {
	res, err := sync.Sync(ctx)
	if err != nil {
		logging.Log(fmt.Sprintf("Sync pass failed: %v", err), slog.LevelError)
		stats.RecordFailure(err)
		return
	}
	stats.RecordSync(res)
}
