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
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// StatusResponse matches the structure from server.go
type StatusResponse struct {
	ID            string     `json:"id"`
	Uptime        string     `json:"uptime"`
	SyncsRun      uint64     `json:"syncs_run"`
	SyncFailures  uint64     `json:"sync_failures"`
	TasksFetched  uint64     `json:"tasks_fetched"`
	TasksUpserted uint64     `json:"tasks_upserted"`
	LastSyncAt    *time.Time `json:"last_sync_at"`
	LastError     string     `json:"last_error"`
}

// GlobalStats matches the structure from store.go
type GlobalStats struct {
	TotalTasks      int            `json:"total_tasks"`
	Devices         int            `json:"devices"`
	StatusCounts    map[string]int `json:"status_counts"`
	WeightSumGrams  float64        `json:"weight_sum_grams"`
	LengthSumMM     int64          `json:"length_sum_mm"`
	PrintTimeSumSec int64          `json:"print_time_sum_seconds"`
	TasksLastDay    int            `json:"tasks_last_24h"`
}

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

func main() {
	dbHost := flag.String("db_host", "localhost", "Database host")
	apiHost := flag.String("api_host", "localhost", "Sync worker API host")
	apiPort := flag.String("api_port", "8080", "Sync worker API port")
	waitFor := flag.Duration("wait", 10*time.Minute, "How long to wait for a sync pass")
	flag.Parse()

	// Load DB config from .env or defaults
	_ = godotenv.Load("../../.env")
	dbUser := os.Getenv("DB_USER")
	dbPass := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	if dbUser == "" { dbUser = "user" }
	if dbPass == "" { dbPass = "password" }
	if dbName == "" { dbName = "bambucloud" }

	connStr := fmt.Sprintf("user=%s password=%s dbname=%s host=%s port=5432 sslmode=require",
		dbUser, dbPass, dbName, *dbHost)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		fmt.Printf("%sFailed to connect to DB: %v%s\n", colorRed, err, colorReset)
		os.Exit(1)
	}
	defer db.Close()

	fmt.Printf("\n%s%s >> BAMBUCLOUD SYNC PROBE << %s\n", colorCyan, colorBold, colorReset)

	// Baseline: worker stats and cache row count
	initial, err := getStatus(*apiHost, *apiPort)
	if err != nil {
		fmt.Printf("%s[ERR]%s Worker API unreachable: %v\n", colorRed, colorReset, err)
		os.Exit(1)
	}

	var initialRows int
	if err := db.QueryRow("SELECT COUNT(*) FROM TASKS").Scan(&initialRows); err != nil {
		fmt.Printf("%s[ERR]%s Failed to count cached tasks: %v\n", colorRed, colorReset, err)
		os.Exit(1)
	}
	fmt.Printf("%s[OK]%s Worker %s up %s, %d rows cached. Waiting for the next sync pass...\n\n",
		colorGreen, colorReset, initial.ID[:8], initial.Uptime, initialRows)

	// Watch /status until syncs_run moves
	startTime := time.Now()
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	fmt.Printf("%s%-10s %-12s %-12s %-12s%s\n", colorGray+colorBold, "ELAPSED", "SYNCS", "FETCHED", "FAILURES", colorReset)
	fmt.Println(colorGray + "------------------------------------------------" + colorReset)

	for range ticker.C {
		elapsed := time.Since(startTime).Round(time.Second).String()

		status, err := getStatus(*apiHost, *apiPort)
		if err != nil {
			fmt.Printf("\r%-10s %s%-36s%s",
				elapsed,
				colorRed, "Error: Connection Refused (Retrying...)", colorReset,
			)
			continue
		}

		failColor := colorGreen
		if status.SyncFailures > initial.SyncFailures {
			failColor = colorRed
		}

		fmt.Printf("\r%-10s %s%-12d%s %-12d %s%-12d%s",
			elapsed,
			colorGreen, status.SyncsRun, colorReset,
			status.TasksFetched,
			failColor, status.SyncFailures, colorReset,
		)

		if status.SyncsRun > initial.SyncsRun {
			fmt.Printf("\n%s------------------------------------------------%s\n", colorGray, colorReset)
			printReport(db, *apiHost, *apiPort, status, initial, initialRows, time.Since(startTime))
			return
		}

		if time.Since(startTime) > *waitFor {
			fmt.Printf("\n%s[ERR]%s No sync pass observed within %s\n", colorRed, colorReset, *waitFor)
			os.Exit(1)
		}
	}
}

func getStatus(host, port string) (StatusResponse, error) {
	resp, err := http.Get(fmt.Sprintf("http://%s:%s/status", host, port))
	if err != nil {
		return StatusResponse{}, err
	}
	defer resp.Body.Close()

	var status StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return StatusResponse{}, err
	}
	return status, nil
}

func getGlobalStats(host, port string) (GlobalStats, error) {
	resp, err := http.Get(fmt.Sprintf("http://%s:%s/global-status", host, port))
	if err != nil {
		return GlobalStats{}, err
	}
	defer resp.Body.Close()

	var stats GlobalStats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return GlobalStats{}, err
	}
	return stats, nil
}

func printReport(db *sql.DB, host, port string, final, initial StatusResponse, initialRows int, duration time.Duration) {
	var finalRows int
	_ = db.QueryRow("SELECT COUNT(*) FROM TASKS").Scan(&finalRows)

	cache, cacheErr := getGlobalStats(host, port)

	fmt.Println("\n" + colorCyan + colorBold + "┏━━━━━━━━━━━━━━━━━━━━━━ REPORT ━━━━━━━━━━━━━━━━━━━━━━┓" + colorReset)

	lineFmt := colorCyan + "┃" + colorReset + "  %-22s " + colorBold + "%-25s" + colorCyan + "┃" + colorReset

	fmt.Printf(lineFmt+"\n", "Waited:", duration.Truncate(time.Millisecond).String())
	fmt.Printf(lineFmt+"\n", "Tasks Fetched:", fmt.Sprintf("%d", final.TasksFetched-initial.TasksFetched))
	fmt.Printf(lineFmt+"\n", "Rows Written:", fmt.Sprintf("%d", final.TasksUpserted-initial.TasksUpserted))
	fmt.Printf(lineFmt+"\n", "Cache Rows:", fmt.Sprintf("%d (+%d)", finalRows, finalRows-initialRows))

	failedVal := final.SyncFailures - initial.SyncFailures
	failedColor := colorGreen
	if failedVal > 0 {
		failedColor = colorRed
	}
	fmt.Printf(colorCyan+"┃"+"  %-22s "+failedColor+colorBold+"%-25s"+colorCyan+"┃"+colorReset+"\n", "Failures:", fmt.Sprintf("%d", failedVal))

	if cacheErr == nil {
		fmt.Printf(lineFmt+"\n", "Status Codes Seen:", fmt.Sprintf("%d", len(cache.StatusCounts)))
		fmt.Printf(lineFmt+"\n", "Filament Used:", fmt.Sprintf("%.1f g / %.1f m", cache.WeightSumGrams, float64(cache.LengthSumMM)/1000))
		fmt.Printf(lineFmt+"\n", "Print Time Total:", (time.Duration(cache.PrintTimeSumSec) * time.Second).String())
		fmt.Printf(lineFmt+"\n", "Prints Last 24h:", fmt.Sprintf("%d", cache.TasksLastDay))
	}

	fmt.Println(colorCyan + colorBold + "┗━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━┛" + colorReset)
}
