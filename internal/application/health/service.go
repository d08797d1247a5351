package health

import (
	"context"
	"encoding/json"
	"runtime"
	"strconv"
	"time"

	"myinvestments-backend/internal/middleware"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

// DBPinger is optional for health check. If nil, database is reported as disconnected.
type DBPinger interface {
	Ping() error
}

// CollectResult is the payload of /health/json and the dashboard.
type CollectResult struct {
	Status       string               `json:"status"`
	Runtime      RuntimeInfo          `json:"runtime"`
	Traffic      TrafficInfo          `json:"traffic"`
	Dependencies map[string]DepStatus `json:"dependencies"`
}

type RuntimeInfo struct {
	UptimeSeconds int64      `json:"uptimeSeconds"`
	Memory        MemoryInfo `json:"memory"`
	CPU           CPUInfo    `json:"cpu"`
	Platform      string     `json:"platform"`
	GoVersion     string     `json:"goVersion"`
	Goroutines    int        `json:"goroutines"`
}

type MemoryInfo struct {
	Alloc       int     `json:"alloc"`
	HeapUsed    int     `json:"heapUsed"`
	HostUsedPct float64 `json:"hostUsedPct"`
}

type CPUInfo struct {
	LoadAvg []string `json:"loadAvg"`
}

type TrafficInfo struct {
	TotalRequests   int         `json:"totalRequests"`
	SuccessCount    int         `json:"successCount"`
	FailedCount     int         `json:"failedCount"`
	SuccessRate     string      `json:"successRate"`
	AvgResponseTime interface{} `json:"avgResponseTime"`
	LastRequest     interface{} `json:"lastRequest"`
}

type DepStatus struct {
	Status string      `json:"status"`
	PingMs interface{} `json:"pingMs"`
}

// Service reads the request counters kept by middleware.HealthMarker. Rdb may be nil when the
// server runs without Redis.
type Service struct {
	Rdb *redis.Client
	DB  DBPinger
}

var processStart = time.Now()

// Collect gathers health data from Redis, the database and the host.
func (s *Service) Collect(ctx context.Context) CollectResult {
	result := CollectResult{
		Dependencies: make(map[string]DepStatus),
	}

	dbStatus := "disconnected"
	var dbPingMs *int64
	if s.DB != nil {
		start := time.Now()
		if err := s.DB.Ping(); err == nil {
			ms := time.Since(start).Milliseconds()
			dbPingMs = &ms
			dbStatus = "connected"
		} else {
			log.Warn().Err(err).Msg("health: database ping failed")
			dbStatus = "error"
		}
	}
	result.Dependencies["database"] = DepStatus{Status: dbStatus, PingMs: dbPingMs}

	redisStatus := "not configured"
	var redisPingMs *int64
	stats := TrafficInfo{AvgResponseTime: 0, SuccessRate: "100"}
	startTimeMs := processStart.UnixMilli()

	if s.Rdb != nil {
		start := time.Now()
		if err := s.Rdb.Ping(ctx).Err(); err == nil {
			ms := time.Since(start).Milliseconds()
			redisPingMs = &ms
			redisStatus = "connected"
			startTimeMs = s.readTraffic(ctx, &stats, startTimeMs)
		} else {
			redisStatus = "error"
		}
	}
	result.Dependencies["redis"] = DepStatus{Status: redisStatus, PingMs: redisPingMs}

	result.Runtime = runtimeInfo(startTimeMs)
	result.Traffic = stats

	if dbStatus == "connected" && redisStatus != "error" {
		result.Status = "ok"
	} else {
		result.Status = "issue"
	}
	return result
}

func (s *Service) readTraffic(ctx context.Context, stats *TrafficInfo, startTimeMs int64) int64 {
	totalReq, _ := s.Rdb.Get(ctx, middleware.KeyReqTotal).Result()
	totalErr, _ := s.Rdb.Get(ctx, middleware.KeyReqErrors).Result()
	totalTime, _ := s.Rdb.Get(ctx, middleware.KeyResTime).Result()
	resCount, _ := s.Rdb.Get(ctx, middleware.KeyResCount).Result()
	startTimeStr, _ := s.Rdb.Get(ctx, middleware.KeyStartTime).Result()
	lastReqStr, _ := s.Rdb.Get(ctx, middleware.KeyLastReq).Result()

	if startTimeStr != "" {
		if t, err := strconv.ParseInt(startTimeStr, 10, 64); err == nil {
			startTimeMs = t
		}
	} else {
		s.Rdb.Set(ctx, middleware.KeyStartTime, startTimeMs, 0)
	}

	stats.TotalRequests, _ = strconv.Atoi(totalReq)
	stats.FailedCount, _ = strconv.Atoi(totalErr)
	stats.SuccessCount = stats.TotalRequests - stats.FailedCount
	if stats.TotalRequests > 0 {
		stats.SuccessRate = strconv.FormatFloat(float64(stats.SuccessCount)/float64(stats.TotalRequests)*100, 'f', 1, 64)
	}
	timeSum, _ := strconv.ParseFloat(totalTime, 64)
	countSum, _ := strconv.Atoi(resCount)
	if countSum > 0 {
		stats.AvgResponseTime = strconv.FormatFloat(timeSum/float64(countSum), 'f', 2, 64)
	}
	if lastReqStr != "" {
		var lastReq map[string]interface{}
		_ = json.Unmarshal([]byte(lastReqStr), &lastReq)
		stats.LastRequest = lastReq
	}
	return startTimeMs
}

func runtimeInfo(startTimeMs int64) RuntimeInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	uptimeSec := (time.Now().UnixMilli() - startTimeMs) / 1000
	if uptimeSec < 0 {
		uptimeSec = 0
	}
	info := RuntimeInfo{
		UptimeSeconds: uptimeSec,
		Memory:        MemoryInfo{Alloc: int(m.Alloc / 1024 / 1024), HeapUsed: int(m.HeapInuse / 1024 / 1024)},
		CPU:           CPUInfo{LoadAvg: []string{"0.00", "0.00", "0.00"}},
		Platform:      runtime.GOOS + " (" + runtime.GOARCH + ")",
		GoVersion:     runtime.Version(),
		Goroutines:    runtime.NumGoroutine(),
	}
	// Not every platform exposes load average; keep the zeros then.
	if avg, err := load.Avg(); err == nil {
		info.CPU.LoadAvg = []string{
			strconv.FormatFloat(avg.Load1, 'f', 2, 64),
			strconv.FormatFloat(avg.Load5, 'f', 2, 64),
			strconv.FormatFloat(avg.Load15, 'f', 2, 64),
		}
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		info.Memory.HostUsedPct = float64(int(vm.UsedPercent*10)) / 10
	}
	return info
}

// Reset clears the request counters and restarts the uptime clock.
func (s *Service) Reset(ctx context.Context) error {
	if s.Rdb == nil {
		return nil
	}
	keys := []string{middleware.KeyReqTotal, middleware.KeyReqErrors, middleware.KeyResTime, middleware.KeyResCount,
		middleware.KeyStartTime, middleware.KeyLastReq, middleware.KeyErrorLog}
	if err := s.Rdb.Del(ctx, keys...).Err(); err != nil {
		return err
	}
	return s.Rdb.Set(ctx, middleware.KeyStartTime, strconv.FormatInt(time.Now().UnixMilli(), 10), 0).Err()
}

// RecentErrors returns up to the last 50 failed requests, newest first.
func (s *Service) RecentErrors(ctx context.Context) ([]map[string]interface{}, error) {
	out := make([]map[string]interface{}, 0)
	if s.Rdb == nil {
		return out, nil
	}
	entries, err := s.Rdb.LRange(ctx, middleware.KeyErrorLog, 0, 49).Result()
	if err != nil {
		return out, err
	}
	for _, e := range entries {
		var m map[string]interface{}
		if _ = json.Unmarshal([]byte(e), &m); m != nil {
			out = append(out, m)
		}
	}
	return out, nil
}
