package models

import "time"

// DNSStatsResponse reports query-processing counters.
type DNSStatsResponse struct {
	QueriesTotal uint64  `json:"queries_total"`
	QueriesUDP   uint64  `json:"queries_udp"`
	QueriesTCP   uint64  `json:"queries_tcp"`
	CacheHits    uint64  `json:"cache_hits"`
	ResponsesNX  uint64  `json:"responses_nxdomain"`
	ResponsesErr uint64  `json:"responses_servfail"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
}

// CacheStatsResponse reports response-cache occupancy.
type CacheStatsResponse struct {
	Entries int `json:"entries"`
	Hits    int `json:"hits"`
	Misses  int `json:"misses"`
}

// CPUStats reports host CPU usage sampled at request time.
type CPUStats struct {
	NumCPU      int     `json:"num_cpu"`
	UsedPercent float64 `json:"used_percent"`
	IdlePercent float64 `json:"idle_percent"`
}

// MemoryStats reports host memory usage sampled at request time.
type MemoryStats struct {
	TotalMB     float64 `json:"total_mb"`
	FreeMB      float64 `json:"free_mb"`
	UsedMB      float64 `json:"used_mb"`
	UsedPercent float64 `json:"used_percent"`
}

// ServerStatsResponse is the response for GET /stats.
type ServerStatsResponse struct {
	Uptime        string             `json:"uptime"`
	UptimeSeconds int64              `json:"uptime_seconds"`
	StartTime     time.Time          `json:"start_time"`
	CPU           CPUStats           `json:"cpu"`
	Memory        MemoryStats        `json:"memory"`
	DNS           DNSStatsResponse   `json:"dns"`
	Cache         CacheStatsResponse `json:"cache"`
}
