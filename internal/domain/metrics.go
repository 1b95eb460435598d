package domain

// CacheReportStats is cumulative cache effectiveness for one report
// namespace.
type CacheReportStats struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	Errors  int64   `json:"errors"`
	HitRate float64 `json:"hit_rate"`
}

// CacheMetrics is the payload of GET /v1/metrics/cache.
type CacheMetrics struct {
	Hits      int64                       `json:"hits"`
	Misses    int64                       `json:"misses"`
	HitRate   float64                     `json:"hit_rate"`
	PerReport map[string]CacheReportStats `json:"per_report"`
}
