package incident

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"
)

// Stats aggregates the active incident log for the operator endpoint.
type Stats struct {
	Total       int            `json:"total"`
	ByLevel     map[string]int `json:"byLevel"`
	ByCategory  map[string]int `json:"byType"`
	Last24Hours int            `json:"last24Hours"`
	TopIPs      map[string]int `json:"topIPs"`
}

// ReadStats parses the active log file (archived files are intentionally
// skipped; they are operator material, not live signal). Unparseable lines
// are ignored so a partial write during rotation cannot break the endpoint.
func ReadStats(path string, now time.Time) (Stats, error) {
	stats := Stats{
		ByLevel:    make(map[string]int),
		ByCategory: make(map[string]int),
		TopIPs:     make(map[string]int),
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return stats, nil
		}
		return Stats{}, fmt.Errorf("open incident log: %w", err)
	}
	defer f.Close()

	cutoff := now.Add(-24 * time.Hour)
	ipCounts := make(map[string]int)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var inc Incident
		if err := json.Unmarshal(scanner.Bytes(), &inc); err != nil {
			continue
		}
		stats.Total++
		stats.ByLevel[string(inc.Level)]++
		stats.ByCategory[inc.Category]++
		if inc.Timestamp.After(cutoff) {
			stats.Last24Hours++
		}
		if ip, ok := inc.Details["ip"].(string); ok && ip != "" && ip != "unknown" {
			ipCounts[ip]++
		}
	}
	if err := scanner.Err(); err != nil {
		return Stats{}, fmt.Errorf("scan incident log: %w", err)
	}

	stats.TopIPs = topN(ipCounts, 10)
	return stats, nil
}

func topN(counts map[string]int, n int) map[string]int {
	type pair struct {
		ip    string
		count int
	}
	pairs := make([]pair, 0, len(counts))
	for ip, c := range counts {
		pairs = append(pairs, pair{ip, c})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].count != pairs[j].count {
			return pairs[i].count > pairs[j].count
		}
		return pairs[i].ip < pairs[j].ip
	})
	if len(pairs) > n {
		pairs = pairs[:n]
	}
	top := make(map[string]int, len(pairs))
	for _, p := range pairs {
		top[p.ip] = p.count
	}
	return top
}
