package cache

import (
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
)

// Fixed keys for reference data, cached until the next data change
const (
	KeyLocations = "locations"
	KeyMetrics   = "metrics"
)

// VersionedKey builds "endpoint:k1=v1&k2=v2:data_ver=D:algo_ver=A". Parameters are
// sorted by name and empty values are dropped so equivalent requests share a key.
func VersionedKey(endpoint string, params map[string]string, dataVer, algoVer int64) string {
	names := make([]string, 0, len(params))
	for k, v := range params {
		if v != "" {
			names = append(names, k)
		}
	}
	sort.Strings(names)

	pairs := make([]string, len(names))
	for i, k := range names {
		pairs[i] = k + "=" + params[k]
	}

	return fmt.Sprintf("%s:%s:data_ver=%d:algo_ver=%d", endpoint, strings.Join(pairs, "&"), dataVer, algoVer)
}

// Versions tracks the data and algorithm versions embedded in cache keys.
// The data version only moves forward. The purge epoch counts invalidations,
// including those that leave the data version unchanged.
type Versions struct {
	data  atomic.Int64
	algo  int64
	epoch atomic.Uint64
}

// NewVersions creates a version tracker
func NewVersions(data, algo int64) *Versions {
	v := &Versions{algo: algo}
	v.data.Store(data)
	return v
}

// Data returns the current data version
func (v *Versions) Data() int64 {
	return v.data.Load()
}

// Algo returns the algorithm version
func (v *Versions) Algo() int64 {
	return v.algo
}

// Advance raises the data version to at least ver and returns the resulting
// version. Passing 0 increments by one.
func (v *Versions) Advance(ver int64) int64 {
	for {
		cur := v.data.Load()
		next := ver
		if next == 0 {
			next = cur + 1
		}
		if next <= cur {
			return cur
		}
		if v.data.CompareAndSwap(cur, next) {
			return next
		}
	}
}

// Epoch returns the number of invalidations seen so far
func (v *Versions) Epoch() uint64 {
	return v.epoch.Load()
}

// BeginPurge moves the purge epoch forward. Call it before deleting entries so a
// computation that started earlier sees the change and skips its cache write.
func (v *Versions) BeginPurge() uint64 {
	return v.epoch.Add(1)
}

// Key builds a versioned key for endpoint with the current versions
func (v *Versions) Key(endpoint string, params map[string]string) string {
	return VersionedKey(endpoint, params, v.Data(), v.algo)
}
