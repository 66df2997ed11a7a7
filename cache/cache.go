// Package cache has the fast lookup layer for sliver records. Entries are
// lists of slivers keyed by namespace and key (the tool id).
package cache

import (
	"encoding/json"
	"fmt"

	"github.com/eumel8/mlab-ns/types"
)

// SliverToolsNamespace is where the sliver lists per tool are kept.
const SliverToolsNamespace = "sliver_tools"

func cacheKey(prefix, namespace, key string) string {
	return prefix + namespace + ":" + key
}

func encode(sl []types.SliverTool) ([]byte, error) {
	if sl == nil {
		sl = []types.SliverTool{}
	}
	return json.Marshal(sl)
}

func decode(b []byte) ([]types.SliverTool, error) {
	var sl []types.SliverTool
	if err := json.Unmarshal(b, &sl); err != nil {
		return nil, fmt.Errorf("decoding cache entry: %w", err)
	}
	if sl == nil {
		sl = []types.SliverTool{}
	}
	return sl, nil
}
