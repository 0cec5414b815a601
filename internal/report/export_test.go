package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paladin223/mit-service/internal/stats"
)

func TestExport(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "run1")

	s := stats.Summary{
		Duration:    2 * time.Second,
		Issued:      30,
		Success:     28,
		NotFound:    1,
		Failed:      1,
		AchievedRPS: 15,
		PerOp: map[string]stats.OpCounts{
			"insert": {Success: 10},
			"get":    {Success: 8, NotFound: 1, Failed: 1},
			"update": {Success: 10},
		},
	}
	require.NoError(t, Export(prefix, s))

	data, err := os.ReadFile(prefix + "_summary.json")
	require.NoError(t, err)
	var decoded stats.Summary
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, s.Issued, decoded.Issued)
	assert.Equal(t, s.PerOp["get"], decoded.PerOp["get"])

	csvData, err := os.ReadFile(prefix + "_ops.csv")
	require.NoError(t, err)
	assert.Equal(t,
		"operation,success,not_found,failed\nget,8,1,1\ninsert,10,0,0\nupdate,10,0,0\n",
		string(csvData))
}
