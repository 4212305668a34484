package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBid(t *testing.T) {
	bid, err := parseBid("brand=dell, memory=16 storage=ssd")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"brand": "dell", "memory": "16", "storage": "ssd"}, bid)

	for _, bad := range []string{"brand", "brand=", "=dell"} {
		_, err := parseBid(bad)
		assert.Error(t, err, bad)
	}
}

func TestFormatBidSortsIssues(t *testing.T) {
	got := formatBid(map[string]string{"storage": "ssd", "brand": "hp", "memory": "8"})
	assert.Equal(t, "brand=hp memory=8 storage=ssd", got)
	assert.Equal(t, "", formatBid(nil))
}
