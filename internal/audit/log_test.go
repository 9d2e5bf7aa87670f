package audit

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendNewestFirst(t *testing.T) {
	log := NewLog(10)

	log.Append(ActionRegisterNew, "1", "first")
	log.Append(ActionUpdate, "ADMIN", "second")
	log.Append(ActionDelete, "ADMIN", "third")

	entries := log.List()
	require.Len(t, entries, 3)
	assert.Equal(t, "third", entries[0].Detail)
	assert.Equal(t, "second", entries[1].Detail)
	assert.Equal(t, "first", entries[2].Detail)
}

func TestCapacityEviction(t *testing.T) {
	log := NewLog(DefaultCapacity)

	for i := 0; i < 150; i++ {
		log.Append(ActionUpdate, "ADMIN", fmt.Sprintf("entry %d", i))
	}

	entries := log.List()
	require.Len(t, entries, DefaultCapacity)
	// newest first; the 50 oldest (0..49) are gone
	assert.Equal(t, "entry 149", entries[0].Detail)
	assert.Equal(t, "entry 50", entries[len(entries)-1].Detail)
}

func TestEntryIDsAreUnique(t *testing.T) {
	log := NewLog(50)

	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		entry := log.Append(ActionWarning, ActorSystem, "dup check")
		_, dup := seen[entry.ID]
		require.False(t, dup, "duplicate entry id %s", entry.ID)
		seen[entry.ID] = struct{}{}
	}
}

func TestListReturnsCopy(t *testing.T) {
	log := NewLog(10)
	log.Append(ActionStartup, ActorSystem, "boot")

	entries := log.List()
	entries[0].Detail = "mutated"

	assert.Equal(t, "boot", log.List()[0].Detail)
}

func TestZeroCapacityFallsBack(t *testing.T) {
	log := NewLog(0)
	log.Append(ActionStartup, ActorSystem, "boot")
	assert.Equal(t, 1, log.Len())
}
