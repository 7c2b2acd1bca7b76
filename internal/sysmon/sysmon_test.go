// ABOUTME: Tests for host resource sampling
// ABOUTME: Sanity checks against the running test process and host

package sysmon

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTotalMemKB(t *testing.T) {
	s := New()

	kb, err := s.TotalMemKB()
	require.NoError(t, err)
	assert.Greater(t, kb, uint64(0))
}

func TestMemoryNumbers(t *testing.T) {
	s := New()

	total, used, free, err := s.MemoryNumbers()
	require.NoError(t, err)
	assert.Greater(t, total, uint64(0))
	assert.GreaterOrEqual(t, total, used)
	assert.LessOrEqual(t, free, total)
}

func TestCPUPercent(t *testing.T) {
	s := New()

	pct, err := s.CPUPercent()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, pct, 0.0)
}

func TestProcessMemKB(t *testing.T) {
	s := New()

	// Our own process is guaranteed to exist and to use memory.
	kb, err := s.ProcessMemKB(os.Getpid())
	require.NoError(t, err)
	assert.Greater(t, kb, int64(0))
}

func TestProcessMemKBUnknownPID(t *testing.T) {
	s := New()

	_, err := s.ProcessMemKB(1 << 30)
	assert.Error(t, err)
}
