//go:build unix

package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiskUsage(t *testing.T) {
	st := diskUsage(t.TempDir())
	assert.NotZero(t, st.Total)
	assert.LessOrEqual(t, st.Free, st.Total)
	assert.Equal(t, st.Total-st.Free, st.Used)
	assert.NotEmpty(t, st.TotalText)

	assert.Zero(t, diskUsage(""))
	assert.Zero(t, diskUsage("/definitely/not/here"))
}
