package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimerMeasuresElapsed(t *testing.T) {
	tm := StartTimer("photo")
	time.Sleep(5 * time.Millisecond)
	d := tm.Stop()
	assert.GreaterOrEqual(t, d, 5*time.Millisecond)
	assert.Equal(t, d, tm.Duration())
	assert.Equal(t, "photo", tm.Name())
	assert.Contains(t, tm.String(), "photo: ")
}

func TestTimerStringUnnamed(t *testing.T) {
	tm := StartTimer("")
	tm.Stop()
	assert.NotEmpty(t, tm.String())
}
