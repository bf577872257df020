package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateTerminal(t *testing.T) {
	assert.False(t, StateIdle.Terminal())
	assert.False(t, StateRunning.Terminal())
	assert.True(t, StateCompleted.Terminal())
	assert.True(t, StateCancelled.Terminal())
	assert.True(t, StateFailed.Terminal())
}

func TestResultNoWorkNeeded(t *testing.T) {
	assert.True(t, Result{State: StateCompleted}.NoWorkNeeded())
	assert.True(t, Result{State: StateCompleted, FilesSkipped: 3}.NoWorkNeeded())
	assert.False(t, Result{State: StateCompleted, FilesDownloaded: 1}.NoWorkNeeded())
	assert.False(t, Result{State: StateFailed}.NoWorkNeeded())
}

func TestResultPartial(t *testing.T) {
	assert.True(t, Result{State: StateFailed, TargetsWithWork: 1}.Partial())
	assert.False(t, Result{State: StateFailed}.Partial())
	assert.False(t, Result{State: StateCompleted, TargetsWithWork: 2}.Partial())
}
