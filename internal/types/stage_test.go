package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStage_Next_Progression(t *testing.T) {
	order := []Stage{StagePending, StageQueriesReady, StageSearched, StageExtracted, StageClassified, StageDone}
	for i := 0; i < len(order)-1; i++ {
		assert.Equal(t, order[i+1], order[i].Next(), "stage %s should advance to %s", order[i], order[i+1])
	}
}

func TestStage_Next_TerminalStagesStay(t *testing.T) {
	assert.Equal(t, StageDone, StageDone.Next())
	assert.Equal(t, StageFailed, StageFailed.Next())
}

func TestStage_Terminal(t *testing.T) {
	assert.True(t, StageDone.Terminal())
	assert.True(t, StageFailed.Terminal())
	assert.False(t, StagePending.Terminal())
	assert.False(t, StageExtracted.Terminal())
}

func TestParseStage_Valid(t *testing.T) {
	s, err := ParseStage("queries_ready")
	require.NoError(t, err)
	assert.Equal(t, StageQueriesReady, s)
}

func TestParseStage_Unknown(t *testing.T) {
	_, err := ParseStage("reticulating")
	assert.Error(t, err)
}
