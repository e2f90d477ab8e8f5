package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTeachingStageFor(t *testing.T) {
	tests := map[int]TeachingStage{
		0: StageIntroduction,
		1: StageExploration,
		2: StageDeepening,
		3: StageDeepening,
		4: StageSynthesis,
		9: StageSynthesis,
	}
	for n, want := range tests {
		assert.Equal(t, want, TeachingStageFor(n), "responses=%d", n)
	}
}
