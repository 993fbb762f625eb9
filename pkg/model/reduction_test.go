package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRewriteStats_Total(t *testing.T) {
	stats := RewriteStats{
		AppLam:           3,
		AppPar:           1,
		LetLam:           2,
		LetParAnnihilate: 4,
		LetParCommute:    1,
		LetCtr:           5,
	}

	assert.Equal(t, uint64(16), stats.Total())
}

func TestReductionResponse(t *testing.T) {
	resp := &ReductionResponse{
		JobUUID:    "uuid-1",
		Status:     JobStatusSucceeded,
		NormalForm: "$0:0{}",
		Stats:      RewriteStats{AppLam: 1},
	}

	assert.Equal(t, "uuid-1", resp.JobUUID)
	assert.Equal(t, JobStatusSucceeded, resp.Status)
	assert.Equal(t, uint64(1), resp.Stats.Total())
}
