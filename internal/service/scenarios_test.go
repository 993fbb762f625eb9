package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optinet/optinet/internal/testutil"
	"github.com/optinet/optinet/pkg/model"
)

// The end-to-end suite: every scenario reduced through the full service
// pipeline must print the expected normal form.
func TestReduceScenarios(t *testing.T) {
	for _, sc := range testutil.Scenarios() {
		t.Run(sc.Name, func(t *testing.T) {
			svc := NewReductionService(nil, nil, nil, testLogger())

			resp, err := svc.Reduce(context.Background(), &model.ReductionRequest{
				JobUUID:  sc.Name,
				Program:  sc.Program,
				GasLimit: 10_000_000,
			})

			require.NoError(t, err)
			assert.Equal(t, model.JobStatusSucceeded, resp.Status, sc.Name)
			assert.Equal(t, sc.Expected, resp.NormalForm, sc.Name)
			assert.GreaterOrEqual(t, resp.Stats.Total(), sc.MinRewrites, sc.Name)
		})
	}
}

// Normalizing an already-normal program must not rewrite anything
// further: feeding a scenario's printed normal form back through the
// pipeline yields the same text at zero cost.
func TestReduceIsIdempotentOnNormalForms(t *testing.T) {
	for _, sc := range testutil.Scenarios() {
		t.Run(sc.Name, func(t *testing.T) {
			printed, _ := testutil.ReduceProgram(t, sc.Program, 0)

			again, h := testutil.ReduceProgram(t, printed, 0)
			assert.Equal(t, printed, again)
			assert.Zero(t, h.Gas(), "re-normalizing a normal form should cost no rewrites")
		})
	}
}

// The shared nand tree is the optimality witness: the iterated
// tree doubles in size per level without sharing, but lazy duplication
// keeps the rewrite count far below the unshared blowup.
func TestSharedNandTreeStaysSmall(t *testing.T) {
	scenarios := testutil.Scenarios()
	nand := scenarios[len(scenarios)-1]
	require.Equal(t, "nand_of_shared_slow_tree", nand.Name)

	_, h := testutil.ReduceProgram(t, nand.Program, 0)
	assert.Less(t, h.Gas(), uint64(1000),
		"optimal sharing should keep the nand tree to a small, near-linear rewrite count")
}

func TestScenariosConvergeAcrossGasBudgets(t *testing.T) {
	for _, sc := range testutil.Scenarios() {
		t.Run(sc.Name, func(t *testing.T) {
			result, err := CheckConvergence(context.Background(), sc.Program,
				[]uint64{10, 1_000, 1_000_000})
			require.NoError(t, err)
			assert.True(t, result.Convergent, "normal forms must agree across sufficient gas budgets")
		})
	}
}
