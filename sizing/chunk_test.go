package sizing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChunkPlanCeiling(t *testing.T) {
	for chunk := int64(1); chunk <= 64; chunk++ {
		for total := int64(0); total <= 512; total += 7 {
			plan, err := NewChunkPlan(chunk, total)
			require.NoError(t, err)

			want := (total + chunk - 1) / chunk
			assert.Equal(t, want, plan.ChunkCount, "chunk=%d total=%d", chunk, total)
			assert.GreaterOrEqual(t, plan.ChunkCount*chunk, total)
			if plan.ChunkCount > 0 {
				assert.Less(t, (plan.ChunkCount-1)*chunk, total)
			}
		}
	}
}

func TestNewChunkPlanZeroTotal(t *testing.T) {
	plan, err := NewChunkPlan(1<<20, 0)
	require.NoError(t, err)
	assert.Zero(t, plan.ChunkCount)
}

func TestNewChunkPlanZeroChunk(t *testing.T) {
	_, err := NewChunkPlan(0, 100)
	assert.ErrorIs(t, err, ErrDivisionByZero)
}

func TestPlanChunks(t *testing.T) {
	plan, err := PlanChunks("2MB", "100MB")
	require.NoError(t, err)
	assert.Equal(t, ChunkPlan{ChunkSize: 2 << 20, TotalSize: 100 << 20, ChunkCount: 50}, plan)

	plan, err = PlanChunks("3MB", "10MB")
	require.NoError(t, err)
	assert.EqualValues(t, 4, plan.ChunkCount)

	plan, err = PlanChunks("1MB", "0B")
	require.NoError(t, err)
	assert.Zero(t, plan.ChunkCount)

	_, err = PlanChunks("0KB", "10MB")
	assert.ErrorIs(t, err, ErrDivisionByZero)

	_, err = PlanChunks("1XB", "10MB")
	assert.ErrorIs(t, err, ErrUnknownUnit)

	_, err = PlanChunks("1MB", "ten")
	assert.ErrorIs(t, err, ErrInvalidSizeFormat)
}

func TestChunkPlanString(t *testing.T) {
	plan, err := PlanChunks("2MB", "100MB")
	require.NoError(t, err)
	assert.Equal(t, "100 MiB in 50 chunks of 2.0 MiB", plan.String())
}
