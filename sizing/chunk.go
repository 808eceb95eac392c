package sizing

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// ChunkPlan describes how a transfer of TotalSize bytes is cut into
// ChunkSize-byte chunks.
type ChunkPlan struct {
	ChunkSize  int64
	TotalSize  int64
	ChunkCount int64
}

// NewChunkPlan computes the chunk count with ceiling division.
func NewChunkPlan(chunkSize, totalSize int64) (ChunkPlan, error) {
	if chunkSize <= 0 {
		return ChunkPlan{}, fmt.Errorf("%w: got %d", ErrDivisionByZero, chunkSize)
	}
	if totalSize < 0 {
		return ChunkPlan{}, fmt.Errorf("%w: total size %d", ErrSizeOutOfRange, totalSize)
	}

	count := totalSize / chunkSize
	if totalSize%chunkSize > 0 {
		count++
	}
	return ChunkPlan{
		ChunkSize:  chunkSize,
		TotalSize:  totalSize,
		ChunkCount: count,
	}, nil
}

// PlanChunks parses both size strings and returns the resulting plan.
func PlanChunks(chunkSize, totalSize string) (ChunkPlan, error) {
	chunk, err := ParseSize(chunkSize)
	if err != nil {
		return ChunkPlan{}, fmt.Errorf("chunk size: %w", err)
	}
	total, err := ParseSize(totalSize)
	if err != nil {
		return ChunkPlan{}, fmt.Errorf("total size: %w", err)
	}
	return NewChunkPlan(chunk, total)
}

func (p ChunkPlan) String() string {
	return fmt.Sprintf("%s in %s chunks of %s",
		humanize.IBytes(uint64(p.TotalSize)),
		humanize.Comma(p.ChunkCount),
		humanize.IBytes(uint64(p.ChunkSize)),
	)
}
