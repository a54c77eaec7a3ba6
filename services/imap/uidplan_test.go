package imap

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bichon-mail/bichon/internal/enum"
)

func TestCompress(t *testing.T) {
	assert.Equal(t, "", Compress(nil))
	assert.Equal(t, "5", Compress([]uint32{5}))
	assert.Equal(t, "1:3", Compress([]uint32{1, 2, 3}))
	assert.Equal(t, "1:3,5:7,9:11,15", Compress([]uint32{1, 2, 3, 5, 6, 7, 9, 10, 11, 15}))
}

func TestPlan_Ascending(t *testing.T) {
	uids := []uint32{1, 2, 3, 5, 6, 7, 9, 10, 11, 15}

	batches, err := Plan(uids, 6, false)
	assert.NoError(t, err)
	assert.Equal(t, []string{"1:3,5:7", "9:11,15"}, batches)
}

func TestPlan_Descending(t *testing.T) {
	uids := []uint32{1, 2, 3, 4, 5, 6, 7, 8}

	batches, err := Plan(uids, 3, true)
	assert.NoError(t, err)
	// reversed input is [8..1], chunked by 3: [8,7,6] [5,4,3] [2,1]
	// each chunk re-sorted ascending before compression
	assert.Equal(t, []string{"6:8", "3:5", "1:2"}, batches)
}

func TestPlan_Errors(t *testing.T) {
	_, err := Plan(nil, 5, false)
	assert.Error(t, err)

	_, err = Plan([]uint32{1}, 0, false)
	assert.Error(t, err)
}

func TestClipToFolderLimit(t *testing.T) {
	uids := make([]uint32, 150)
	for i := range uids {
		uids[i] = uint32(i + 1)
	}

	limit := 50
	// a limit of 50 is clamped to minFolderLimit (100) before clipping
	since := ClipToFolderLimit(uids, &limit, enum.DirectionSince)
	assert.Len(t, since, 100)
	assert.Equal(t, uint32(51), since[0])
	assert.Equal(t, uint32(150), since[len(since)-1])

	before := ClipToFolderLimit(uids, &limit, enum.DirectionBefore)
	assert.Len(t, before, 100)
	assert.Equal(t, uint32(1), before[0])
	assert.Equal(t, uint32(100), before[len(before)-1])

	assert.Equal(t, uids, ClipToFolderLimit(uids, nil, enum.DirectionSince))
}

func TestClipToFolderLimit_ClampsToMinimum(t *testing.T) {
	uids := make([]uint32, 120)
	for i := range uids {
		uids[i] = uint32(i + 1)
	}

	small := 10
	clipped := ClipToFolderLimit(uids, &small, enum.DirectionBefore)
	assert.Len(t, clipped, minFolderLimit)
}
