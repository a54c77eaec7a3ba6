package imap

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bichon-mail/bichon/internal/enum"
)

// Compress turns strictly ascending UIDs into IMAP wire-format ranges:
// maximal contiguous runs collapse to "lo:hi", singletons stay "n".
func Compress(sortedUIDs []uint32) string {
	if len(sortedUIDs) == 0 {
		return ""
	}

	var parts []string
	runStart := sortedUIDs[0]
	runEnd := sortedUIDs[0]

	flush := func() {
		if runStart == runEnd {
			parts = append(parts, fmt.Sprintf("%d", runStart))
		} else {
			parts = append(parts, fmt.Sprintf("%d:%d", runStart, runEnd))
		}
	}

	for _, uid := range sortedUIDs[1:] {
		if uid == runEnd+1 {
			runEnd = uid
			continue
		}
		flush()
		runStart, runEnd = uid, uid
	}
	flush()

	return strings.Join(parts, ",")
}

// Plan splits uids into chunkSize-sized batches and compresses each one.
// When desc, the input is reversed before chunking so chunk boundaries
// run newest-first, but every chunk's own wire form is re-sorted
// ascending before compression.
func Plan(uids []uint32, chunkSize int, desc bool) ([]string, error) {
	if len(uids) == 0 {
		return nil, fmt.Errorf("imap: plan requires a non-empty uid set")
	}
	if chunkSize < 1 {
		return nil, fmt.Errorf("imap: plan requires chunk_size >= 1, got %d", chunkSize)
	}

	ordered := make([]uint32, len(uids))
	copy(ordered, uids)
	if desc {
		reverse(ordered)
	}

	var batches []string
	for i := 0; i < len(ordered); i += chunkSize {
		end := i + chunkSize
		if end > len(ordered) {
			end = len(ordered)
		}
		chunk := make([]uint32, end-i)
		copy(chunk, ordered[i:end])
		sort.Slice(chunk, func(a, b int) bool { return chunk[a] < chunk[b] })
		batches = append(batches, Compress(chunk))
	}

	return batches, nil
}

func reverse(uids []uint32) {
	for i, j := 0, len(uids)-1; i < j; i, j = i+1, j-1 {
		uids[i], uids[j] = uids[j], uids[i]
	}
}

// minFolderLimit is the floor applied to any configured folder limit
// before clipping, per the "folder limit" glossary entry.
const minFolderLimit = 100

// ClipToFolderLimit enforces the per-folder cap for date-bounded syncs:
// direction Since keeps the highest UIDs (newest), direction Before keeps
// the lowest (oldest). uids must already be sorted ascending.
func ClipToFolderLimit(uids []uint32, limit *int, direction enum.FetchDirection) []uint32 {
	if limit == nil {
		return uids
	}

	l := *limit
	if l < minFolderLimit {
		l = minFolderLimit
	}
	if len(uids) <= l {
		return uids
	}

	if direction == enum.DirectionSince {
		return uids[len(uids)-l:]
	}
	return uids[:l]
}
