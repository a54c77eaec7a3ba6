package envelope

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"os"
	"time"

	"github.com/bichon-mail/bichon/internal/utils"
)

// generateMessageID synthesises a Message-ID for bodies that arrived
// without one, in the same shape the reference importer uses:
// <rand128-derived-hex>.<utc-ms>.<pid>@bichon.
func generateMessageID() string {
	var buf [8]byte
	_, _ = rand.Read(buf[:])
	rnd := binary.BigEndian.Uint64(buf[:])
	return fmt.Sprintf("<%016x.%d.%d@bichon>", rnd, time.Now().UnixMilli(), os.Getpid())
}

// computeThreadID hashes the first reference when both in-reply-to and a
// non-empty references list are present, otherwise the message id itself,
// truncated to 53 bits so it survives a round-trip through a JS float.
func computeThreadID(inReplyTo string, references []string, messageID string) uint64 {
	if inReplyTo != "" && len(references) > 0 {
		return utils.Safe53(utils.StableHash(references[0]))
	}
	return utils.Safe53(utils.StableHash(messageID))
}
