package envelope

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateMessageID(t *testing.T) {
	id := generateMessageID()
	assert.True(t, strings.HasPrefix(id, "<"))
	assert.True(t, strings.HasSuffix(id, "@bichon>"))

	second := generateMessageID()
	assert.NotEqual(t, id, second)
}

func TestComputeThreadID_PrefersFirstReference(t *testing.T) {
	id1 := computeThreadID("<reply@x>", []string{"<ref1@x>", "<ref2@x>"}, "<msg@x>")
	id2 := computeThreadID("<reply@x>", []string{"<ref1@x>"}, "<other-msg@x>")
	assert.Equal(t, id1, id2)
}

func TestComputeThreadID_FallsBackToMessageID(t *testing.T) {
	id1 := computeThreadID("", nil, "<msg@x>")
	id2 := computeThreadID("<reply@x>", nil, "<msg@x>")
	assert.Equal(t, id1, id2)

	other := computeThreadID("", nil, "<different@x>")
	assert.NotEqual(t, id1, other)
}

func TestComputeThreadID_Is53Bit(t *testing.T) {
	id := computeThreadID("", nil, "<msg@x>")
	assert.Less(t, id, uint64(1)<<53)
}
