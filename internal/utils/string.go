package utils

import "strings"

// NormalizeMessageID strips surrounding whitespace and angle brackets from
// a Message-Id header value so it can be compared and hashed consistently.
func NormalizeMessageID(messageID string) string {
	messageID = strings.TrimSpace(messageID)
	messageID = strings.TrimPrefix(messageID, "<")
	messageID = strings.TrimSuffix(messageID, ">")
	return messageID
}
