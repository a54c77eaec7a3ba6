package envelope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const plainMessage = "From: Alice <alice@example.com>\r\n" +
	"To: Bob <bob@example.com>\r\n" +
	"Subject: Hello there\r\n" +
	"Message-Id: <abc123@example.com>\r\n" +
	"Date: Mon, 02 Jan 2006 15:04:05 +0000\r\n" +
	"Content-Type: text/plain\r\n\r\n" +
	"Hello Bob, how are you?\r\n"

func TestExtractFromEML_PlainText(t *testing.T) {
	env, err := ExtractFromEML("acct_1", "mbox_1", []byte(plainMessage))
	require.NoError(t, err)

	assert.Equal(t, "acct_1", env.AccountID)
	assert.Equal(t, "mbox_1", env.MailboxID)
	assert.Equal(t, uint32(0), env.UID)
	assert.Equal(t, "<abc123@example.com>", env.MessageID)
	assert.Equal(t, "Hello there", env.Subject)
	assert.Equal(t, "alice@example.com", env.From)
	assert.Contains(t, env.To, "bob@example.com")
	assert.Contains(t, env.Text, "Hello Bob")
	assert.Equal(t, env.Date, env.InternalDate)
	assert.NotEmpty(t, env.ID)
}

const noMessageIDMessage = "From: carol@example.com\r\n" +
	"To: dave@example.com\r\n" +
	"Subject: No id here\r\n" +
	"Content-Type: text/plain\r\n\r\n" +
	"body\r\n"

func TestExtractFromEML_SynthesizesMessageID(t *testing.T) {
	env, err := ExtractFromEML("acct_1", "mbox_1", []byte(noMessageIDMessage))
	require.NoError(t, err)

	assert.NotEmpty(t, env.MessageID)
	assert.Contains(t, env.MessageID, "@bichon")
}

const htmlOnlyMessage = "From: erin@example.com\r\n" +
	"To: frank@example.com\r\n" +
	"Subject: HTML only\r\n" +
	"Message-Id: <html1@example.com>\r\n" +
	"Content-Type: text/html\r\n\r\n" +
	"<p>Hello <strong>World</strong></p>\r\n"

func TestExtractFromEML_RendersHTMLFallback(t *testing.T) {
	env, err := ExtractFromEML("acct_1", "mbox_1", []byte(htmlOnlyMessage))
	require.NoError(t, err)

	assert.Contains(t, env.Text, "Hello")
	assert.Contains(t, env.Text, "World")
}

const noFromMessage = "To: nobody@example.com\r\n" +
	"Subject: No sender\r\n" +
	"Message-Id: <nosender@example.com>\r\n" +
	"Content-Type: text/plain\r\n\r\n" +
	"body\r\n"

func TestExtractFromEML_DefaultsFromToUnknown(t *testing.T) {
	env, err := ExtractFromEML("acct_1", "mbox_1", []byte(noFromMessage))
	require.NoError(t, err)

	assert.Equal(t, "unknown", env.From)
}
