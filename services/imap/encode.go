package imap

import (
	"github.com/cention-sany/utf7"
	"golang.org/x/text/transform"
)

// EncodeFolderName converts a human-readable folder name to the modified
// UTF-7 IMAP wire form (RFC 3501 section 5.1.3), the encoding IMAP servers
// expect for mailbox names carrying non-ASCII characters.
func EncodeFolderName(name string) (string, error) {
	encoded, _, err := transform.String(utf7.Encoding.NewEncoder(), name)
	if err != nil {
		return "", err
	}
	return encoded, nil
}

// DecodeFolderName reverses EncodeFolderName.
func DecodeFolderName(encoded string) (string, error) {
	decoded, _, err := transform.String(utf7.Encoding.NewDecoder(), encoded)
	if err != nil {
		return "", err
	}
	return decoded, nil
}
