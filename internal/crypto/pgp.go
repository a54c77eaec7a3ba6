package crypto

import (
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp"

	"github.com/bichon-mail/bichon/internal/errors"
)

// ValidatePGPPublicKey parses an armored PGP public key, the way the
// original implementation's account payload validation does for the
// optional pgp_key field. It is validation only - no encryption pipeline
// is built around it.
func ValidatePGPPublicKey(armored string) error {
	if armored == "" {
		return nil
	}

	keyring, err := openpgp.ReadArmoredKeyRing(strings.NewReader(armored))
	if err != nil {
		return errors.Wrap(errors.InvalidParameter, "malformed PGP public key", err)
	}
	if len(keyring) == 0 {
		return errors.Raise(errors.InvalidParameter, "PGP key ring is empty")
	}
	for _, entity := range keyring {
		if entity.PrimaryKey == nil {
			return errors.Raise(errors.InvalidParameter, "PGP entity missing primary key")
		}
	}
	return nil
}
