package ledgertx

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"golang.org/x/crypto/pbkdf2"
)

const (
	seedSalt       = "paybridge-ledger-seed"
	seedIterations = 4096
)

// Signer holds the hot wallet's signing key, derived deterministically from
// the configured seed passphrase.
type Signer struct {
	key *ecdsa.PrivateKey
}

// NewSigner derives the secp256k1 signing key from the seed passphrase.
func NewSigner(seed string) (*Signer, error) {
	if seed == "" {
		return nil, errors.New("empty signing seed")
	}

	material := pbkdf2.Key([]byte(seed), []byte(seedSalt), seedIterations, 32, sha256.New)
	key, err := crypto.ToECDSA(material)
	if err != nil {
		return nil, errors.Wrap(err, "derive signing key from seed")
	}
	return &Signer{key: key}, nil
}

// PubKeyHex returns the compressed signing public key as uppercase hex,
// embedded in every signed transaction.
func (s *Signer) PubKeyHex() string {
	return strings.ToUpper(hex.EncodeToString(crypto.CompressPubkey(&s.key.PublicKey)))
}

// SignBlob signs the canonical transaction bytes and returns the signature
// as uppercase hex.
func (s *Signer) SignBlob(blob []byte) (string, error) {
	sig, err := crypto.Sign(crypto.Keccak256(blob), s.key)
	if err != nil {
		return "", errors.Wrap(err, "sign transaction")
	}
	return strings.ToUpper(hex.EncodeToString(sig)), nil
}

// TxHash is the transaction identifier: uppercase hex keccak of the signed
// blob, used to look the transaction up for delivery confirmation.
func TxHash(blob []byte) string {
	return strings.ToUpper(hex.EncodeToString(crypto.Keccak256(blob)))
}
