// Package credentials loads and holds API key material for request signing.
// A Credential is immutable once loaded and safe for concurrent use.
package credentials

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"strings"
)

type KeyAlgorithm int

const (
	KeyAlgorithmUnsupported KeyAlgorithm = iota
	KeyAlgorithmRSA
	KeyAlgorithmECDSA
)

func (a KeyAlgorithm) String() string {
	switch a {
	case KeyAlgorithmRSA:
		return "rsa"
	case KeyAlgorithmECDSA:
		return "ecdsa"
	default:
		return "unsupported"
	}
}

// Credential pairs an API key id with its decoded private key. The key id is
// the three slash-separated account/user/apikey segments issued by the remote
// system.
type Credential struct {
	keyID     string
	algorithm KeyAlgorithm
	signer    crypto.Signer
}

func (c *Credential) KeyID() string {
	return c.keyID
}

func (c *Credential) Algorithm() KeyAlgorithm {
	return c.algorithm
}

// Signer exposes the decoded private key for signing canonical request
// strings.
func (c *Credential) Signer() crypto.Signer {
	return c.signer
}

// PublicKey returns the public half of the key material, used by
// verification-based conformance checks.
func (c *Credential) PublicKey() crypto.PublicKey {
	return c.signer.Public()
}

// Load decodes PEM-encoded private key material and binds it to keyID. The
// failure modes are part of the contract: material that does not decode at
// all is a MalformedKeyError, while material that decodes to a key kind other
// than RSA or ECDSA is an UnsupportedKeyError naming the detected kind.
func Load(keyID, pemText string) (*Credential, error) {
	if err := validateKeyID(keyID); err != nil {
		return nil, err
	}

	block, _ := pem.Decode([]byte(pemText))
	if block == nil {
		return nil, malformedKeyError("private key material is not PEM encoded", nil)
	}

	switch block.Type {
	case "RSA PRIVATE KEY":
		key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, malformedKeyError("failed to parse RSA private key", err)
		}
		return &Credential{keyID: keyID, algorithm: KeyAlgorithmRSA, signer: key}, nil
	case "EC PRIVATE KEY":
		key, err := x509.ParseECPrivateKey(block.Bytes)
		if err != nil {
			return nil, malformedKeyError("failed to parse EC private key", err)
		}
		return &Credential{keyID: keyID, algorithm: KeyAlgorithmECDSA, signer: key}, nil
	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, malformedKeyError("failed to parse PKCS#8 private key", err)
		}
		switch typed := key.(type) {
		case *rsa.PrivateKey:
			return &Credential{keyID: keyID, algorithm: KeyAlgorithmRSA, signer: typed}, nil
		case *ecdsa.PrivateKey:
			return &Credential{keyID: keyID, algorithm: KeyAlgorithmECDSA, signer: typed}, nil
		default:
			return nil, unsupportedKeyError("unsupported private key kind %T", key)
		}
	default:
		return nil, unsupportedKeyError("unsupported private key kind %q", block.Type)
	}
}

// LoadFile reads PEM key material from path and loads it.
func LoadFile(keyID, path string) (*Credential, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, malformedKeyError("failed to read private key file", err)
	}
	return Load(keyID, string(data))
}

func validateKeyID(keyID string) error {
	trimmed := strings.TrimSpace(keyID)
	if trimmed == "" {
		return validationError("api key id is required", nil)
	}
	if len(strings.Split(trimmed, "/")) != 3 {
		return validationError("api key id must have three slash-separated segments", nil)
	}
	return nil
}
