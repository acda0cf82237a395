package signature

import (
	"crypto"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"strings"

	"github.com/crmarques/intersync/credentials"
	"github.com/crmarques/intersync/faults"
)

// Algorithm labels the remote verifier accepts. The EC label predates the
// verifier learning real ECDSA identifiers and is kept for compatibility.
const (
	AlgorithmRSASHA256   = "rsa-sha256"
	AlgorithmECDSASHA256 = "hmac-sha256"
)

// Result carries a computed signature plus the metadata needed to build the
// Authorization header. Headers lists header names in the exact order they
// were concatenated into the canonical string.
type Result struct {
	Algorithm string
	Signature []byte
	Headers   []string
}

func (r Result) EncodedSignature() string {
	return base64.StdEncoding.EncodeToString(r.Signature)
}

// Sign computes the signature over the canonical request using the
// credential's key. RSA keys sign the SHA-256 digest with PKCS#1 v1.5 padding
// and are deterministic; EC keys sign with ECDSA over SHA-256 and draw a
// fresh nonce per call.
func Sign(cred *credentials.Credential, canonical CanonicalRequest) (Result, error) {
	if cred == nil {
		return Result{}, faults.NewTypedError(faults.ValidationError, "credential is required", nil)
	}

	var label string
	switch cred.Algorithm() {
	case credentials.KeyAlgorithmRSA:
		label = AlgorithmRSASHA256
	case credentials.KeyAlgorithmECDSA:
		label = AlgorithmECDSASHA256
	default:
		return Result{}, faults.NewTypedErrorf(faults.UnsupportedKeyError, "unsupported key kind %q", cred.Algorithm())
	}

	digest := sha256.Sum256([]byte(canonical.SigningString()))
	signed, err := cred.Signer().Sign(rand.Reader, digest[:], crypto.SHA256)
	if err != nil {
		return Result{}, faults.NewTypedError(faults.InternalError, "signing failed", err)
	}

	return Result{
		Algorithm: label,
		Signature: signed,
		Headers:   canonical.SignedHeaders(),
	}, nil
}

// AuthorizationHeader renders the Authorization header value for a signed
// request.
func AuthorizationHeader(keyID string, result Result) string {
	var sb strings.Builder
	sb.WriteString(`Signature keyId="`)
	sb.WriteString(keyID)
	sb.WriteString(`",algorithm="`)
	sb.WriteString(result.Algorithm)
	sb.WriteString(`",headers="`)
	sb.WriteString(strings.Join(result.Headers, " "))
	sb.WriteString(`",signature="`)
	sb.WriteString(result.EncodedSignature())
	sb.WriteString(`"`)
	return sb.String()
}
