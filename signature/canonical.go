// Package signature builds the canonical representation of an outbound HTTP
// request and signs it with a loaded credential. The canonical string and the
// Authorization header layout are wire contracts shared with the remote
// verifier; their ordering and whitespace must not change.
package signature

import (
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// CanonicalRequest is the value signed instead of the raw HTTP request. It is
// constructed fresh per outbound call and never mutated afterwards.
type CanonicalRequest struct {
	Method        string
	RequestTarget string
	Host          string
	Date          string
	BodyDigest    string
}

// Build assembles a CanonicalRequest. The body digest is computed even for
// empty bodies because the verifier always expects a Digest header.
func Build(method, path, rawQuery, host, date string, body []byte) CanonicalRequest {
	target := path
	if rawQuery != "" {
		target += "?" + rawQuery
	}

	digest := sha256.Sum256(body)

	return CanonicalRequest{
		Method:        strings.ToUpper(method),
		RequestTarget: target,
		Host:          host,
		Date:          date,
		BodyDigest:    base64.StdEncoding.EncodeToString(digest[:]),
	}
}

// SigningString renders the newline-joined canonical form. Header lines
// follow the exact order announced in the Authorization header's headers
// list.
func (c CanonicalRequest) SigningString() string {
	var sb strings.Builder
	sb.WriteString("(request-target): ")
	sb.WriteString(strings.ToLower(c.Method))
	sb.WriteString(" ")
	sb.WriteString(c.RequestTarget)
	sb.WriteString("\nhost: ")
	sb.WriteString(c.Host)
	sb.WriteString("\ndate: ")
	sb.WriteString(c.Date)
	sb.WriteString("\ndigest: SHA-256=")
	sb.WriteString(c.BodyDigest)
	return sb.String()
}

// SignedHeaders lists the header names concatenated into the signing string,
// in signing order.
func (c CanonicalRequest) SignedHeaders() []string {
	return []string{"(request-target)", "host", "date", "digest"}
}

// DigestHeader is the Digest request header value matching the canonical
// string.
func (c CanonicalRequest) DigestHeader() string {
	return "SHA-256=" + c.BodyDigest
}
