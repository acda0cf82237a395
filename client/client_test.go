package client

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/crmarques/intersync/credentials"
	"github.com/crmarques/intersync/faults"
	"github.com/crmarques/intersync/resource"
)

const testKeyID = "account/user/apikey"

func newTestCredential(t *testing.T) (*credentials.Credential, *rsa.PublicKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	pemText := string(pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	}))
	cred, err := credentials.Load(testKeyID, pemText)
	if err != nil {
		t.Fatalf("load credential: %v", err)
	}
	return cred, &key.PublicKey
}

func newTestClient(t *testing.T, handler http.Handler, opts ...Option) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cred, _ := newTestCredential(t)
	opts = append([]Option{WithRetry(3, time.Millisecond)}, opts...)
	client, err := New(server.URL, cred, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client, server
}

// parseAuthorization splits the Signature header into its quoted parameters.
func parseAuthorization(t *testing.T, header string) map[string]string {
	t.Helper()
	const prefix = "Signature "
	if !strings.HasPrefix(header, prefix) {
		t.Fatalf("authorization header missing Signature prefix: %q", header)
	}

	params := map[string]string{}
	for _, pair := range strings.Split(header[len(prefix):], `",`) {
		key, value, found := strings.Cut(pair, `="`)
		if !found {
			t.Fatalf("malformed authorization parameter: %q", pair)
		}
		params[key] = strings.TrimSuffix(value, `"`)
	}
	return params
}

func TestSignedRequestVerifies(t *testing.T) {
	cred, public := newTestCredential(t)

	var server *httptest.Server
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		params := parseAuthorization(t, r.Header.Get("Authorization"))
		if params["keyId"] != testKeyID {
			t.Errorf("keyId: got %q", params["keyId"])
		}
		if params["algorithm"] != "rsa-sha256" {
			t.Errorf("algorithm: got %q", params["algorithm"])
		}
		if params["headers"] != "(request-target) host date digest" {
			t.Errorf("headers: got %q", params["headers"])
		}

		serverURL, _ := url.Parse(server.URL)
		signingString := fmt.Sprintf(
			"(request-target): %s %s\nhost: %s\ndate: %s\ndigest: %s",
			strings.ToLower(r.Method), r.URL.RequestURI(),
			serverURL.Host, r.Header.Get("Date"), r.Header.Get("Digest"))

		signatureBytes, err := base64.StdEncoding.DecodeString(params["signature"])
		if err != nil {
			t.Errorf("decode signature: %v", err)
		}
		digest := sha256.Sum256([]byte(signingString))
		if err := rsa.VerifyPKCS1v15(public, crypto.SHA256, digest[:], signatureBytes); err != nil {
			t.Errorf("signature does not verify: %v", err)
		}

		w.Header().Set("Content-Type", MediaTypeJSON)
		fmt.Fprint(w, `{"Moid":"5dee9d6b6972652d321d26b5"}`)
	})
	server = httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(server.URL, cred)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	query := url.Values{}
	query.Set("$filter", "Name eq 'lab'")
	response, err := client.Get(context.Background(), "/ntp/Policies", query)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resource.Moid(response.BodyMap()) != "5dee9d6b6972652d321d26b5" {
		t.Fatalf("unexpected body: %#v", response.Body)
	}
}

func TestPostSignsBodyDigest(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Content-Type"); got != MediaTypeJSON {
			t.Errorf("content type: got %q", got)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["Name"] != "lab" {
			t.Errorf("body name: got %v", body["Name"])
		}
		if !strings.HasPrefix(r.Header.Get("Digest"), "SHA-256=") {
			t.Errorf("digest header: got %q", r.Header.Get("Digest"))
		}
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"Name":"lab"}`)
	}))

	response, err := client.Post(context.Background(), "/ntp/Policies", resource.Body{"Name": "lab"})
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if response.Status != http.StatusCreated {
		t.Fatalf("status: got %d", response.Status)
	}
}

func TestEmptyBodyCarriesDigest(t *testing.T) {
	// The verifier requires a Digest header even on bodyless requests.
	const emptyDigest = "SHA-256=47DEQpj8HBSa+/TImW+5JCeuQeRkm5NMpJWZG3hSuFU="

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Digest"); got != emptyDigest {
			t.Errorf("digest: got %q, want %q", got, emptyDigest)
		}
		fmt.Fprint(w, `{}`)
	}))

	if _, err := client.Get(context.Background(), "/ntp/Policies", nil); err != nil {
		t.Fatalf("Get: %v", err)
	}
}

func TestServerErrorRetriedOnce(t *testing.T) {
	hits := 0
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits == 1 {
			http.Error(w, "backend unavailable", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"Moid":"5dee9d6b6972652d321d26b5"}`)
	}))

	if _, err := client.Get(context.Background(), "/ntp/Policies", nil); err != nil {
		t.Fatalf("Get after retry: %v", err)
	}
	if hits != 2 {
		t.Fatalf("expected 2 attempts, got %d", hits)
	}
}

func TestServerErrorNotRetriedTwice(t *testing.T) {
	hits := 0
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		http.Error(w, "backend unavailable", http.StatusServiceUnavailable)
	}))

	_, err := client.Get(context.Background(), "/ntp/Policies", nil)
	if !faults.IsCategory(err, faults.RemoteAPIError) {
		t.Fatalf("expected RemoteAPIError, got %v", err)
	}
	if hits != 2 {
		t.Fatalf("expected 2 attempts, got %d", hits)
	}
}

func TestClientErrorNotRetried(t *testing.T) {
	hits := 0
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		http.Error(w, "bad filter", http.StatusBadRequest)
	}))

	_, err := client.Get(context.Background(), "/ntp/Policies", nil)
	if !faults.IsCategory(err, faults.RemoteAPIError) {
		t.Fatalf("expected RemoteAPIError, got %v", err)
	}
	if faults.StatusOf(err) != http.StatusBadRequest {
		t.Fatalf("status: got %d", faults.StatusOf(err))
	}
	if hits != 1 {
		t.Fatalf("expected single attempt, got %d", hits)
	}
}

func TestAuthErrorCategory(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "signature rejected", http.StatusUnauthorized)
	}))

	_, err := client.Get(context.Background(), "/ntp/Policies", nil)
	if !faults.IsCategory(err, faults.AuthError) {
		t.Fatalf("expected AuthError, got %v", err)
	}
}

func TestResponseCarriesTraceID(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Starship-Traceid", "trace-123")
		fmt.Fprint(w, `{}`)
	}))

	response, err := client.Get(context.Background(), "/ntp/Policies", nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if response.TraceID != "trace-123" {
		t.Fatalf("trace id: got %q", response.TraceID)
	}
}

func TestListAllPaginates(t *testing.T) {
	total := 5
	var requests []string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.URL.RawQuery)
		top, _ := strconv.Atoi(r.URL.Query().Get("$top"))
		skip, _ := strconv.Atoi(r.URL.Query().Get("$skip"))

		var results []map[string]any
		for idx := skip; idx < total && idx < skip+top; idx++ {
			results = append(results, map[string]any{"Name": fmt.Sprintf("policy-%d", idx)})
		}
		payload := map[string]any{"Results": results}
		if results == nil {
			payload["Results"] = []any{}
		}
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Errorf("encode page: %v", err)
		}
	})

	client, _ := newTestClient(t, handler, WithPageSize(2))

	bodies, err := client.ListAll(context.Background(), "/ntp/Policies", nil)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(bodies) != total {
		t.Fatalf("expected %d bodies, got %d", total, len(bodies))
	}
	if name, _ := resource.String(bodies[4], "Name"); name != "policy-4" {
		t.Fatalf("last body: got %q", name)
	}
	if len(requests) != 3 {
		t.Fatalf("expected 3 page requests, got %d: %v", len(requests), requests)
	}
}

func TestListAllMissingEnvelopeMeansNoMatches(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))

	bodies, err := client.ListAll(context.Background(), "/ntp/Policies", nil)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(bodies) != 0 {
		t.Fatalf("body without Results envelope must yield no matches, got %#v", bodies)
	}
}

func TestListAllPreservesFilter(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("$filter"); got != "Name eq 'lab'" {
			t.Errorf("filter: got %q", got)
		}
		fmt.Fprint(w, `{"Results":[]}`)
	}))

	params := url.Values{}
	params.Set("$filter", "Name eq 'lab'")
	if _, err := client.ListAll(context.Background(), "/ntp/Policies", params); err != nil {
		t.Fatalf("ListAll: %v", err)
	}
}

func TestParseBaseURLRejectsBadInput(t *testing.T) {
	cred, _ := newTestCredential(t)

	cases := []string{"", "ftp://example.com", "https://"}
	for _, raw := range cases {
		if _, err := New(raw, cred); !faults.IsCategory(err, faults.ValidationError) {
			t.Fatalf("base url %q: expected ValidationError, got %v", raw, err)
		}
	}
}
