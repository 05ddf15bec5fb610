package identity

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dgrijalva/jwt-go"
)

// ErrUnknownKey means the token names a key the authority does not publish.
var ErrUnknownKey = errors.New("unknown signing key")

// UnavailableError means the authority's keys could not be obtained.
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string { return "identity keys unavailable: " + e.Err.Error() }

func (e *UnavailableError) Unwrap() error { return e.Err }

// KeySource resolves the public key for a key id.
type KeySource interface {
	PublicKey(ctx context.Context, kid string) (*rsa.PublicKey, error)
}

// StaticKeySource serves a fixed key set.
type StaticKeySource struct {
	keys map[string]*rsa.PublicKey
}

// NewStaticKeySource parses PEM encoded public keys or certificates by kid.
func NewStaticKeySource(pems map[string]string) (*StaticKeySource, error) {
	keys, err := parseKeySet(pems)
	if err != nil {
		return nil, err
	}
	return &StaticKeySource{keys: keys}, nil
}

// LoadStaticKeySource reads a JSON object of kid to PEM from path.
func LoadStaticKeySource(path string) (*StaticKeySource, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file %s: %w", path, err)
	}
	var pems map[string]string
	if err := json.Unmarshal(raw, &pems); err != nil {
		return nil, fmt.Errorf("failed to parse key file %s: %w", path, err)
	}
	return NewStaticKeySource(pems)
}

func (s *StaticKeySource) PublicKey(_ context.Context, kid string) (*rsa.PublicKey, error) {
	key, ok := s.keys[kid]
	if !ok {
		return nil, ErrUnknownKey
	}
	return key, nil
}

// RemoteKeySource fetches the authority's published certificates and keeps
// them for as long as the response's Cache-Control max-age allows.
type RemoteKeySource struct {
	url    string
	client *http.Client
	now    func() time.Time

	mu      sync.Mutex
	keys    map[string]*rsa.PublicKey
	expires time.Time
}

// NewRemoteKeySource creates a source backed by url.
func NewRemoteKeySource(url string, client *http.Client) *RemoteKeySource {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &RemoteKeySource{url: url, client: client, now: time.Now}
}

func (s *RemoteKeySource) PublicKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.keys == nil || !s.now().Before(s.expires) {
		if err := s.refresh(ctx); err != nil {
			return nil, err
		}
	}
	key, ok := s.keys[kid]
	if !ok {
		return nil, ErrUnknownKey
	}
	return key, nil
}

func (s *RemoteKeySource) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return &UnavailableError{Err: err}
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return &UnavailableError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &UnavailableError{Err: fmt.Errorf("certificate endpoint returned %d", resp.StatusCode)}
	}
	var pems map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&pems); err != nil {
		return &UnavailableError{Err: fmt.Errorf("failed to decode certificates: %w", err)}
	}
	keys, err := parseKeySet(pems)
	if err != nil {
		return &UnavailableError{Err: err}
	}

	s.keys = keys
	s.expires = s.now().Add(maxAge(resp.Header.Get("Cache-Control")))
	return nil
}

func parseKeySet(pems map[string]string) (map[string]*rsa.PublicKey, error) {
	keys := make(map[string]*rsa.PublicKey, len(pems))
	for kid, pem := range pems {
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pem))
		if err != nil {
			return nil, fmt.Errorf("failed to parse key %q: %w", kid, err)
		}
		keys[kid] = key
	}
	return keys, nil
}

func maxAge(cacheControl string) time.Duration {
	for _, directive := range strings.Split(cacheControl, ",") {
		name, value, ok := strings.Cut(strings.TrimSpace(directive), "=")
		if !ok || !strings.EqualFold(name, "max-age") {
			continue
		}
		if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return 0
}
