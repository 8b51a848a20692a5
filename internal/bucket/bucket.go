// Package bucket locates prebuilt artifacts in the remote nightly
// store. The store exposes a flat XML listing of objects; each object
// carries a path-like key and a generation counter.
package bucket

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultBaseURL is the listing endpoint of the nightly build store.
const DefaultBaseURL = "https://storage.googleapis.com/libtensorflow-nightly"

// ErrNotFound means no object in the listing matches the expected
// artifact file name for this platform.
var ErrNotFound = errors.New("no matching artifact in listing")

// Object is one stored artifact from the remote listing.
//
// Generation is an opaque counter assigned by the remote store. The
// listing format declares it monotonically increasing per upload, so
// the maximum generation among same-named objects identifies the
// newest one; it is strictly an ordering key, not a timestamp.
type Object struct {
	Key        string `xml:"Key"`
	Generation uint64 `xml:"Generation"`
}

// listBucketResult mirrors the remote listing document.
type listBucketResult struct {
	Contents []Object `xml:"Contents"`
}

// Index is one fetch of the remote object listing.
type Index struct {
	Objects []Object
}

// ParseIndex decodes a listing document.
func ParseIndex(data []byte) (*Index, error) {
	var parsed listBucketResult
	if err := xml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse bucket listing: %w", err)
	}
	return &Index{Objects: parsed.Contents}, nil
}

// Latest returns the object with the maximum generation among those
// whose key ends with suffix. Generations are unique in practice; on a
// tie the first maximal object in listing order wins, which keeps the
// choice deterministic for a given listing. Returns ErrNotFound when
// nothing matches.
func (ix *Index) Latest(suffix string) (Object, error) {
	var best Object
	found := false
	for _, obj := range ix.Objects {
		if !strings.HasSuffix(obj.Key, suffix) {
			continue
		}
		if !found || obj.Generation > best.Generation {
			best = obj
			found = true
		}
	}
	if !found {
		return Object{}, fmt.Errorf("%w: suffix %q", ErrNotFound, suffix)
	}
	return best, nil
}

// Locator resolves download URLs for the newest prebuilt artifact
// matching a file name.
type Locator struct {
	BaseURL string       // listing endpoint; DefaultBaseURL if empty
	Client  *http.Client // defaults to a client with a 60s timeout
	Logger  *log.Logger
}

// LatestURL fetches the full listing (the store does not paginate it)
// and returns the URL of the newest object whose key ends with
// filename.
func (l *Locator) LatestURL(ctx context.Context, filename string) (string, error) {
	baseURL := l.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	ix, err := l.fetch(ctx, baseURL)
	if err != nil {
		return "", err
	}
	obj, err := ix.Latest(filename)
	if err != nil {
		return "", err
	}
	l.logger().Debug("selected artifact", "key", obj.Key, "generation", obj.Generation)
	return baseURL + "/" + obj.Key, nil
}

func (l *Locator) fetch(ctx context.Context, baseURL string) (*Index, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
	if err != nil {
		return nil, err
	}
	l.logger().Debug("fetching listing", "url", baseURL)

	resp, err := l.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bucket listing: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch bucket listing: unexpected status %d for %s", resp.StatusCode, baseURL)
	}

	var parsed listBucketResult
	if err := xml.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to parse bucket listing: %w", err)
	}
	return &Index{Objects: parsed.Contents}, nil
}

func (l *Locator) client() *http.Client {
	if l.Client != nil {
		return l.Client
	}
	return &http.Client{Timeout: 60 * time.Second}
}

func (l *Locator) logger() *log.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return log.Default()
}
