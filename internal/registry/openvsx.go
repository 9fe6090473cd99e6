package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const openVSXAPIBase = "https://open-vsx.org/api"

// OpenVSX queries the Open VSX registry.
type OpenVSX struct {
	cfg clientConfig
}

// NewOpenVSX creates an Open VSX client.
func NewOpenVSX(opts ...Option) *OpenVSX {
	return &OpenVSX{cfg: newConfig(openVSXAPIBase, opts)}
}

type openVSXExtension struct {
	Version string `json:"version"`
}

// SplitID splits "namespace.name" on the first dot.
func SplitID(id string) (namespace, name string, err error) {
	namespace, name, ok := strings.Cut(id, ".")
	if !ok || namespace == "" || name == "" {
		return "", "", fmt.Errorf("%q: %w", id, ErrInvalidID)
	}
	return namespace, name, nil
}

// Latest returns the latest published version of the extension id.
func (o *OpenVSX) Latest(ctx context.Context, id string) (string, error) {
	namespace, name, err := SplitID(id)
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/%s/%s/latest", strings.TrimRight(o.cfg.baseURL, "/"),
		url.PathEscape(namespace), url.PathEscape(name))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", o.cfg.userAgent)

	resp, err := o.cfg.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Open VSX returned status %d for %s", resp.StatusCode, id)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response body: %w", err)
	}

	var ext openVSXExtension
	if err := json.Unmarshal(body, &ext); err != nil {
		return "", fmt.Errorf("parsing extension JSON: %w", err)
	}

	version := strings.TrimSpace(ext.Version)
	if version == "" {
		return "", fmt.Errorf("%s: response has no version: %w", id, ErrNotFound)
	}
	return version, nil
}
