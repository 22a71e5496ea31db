package openstack

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gophercloud/gophercloud/v2"
)

// Link is a version document link.
type Link struct {
	Href string `json:"href"`
	Rel  string `json:"rel"`
}

// Version is one entry of an endpoint's version discovery document.
type Version struct {
	ID     string `json:"id"`
	Status string `json:"status,omitempty"`
	Links  []Link `json:"links,omitempty"`

	// Microversion bounds, empty for services without microversions.
	MinVersion string `json:"min_version,omitempty"`
	Version    string `json:"version,omitempty"`
}

// Discoverer fetches the version list published at url.
type Discoverer interface {
	Versions(ctx context.Context, url string) ([]Version, error)
}

// NormalizeVersions fills in what single-version endpoints (placement, for
// one) leave out: a lone entry without status becomes "current" and a lone
// entry without links gets a self link to url. Lists of any other length are
// returned unchanged. The input slice is not modified.
func NormalizeVersions(versions []Version, url string) []Version {
	if len(versions) != 1 {
		return versions
	}

	v := versions[0]
	if v.Status == "" {
		v.Status = "current"
	}
	if len(v.Links) == 0 {
		v.Links = []Link{{Href: url, Rel: "self"}}
	}
	return []Version{v}
}

// normalizingDiscoverer applies NormalizeVersions to another discoverer.
type normalizingDiscoverer struct {
	next Discoverer
}

// NormalizeDiscovery wraps d so its results go through NormalizeVersions.
// Wrapping an already normalizing discoverer returns it as is.
func NormalizeDiscovery(d Discoverer) Discoverer {
	if _, ok := d.(*normalizingDiscoverer); ok {
		return d
	}
	return &normalizingDiscoverer{next: d}
}

func (d *normalizingDiscoverer) Versions(ctx context.Context, url string) ([]Version, error) {
	versions, err := d.next.Versions(ctx, url)
	if err != nil {
		return nil, err
	}
	return NormalizeVersions(versions, url), nil
}

// httpDiscoverer reads version documents through the authenticated provider
// client.
type httpDiscoverer struct {
	client *gophercloud.ProviderClient
}

// NewHTTPDiscoverer returns a Discoverer that issues GET url on client.
func NewHTTPDiscoverer(client *gophercloud.ProviderClient) Discoverer {
	return &httpDiscoverer{client: client}
}

func (d *httpDiscoverer) Versions(ctx context.Context, url string) ([]Version, error) {
	var doc versionDocument
	_, err := d.client.Request(ctx, http.MethodGet, url, &gophercloud.RequestOpts{
		JSONResponse: &doc,
		OkCodes:      []int{http.StatusOK, http.StatusMultipleChoices},
	})
	if err != nil {
		return nil, classifyError("discovery", "get versions", url, err)
	}
	return doc.versions, nil
}

// versionDocument accepts the three layouts found in the wild:
//
//	{"versions": {"values": [...]}}   keystone
//	{"versions": [...]}               nova, barbican, placement
//	{"version": {...}}                a versioned endpoint itself
type versionDocument struct {
	versions []Version
}

func (d *versionDocument) UnmarshalJSON(data []byte) error {
	var raw struct {
		Versions json.RawMessage `json:"versions"`
		Version  *Version        `json:"version"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch {
	case len(raw.Versions) > 0 && raw.Versions[0] == '{':
		var wrapped struct {
			Values []Version `json:"values"`
		}
		if err := json.Unmarshal(raw.Versions, &wrapped); err != nil {
			return fmt.Errorf("invalid versions object: %w", err)
		}
		d.versions = wrapped.Values
	case len(raw.Versions) > 0:
		if err := json.Unmarshal(raw.Versions, &d.versions); err != nil {
			return fmt.Errorf("invalid versions list: %w", err)
		}
	case raw.Version != nil:
		d.versions = []Version{*raw.Version}
	default:
		d.versions = nil
	}
	return nil
}
