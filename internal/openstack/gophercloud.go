package openstack

import (
	"context"

	"github.com/gophercloud/gophercloud/v2"
	"github.com/gophercloud/gophercloud/v2/openstack/compute/v2/servers"
	"github.com/gophercloud/gophercloud/v2/openstack/identity/v3/projects"
	"github.com/gophercloud/gophercloud/v2/openstack/identity/v3/regions"
	"github.com/gophercloud/gophercloud/v2/openstack/keymanager/v1/secrets"
)

// identityClient implements IdentityAPI on a Keystone v3 service client.
type identityClient struct {
	client *gophercloud.ServiceClient
}

// NewIdentityClient wraps a Keystone v3 service client.
func NewIdentityClient(client *gophercloud.ServiceClient) IdentityAPI {
	return &identityClient{client: client}
}

func (c *identityClient) GetProject(ctx context.Context, id string) (*Project, error) {
	p, err := projects.Get(ctx, c.client, id).Extract()
	if err != nil {
		return nil, classifyError(ServiceIdentity, "get project", id, err)
	}
	return &Project{
		ID:       p.ID,
		Name:     p.Name,
		DomainID: p.DomainID,
		ParentID: p.ParentID,
		IsDomain: p.IsDomain,
		Enabled:  p.Enabled,
	}, nil
}

func (c *identityClient) GetRegion(ctx context.Context, id string) error {
	_, err := regions.Get(ctx, c.client, id).Extract()
	return classifyError(ServiceIdentity, "get region", id, err)
}

// keyManagerClient implements KeyManagerAPI on a Barbican v1 service client.
type keyManagerClient struct {
	client *gophercloud.ServiceClient
}

// NewKeyManagerClient wraps a Barbican v1 service client.
func NewKeyManagerClient(client *gophercloud.ServiceClient) KeyManagerAPI {
	return &keyManagerClient{client: client}
}

func (c *keyManagerClient) CreateSecret(ctx context.Context, attrs SecretAttributes) (string, error) {
	opts := secrets.CreateOpts{
		Name:               attrs.Name,
		SecretType:         secrets.SecretType(attrs.SecretType),
		PayloadContentType: attrs.PayloadContentType,
		Payload:            attrs.Payload,
		Algorithm:          attrs.Algorithm,
		BitLength:          attrs.BitLength,
	}

	s, err := secrets.Create(ctx, c.client, opts).Extract()
	if err != nil {
		return "", classifyError(ServiceKeyManager, "create secret", attrs.Name, err)
	}
	return s.SecretRef, nil
}

func (c *keyManagerClient) GetSecret(ctx context.Context, id string) (*SecretRecord, error) {
	s, err := secrets.Get(ctx, c.client, id).Extract()
	if err != nil {
		return nil, classifyError(ServiceKeyManager, "get secret", id, err)
	}
	return &SecretRecord{
		Ref:          s.SecretRef,
		Name:         s.Name,
		SecretType:   s.SecretType,
		Algorithm:    s.Algorithm,
		BitLength:    s.BitLength,
		Mode:         s.Mode,
		Status:       s.Status,
		ContentTypes: s.ContentTypes,
		Created:      s.Created,
		Updated:      s.Updated,
	}, nil
}

func (c *keyManagerClient) GetSecretPayload(ctx context.Context, id, contentType string) ([]byte, error) {
	payload, err := secrets.GetPayload(ctx, c.client, id, secrets.GetPayloadOpts{
		PayloadContentType: contentType,
	}).Extract()
	if err != nil {
		return nil, classifyError(ServiceKeyManager, "get payload", id, err)
	}
	return payload, nil
}

// computeClient implements ComputeAPI on a Nova v2 service client.
type computeClient struct {
	client *gophercloud.ServiceClient
}

// NewComputeClient wraps a Nova v2 service client.
func NewComputeClient(client *gophercloud.ServiceClient) ComputeAPI {
	return &computeClient{client: client}
}

func (c *computeClient) GetServer(ctx context.Context, id string) (*Server, error) {
	// ExtractInto unwraps the "server" envelope into our own type, which
	// carries the extended host attribute the SDK type leaves out.
	var server Server
	if err := servers.Get(ctx, c.client, id).ExtractInto(&server); err != nil {
		return nil, classifyError(ServiceCompute, "get server", id, err)
	}
	return &server, nil
}
