package fakes

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/systmms/barbican-kms/internal/openstack"
	"github.com/systmms/barbican-kms/pkg/provider"
)

// FakeSecretRefPrefix prefixes every reference returned by FakeKeyManager.
const FakeSecretRefPrefix = "https://barbican.test/v1/secrets/"

// FakeIdentity is a test double for openstack.IdentityAPI.
type FakeIdentity struct {
	mu sync.Mutex

	// Projects is a map of project ID -> project
	Projects map[string]openstack.Project

	// ProjectErr is returned by GetProject if set
	ProjectErr error

	// RegionErr is returned by GetRegion if set
	RegionErr error

	projectCalls map[string]int
	regionCalls  int
}

// NewFakeIdentity creates an identity fake without projects.
func NewFakeIdentity() *FakeIdentity {
	return &FakeIdentity{
		Projects:     make(map[string]openstack.Project),
		projectCalls: make(map[string]int),
	}
}

// AddProject registers p under its ID.
func (f *FakeIdentity) AddProject(p openstack.Project) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Projects == nil {
		f.Projects = make(map[string]openstack.Project)
	}
	f.Projects[p.ID] = p
}

// GetProject returns the registered project or a NotFoundError.
func (f *FakeIdentity) GetProject(_ context.Context, id string) (*openstack.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.projectCalls == nil {
		f.projectCalls = make(map[string]int)
	}
	f.projectCalls[id]++

	if f.ProjectErr != nil {
		return nil, f.ProjectErr
	}
	p, ok := f.Projects[id]
	if !ok {
		return nil, provider.NotFoundError{Provider: openstack.ServiceIdentity, Key: id}
	}
	return &p, nil
}

// GetRegion returns RegionErr.
func (f *FakeIdentity) GetRegion(_ context.Context, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.regionCalls++
	return f.RegionErr
}

// ProjectCalls returns how often GetProject was called for id.
func (f *FakeIdentity) ProjectCalls(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.projectCalls[id]
}

// TotalProjectCalls returns the number of GetProject calls.
func (f *FakeIdentity) TotalProjectCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.projectCalls {
		total += n
	}
	return total
}

// RegionCalls returns the number of GetRegion calls.
func (f *FakeIdentity) RegionCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.regionCalls
}

// FakeKeyManager is a test double for openstack.KeyManagerAPI. Payloads are
// stored exactly as sent, so retrieval returns the encoded text.
type FakeKeyManager struct {
	mu sync.Mutex

	// Secrets is a map of secret ID -> record
	Secrets map[string]openstack.SecretRecord

	// Payloads is a map of secret ID -> payload as created
	Payloads map[string]string

	// CreateErr is returned by CreateSecret if set
	CreateErr error

	// GetErr is returned by GetSecret and GetSecretPayload if set
	GetErr error

	// LastCreate holds the attributes of the last CreateSecret call
	LastCreate openstack.SecretAttributes

	// LastContentType holds the content type of the last payload request
	LastContentType string

	nextID int
}

// NewFakeKeyManager creates an empty key-manager fake.
func NewFakeKeyManager() *FakeKeyManager {
	return &FakeKeyManager{
		Secrets:  make(map[string]openstack.SecretRecord),
		Payloads: make(map[string]string),
	}
}

// AddSecret stores a payload under id and returns its reference.
func (f *FakeKeyManager) AddSecret(id, name, payload string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.store(id, openstack.SecretAttributes{
		Name:               name,
		SecretType:         "symmetric",
		PayloadContentType: "text/plain",
		Payload:            payload,
	})
}

func (f *FakeKeyManager) store(id string, attrs openstack.SecretAttributes) string {
	if f.Secrets == nil {
		f.Secrets = make(map[string]openstack.SecretRecord)
	}
	if f.Payloads == nil {
		f.Payloads = make(map[string]string)
	}
	ref := FakeSecretRefPrefix + id
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f.Secrets[id] = openstack.SecretRecord{
		Ref:          ref,
		Name:         attrs.Name,
		SecretType:   attrs.SecretType,
		Algorithm:    attrs.Algorithm,
		BitLength:    attrs.BitLength,
		Status:       "ACTIVE",
		ContentTypes: map[string]string{"default": attrs.PayloadContentType},
		Created:      now,
		Updated:      now,
	}
	f.Payloads[id] = attrs.Payload
	return ref
}

// CreateSecret stores attrs under a generated ID.
func (f *FakeKeyManager) CreateSecret(_ context.Context, attrs openstack.SecretAttributes) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.LastCreate = attrs
	if f.CreateErr != nil {
		return "", f.CreateErr
	}
	f.nextID++
	return f.store(fmt.Sprintf("secret-%04d", f.nextID), attrs), nil
}

// GetSecret returns the record stored under id.
func (f *FakeKeyManager) GetSecret(_ context.Context, id string) (*openstack.SecretRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.GetErr != nil {
		return nil, f.GetErr
	}
	rec, ok := f.Secrets[id]
	if !ok {
		return nil, provider.NotFoundError{Provider: openstack.ServiceKeyManager, Key: id}
	}
	return &rec, nil
}

// GetSecretPayload returns the payload stored under id.
func (f *FakeKeyManager) GetSecretPayload(_ context.Context, id, contentType string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.LastContentType = contentType
	if f.GetErr != nil {
		return nil, f.GetErr
	}
	if strings.Contains(id, "/") {
		return nil, fmt.Errorf("fake key manager: %q is a reference, not an id", id)
	}
	payload, ok := f.Payloads[id]
	if !ok {
		return nil, provider.NotFoundError{Provider: openstack.ServiceKeyManager, Key: id}
	}
	return []byte(payload), nil
}

// FakeCompute is a test double for openstack.ComputeAPI.
type FakeCompute struct {
	// Servers is a map of server ID -> server
	Servers map[string]openstack.Server

	// Err is returned by GetServer if set
	Err error
}

// GetServer returns the registered server or a NotFoundError.
func (f *FakeCompute) GetServer(_ context.Context, id string) (*openstack.Server, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	s, ok := f.Servers[id]
	if !ok {
		return nil, provider.NotFoundError{Provider: openstack.ServiceCompute, Key: id}
	}
	return &s, nil
}

// FakeDiscoverer is a test double for openstack.Discoverer.
type FakeDiscoverer struct {
	// Documents is a map of URL -> published versions
	Documents map[string][]openstack.Version

	// Err is returned by Versions if set
	Err error
}

// Versions returns a copy of the versions registered for url.
func (f *FakeDiscoverer) Versions(_ context.Context, url string) ([]openstack.Version, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	versions, ok := f.Documents[url]
	if !ok {
		return nil, provider.NotFoundError{Provider: "discovery", Key: url}
	}
	return append([]openstack.Version(nil), versions...), nil
}
