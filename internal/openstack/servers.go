package openstack

import (
	"context"
	"fmt"
)

// Server is a compute instance as seen by this tool.
//
// ComputeHost is read from the OS-EXT-SRV-ATTR:host body field, which names
// the hypervisor (building block) the server runs on. It is empty when the
// caller lacks the admin policy that exposes the attribute.
type Server struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Status           string `json:"status"`
	TenantID         string `json:"tenant_id"`
	AvailabilityZone string `json:"OS-EXT-AZ:availability_zone"`
	ComputeHost      string `json:"OS-EXT-SRV-ATTR:host"`
}

// GetServer fetches a server including its compute host.
func (h *Helper) GetServer(ctx context.Context, id string) (*Server, error) {
	compute, err := h.computeAPI()
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, fmt.Errorf("server id is required")
	}
	return compute.GetServer(ctx, id)
}
