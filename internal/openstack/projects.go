package openstack

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/systmms/barbican-kms/internal/metrics"
)

// MaxProjectDepth bounds the ascent from a project to its domain root.
// Keystone's own limit (max_project_tree_depth) defaults to 5.
const MaxProjectDepth = 64

var (
	// ErrProjectCycle is returned when a project appears twice on one ascent.
	ErrProjectCycle = errors.New("project hierarchy contains a cycle")

	// ErrProjectTooDeep is returned when the ascent exceeds MaxProjectDepth.
	ErrProjectTooDeep = errors.New("project hierarchy too deep")
)

// ResolveProjectPath returns the slash-delimited name path from the domain
// root down to projectID, e.g. "ccadmin/cloud_admin/kmip".
//
// An empty projectID yields "" without any lookup. With useCache set, cached
// entries are returned without a lookup; otherwise every level is fetched
// again. Either way the result is stored for each resolved level. Bypassing
// the cache never removes entries.
func (h *Helper) ResolveProjectPath(ctx context.Context, projectID string, useCache bool) (string, error) {
	if projectID == "" {
		return "", nil
	}
	identity, err := h.identityAPI()
	if err != nil {
		return "", err
	}
	return h.resolveProjectPath(ctx, identity, projectID, useCache, nil)
}

func (h *Helper) resolveProjectPath(ctx context.Context, identity IdentityAPI, id string, useCache bool, ascent []string) (string, error) {
	if useCache {
		if path, ok := h.cachedProjectPath(id); ok {
			metrics.RecordProjectLookup(true)
			return path, nil
		}
	}

	for _, seen := range ascent {
		if seen == id {
			return "", fmt.Errorf("%w: %s", ErrProjectCycle, strings.Join(append(ascent, id), " -> "))
		}
	}
	if len(ascent) >= MaxProjectDepth {
		return "", fmt.Errorf("%w: more than %d levels above %s", ErrProjectTooDeep, MaxProjectDepth, ascent[0])
	}

	metrics.RecordProjectLookup(false)
	project, err := identity.GetProject(ctx, id)
	if err != nil {
		return "", err
	}

	path := project.Name
	if !project.IsDomain {
		parentID := project.ParentID
		if parentID == "" {
			parentID = project.DomainID
		}
		// A project with neither parent nor domain is its own root.
		if parentID != "" {
			parentPath, err := h.resolveProjectPath(ctx, identity, parentID, useCache, append(ascent, id))
			if err != nil {
				return "", err
			}
			path = parentPath + "/" + project.Name
		}
	}

	h.cacheMu.Lock()
	h.projectPaths[id] = path
	h.cacheMu.Unlock()

	return path, nil
}

func (h *Helper) cachedProjectPath(id string) (string, bool) {
	h.cacheMu.RLock()
	defer h.cacheMu.RUnlock()
	path, ok := h.projectPaths[id]
	return path, ok
}

// InvalidateProjectPath drops the cached path of one project. Paths of its
// descendants stay cached.
func (h *Helper) InvalidateProjectPath(projectID string) {
	h.cacheMu.Lock()
	defer h.cacheMu.Unlock()
	delete(h.projectPaths, projectID)
}

// ResetProjectPaths empties the project path cache.
func (h *Helper) ResetProjectPaths() {
	h.cacheMu.Lock()
	defer h.cacheMu.Unlock()
	h.projectPaths = make(map[string]string)
}

// CachedProjectPaths returns a copy of the cache.
func (h *Helper) CachedProjectPaths() map[string]string {
	h.cacheMu.RLock()
	defer h.cacheMu.RUnlock()
	out := make(map[string]string, len(h.projectPaths))
	for id, path := range h.projectPaths {
		out[id] = path
	}
	return out
}
