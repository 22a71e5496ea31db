// Package fakes provides test doubles for the OpenStack service interfaces.
//
// The fakes are hand-written, keep their state in plain maps and count the
// calls they receive so tests can assert on caching behavior.
//
// Usage:
//
//	identity := fakes.NewFakeIdentity()
//	identity.AddProject(openstack.Project{ID: "d1", Name: "ccadmin", IsDomain: true})
//	helper := openstack.NewConnectedHelper(creds, openstack.Clients{Identity: identity})
//	path, _ := helper.ResolveProjectPath(ctx, "d1", true)
package fakes
