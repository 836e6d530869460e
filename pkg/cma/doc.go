// Package cma is the entry point of the content management client.
//
// A Client fetches and creates entities and returns them wrapped by package
// entity, so the result of Get can be updated, deleted or published directly:
//
//	cfg := transport.DefaultConfig()
//	cfg.AccessToken = token
//	client, err := cma.NewFromConfig(cfg, cma.WithScope(cma.Scope{SpaceID: "abc"}))
//
//	member, err := client.GetSpaceMember(ctx, "member-id")
//	member.Set("admin", true)
//	member, err = member.Update(ctx)
//	if apierror.IsVersionMismatch(err) {
//		// refetch and retry, or give up
//	}
package cma
