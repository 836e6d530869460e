// Package entity wraps raw content management API data into entities that
// carry their own instance actions.
//
// # Wrapping
//
// A Wrapper is bound to one Kind and one transport.Doer. Wrap deep-copies the
// raw data, so the entity never aliases the caller's map, and splits it into
// a read-only Sys block and mutable Fields. ToPlainObject reverses the
// process: wrapping its output again yields an equivalent entity.
//
//	w, err := entity.NewWrapper(client, entity.SpaceMember)
//	member, err := w.Wrap(raw)
//	member.Set("admin", true)
//	saved, err := member.Update(ctx)
//
// # Actions
//
// The actions an entity carries come from its Kind: update, delete, publish,
// unpublish, archive and unarchive. Every write sends sys.version in the
// version header. A rejected version yields *apierror.VersionMismatchError;
// the entity it was called on is left as it was, and the caller decides
// whether to refetch. RetryOnVersionMismatch packages that loop for callers
// that want it.
//
// # Paths
//
// Kind paths are templates such as
// /spaces/{space_id}/environments/{environment_id}/entries. Placeholders are
// filled from the links in the entity's sys, then from WithParams.
package entity
