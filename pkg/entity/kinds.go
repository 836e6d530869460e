package entity

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/iancoleman/strcase"
)

var (
	lifecycleActions = []Action{ActionUpdate, ActionDelete, ActionPublish, ActionUnpublish, ActionArchive, ActionUnarchive}
	publishActions   = []Action{ActionUpdate, ActionDelete, ActionPublish, ActionUnpublish}
)

// Space-scoped kinds.
var (
	SpaceMember         = SpaceKind("SpaceMember")
	SpaceMembership     = SpaceKind("SpaceMembership")
	TeamSpaceMembership = SpaceKind("TeamSpaceMembership")
	Role                = SpaceKind("Role")
	ApiKey              = SpaceKind("ApiKey")
	PreviewApiKey       = SpaceKind("PreviewApiKey")
	WebhookDefinition   = SpaceKind("WebhookDefinition")
	Environment         = SpaceKind("Environment")
	EnvironmentAlias    = SpaceKind("EnvironmentAlias")
)

// Environment-scoped kinds.
var (
	Entry       = EnvironmentKind("Entry", lifecycleActions...)
	Asset       = EnvironmentKind("Asset", lifecycleActions...)
	ContentType = EnvironmentKind("ContentType", publishActions...)
	Locale      = EnvironmentKind("Locale")
	Extension   = EnvironmentKind("Extension")
	Tag         = EnvironmentKind("Tag")
)

// Organization-scoped kinds.
var (
	Team                   = OrganizationKind("Team")
	OrganizationMembership = OrganizationKind("OrganizationMembership")
	AppDefinition          = OrganizationKind("AppDefinition")
	TeamMembership         = Kind{
		Name:    "TeamMembership",
		Path:    "/organizations/{organization_id}/teams/{team_id}/team_memberships",
		Actions: defaultActions,
	}
)

// BuiltinKinds returns the kinds known to this package.
func BuiltinKinds() []Kind {
	return []Kind{
		SpaceMember, SpaceMembership, TeamSpaceMembership, Role, ApiKey,
		PreviewApiKey, WebhookDefinition, Environment, EnvironmentAlias,
		Entry, Asset, ContentType, Locale, Extension, Tag,
		Team, OrganizationMembership, AppDefinition, TeamMembership,
	}
}

// Registry resolves kinds by name. Lookups accept the kind name in any case
// style ("SpaceMember", "space-member", "spaceMember") or its collection
// segment ("space_members").
type Registry struct {
	mu    sync.RWMutex
	kinds map[string]Kind
	index map[string]string
}

// NewRegistry returns a registry holding kinds. Every kind is validated and
// all failures are reported together.
func NewRegistry(kinds ...Kind) (*Registry, error) {
	r := &Registry{
		kinds: make(map[string]Kind),
		index: make(map[string]string),
	}
	var result *multierror.Error
	for _, k := range kinds {
		if err := r.Register(k); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return r, nil
}

// DefaultRegistry returns a registry of the built-in kinds.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(BuiltinKinds()...)
	if err != nil {
		panic(fmt.Sprintf("invalid built-in kind: %v", err))
	}
	return r
}

// Register adds or replaces a kind.
func (r *Registry) Register(k Kind) error {
	if err := k.Validate(); err != nil {
		return fmt.Errorf("invalid kind %q: %w", k.Name, err)
	}
	k = k.clone()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds[k.Name] = k
	r.index[normalizeKindName(k.Name)] = k.Name
	if segs := strings.Split(k.Path, "/"); len(segs) > 0 {
		r.index[normalizeKindName(segs[len(segs)-1])] = k.Name
	}
	return nil
}

// Lookup returns the kind registered under name.
func (r *Registry) Lookup(name string) (Kind, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if k, ok := r.kinds[name]; ok {
		return k.clone(), true
	}
	canonical, ok := r.index[normalizeKindName(name)]
	if !ok {
		return Kind{}, false
	}
	return r.kinds[canonical].clone(), true
}

// Kinds returns the registered kinds sorted by name.
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]Kind, 0, len(r.kinds))
	for _, k := range r.kinds {
		kinds = append(kinds, k.clone())
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i].Name < kinds[j].Name })
	return kinds
}

// clone detaches the Actions slice from the registry's copy.
func (k Kind) clone() Kind {
	k.Actions = append([]Action(nil), k.Actions...)
	return k
}

func normalizeKindName(name string) string {
	return strings.ToLower(strcase.ToSnake(name))
}

// SpaceMemberFields is the payload of a SpaceMember.
type SpaceMemberFields struct {
	Admin              bool   `json:"admin"`
	Roles              []Link `json:"roles"`
	RelatedMemberships []Link `json:"relatedMemberships,omitempty"`
}
