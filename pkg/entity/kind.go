package entity

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/iancoleman/strcase"
)

// Action names an instance operation.
type Action string

const (
	ActionUpdate    Action = "update"
	ActionDelete    Action = "delete"
	ActionPublish   Action = "publish"
	ActionUnpublish Action = "unpublish"
	ActionArchive   Action = "archive"
	ActionUnarchive Action = "unarchive"
)

// Actions lists every known action in lifecycle order.
var Actions = []Action{
	ActionUpdate,
	ActionDelete,
	ActionPublish,
	ActionUnpublish,
	ActionArchive,
	ActionUnarchive,
}

// ErrUnresolvedPath is returned when a path placeholder has no value.
var ErrUnresolvedPath = errors.New("unresolved path parameter")

// Params fills path placeholders, e.g. {"space_id": "abc"}.
type Params map[string]string

var (
	kindNameRE    = regexp.MustCompile(`^[A-Z][A-Za-z0-9]*$`)
	kindPathRE    = regexp.MustCompile(`^(/([A-Za-z0-9_.\-]+|\{[a-z][a-z_]*\}))+$`)
	placeholderRE = regexp.MustCompile(`\{([a-z][a-z_]*)\}`)
)

// Kind describes an entity type: its name, the collection path under which
// its instances live, and the actions its instances carry.
type Kind struct {
	// Name is the sys.type of the entity, e.g. "SpaceMember".
	Name string

	// Path is the collection path template. Placeholders are written {name_id}
	// and filled from the links in the entity's sys, e.g. {space_id} from
	// sys.space.
	Path string

	Actions []Action
}

// Validate validates the kind definition.
func (k Kind) Validate() error {
	actions := make([]any, len(Actions))
	for i, a := range Actions {
		actions[i] = a
	}
	return validation.ValidateStruct(&k,
		validation.Field(&k.Name, validation.Required, validation.Match(kindNameRE)),
		validation.Field(&k.Path, validation.Required, validation.Match(kindPathRE)),
		validation.Field(&k.Actions, validation.Each(validation.In(actions...))),
	)
}

// Supports reports whether instances of k carry action a.
func (k Kind) Supports(a Action) bool {
	for _, have := range k.Actions {
		if have == a {
			return true
		}
	}
	return false
}

// Placeholders lists the parameter names in k.Path, in order.
func (k Kind) Placeholders() []string {
	var names []string
	for _, m := range placeholderRE.FindAllStringSubmatch(k.Path, -1) {
		names = append(names, m[1])
	}
	return names
}

// CollectionPath renders k.Path with params.
func (k Kind) CollectionPath(params Params) (string, error) {
	var missing []string
	path := placeholderRE.ReplaceAllStringFunc(k.Path, func(m string) string {
		name := m[1 : len(m)-1]
		v := params[name]
		if v == "" {
			missing = append(missing, name)
			return m
		}
		return url.PathEscape(v)
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("%w: %s requires %s", ErrUnresolvedPath, k.Name, strings.Join(missing, ", "))
	}
	return path, nil
}

// EntityPath renders the path of the instance with the given id.
func (k Kind) EntityPath(params Params, id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("%w: %s requires an id", ErrUnresolvedPath, k.Name)
	}
	path, err := k.CollectionPath(params)
	if err != nil {
		return "", err
	}
	return path + "/" + url.PathEscape(id), nil
}

func (k Kind) String() string {
	return k.Name
}

// CollectionSegment derives the collection path segment of a kind name:
// SpaceMember becomes space_members, EnvironmentAlias environment_aliases.
func CollectionSegment(name string) string {
	return pluralize(strcase.ToSnake(name))
}

func pluralize(s string) string {
	switch {
	case strings.HasSuffix(s, "y") && len(s) > 1 && !strings.ContainsRune("aeiou", rune(s[len(s)-2])):
		return s[:len(s)-1] + "ies"
	case strings.HasSuffix(s, "s"), strings.HasSuffix(s, "x"), strings.HasSuffix(s, "z"),
		strings.HasSuffix(s, "ch"), strings.HasSuffix(s, "sh"):
		return s + "es"
	}
	return s + "s"
}

var defaultActions = []Action{ActionUpdate, ActionDelete}

func kindWithActions(name, path string, actions []Action) Kind {
	if len(actions) == 0 {
		actions = defaultActions
	}
	return Kind{Name: name, Path: path, Actions: append([]Action(nil), actions...)}
}

// SpaceKind returns a kind whose instances live under a space. Without
// actions it gets update and delete.
func SpaceKind(name string, actions ...Action) Kind {
	return kindWithActions(name, "/spaces/{space_id}/"+CollectionSegment(name), actions)
}

// EnvironmentKind returns a kind whose instances live under a space
// environment.
func EnvironmentKind(name string, actions ...Action) Kind {
	return kindWithActions(name, "/spaces/{space_id}/environments/{environment_id}/"+CollectionSegment(name), actions)
}

// OrganizationKind returns a kind whose instances live under an organization.
func OrganizationKind(name string, actions ...Action) Kind {
	return kindWithActions(name, "/organizations/{organization_id}/"+CollectionSegment(name), actions)
}
