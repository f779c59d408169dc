package repair

import (
	"errors"
	"fmt"
)

// Registry is the immutable set of actions and known attributes. It is safe
// for concurrent use.
type Registry struct {
	actions     []Action
	attributes  []Attribute
	byID        map[ID]int
	byName      map[string]int
	byAttribute map[string]int
}

// Build constructs the registry of built-in actions, all driven by t.
func Build(t Toggler) (*Registry, error) {
	if t == nil {
		return nil, errors.New("repair: nil toggler")
	}
	return newRegistry(builtinActions(t), attributeTable())
}

// newRegistry validates actions and attributes and indexes them.
func newRegistry(actions []Action, attributes []Attribute) (*Registry, error) {
	r := &Registry{
		actions:     append([]Action(nil), actions...),
		attributes:  append([]Attribute(nil), attributes...),
		byID:        make(map[ID]int, len(actions)),
		byName:      make(map[string]int, len(actions)),
		byAttribute: make(map[string]int, len(attributes)),
	}

	for i, a := range r.actions {
		if a.ID == NoAction {
			return nil, fmt.Errorf("action %q: reserved id", a.Name)
		}
		if a.Name == "" {
			return nil, fmt.Errorf("action %d: empty name", a.ID)
		}
		if a.Handler == nil {
			return nil, fmt.Errorf("action %q: nil handler", a.Name)
		}
		if _, dup := r.byID[a.ID]; dup {
			return nil, fmt.Errorf("action %q: duplicate id %d", a.Name, a.ID)
		}
		if _, dup := r.byName[a.Name]; dup {
			return nil, fmt.Errorf("action %q: duplicate name", a.Name)
		}
		r.byID[a.ID] = i
		r.byName[a.Name] = i
	}

	for i, attr := range r.attributes {
		if attr.ID == "" {
			return nil, fmt.Errorf("attribute %d: empty id", i)
		}
		if _, dup := r.byAttribute[attr.ID]; dup {
			return nil, fmt.Errorf("attribute %q: duplicate id", attr.ID)
		}
		if attr.Supported() {
			idx, ok := r.byID[attr.Action]
			if !ok {
				return nil, fmt.Errorf("attribute %q: unknown action %s", attr.ID, attr.Action)
			}
			if got := r.actions[idx].AttributeID; got != attr.ID {
				return nil, fmt.Errorf("attribute %q: action %s repairs %q", attr.ID, attr.Action, got)
			}
		}
		r.byAttribute[attr.ID] = i
	}

	for _, a := range r.actions {
		if a.AttributeID == "" {
			continue
		}
		i, ok := r.byAttribute[a.AttributeID]
		if !ok || r.attributes[i].Action != a.ID {
			return nil, fmt.Errorf("action %q: attribute %q is not bound to it", a.Name, a.AttributeID)
		}
	}

	return r, nil
}

// Names returns action names in declaration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.actions))
	for i, a := range r.actions {
		names[i] = a.Name
	}
	return names
}

// Actions returns a copy of the actions in declaration order.
func (r *Registry) Actions() []Action {
	return append([]Action(nil), r.actions...)
}

// Attributes returns a copy of the known attributes in declaration order.
func (r *Registry) Attributes() []Attribute {
	return append([]Attribute(nil), r.attributes...)
}

// ByName returns the action with the exact, case-sensitive name.
func (r *Registry) ByName(name string) (Action, error) {
	i, ok := r.byName[name]
	if !ok {
		return Action{}, notFound(name)
	}
	return r.actions[i], nil
}

// ByAttribute returns the action that repairs attributeID. Known attributes
// without a remediation fail with ErrUnsupported and still return the
// Attribute; unknown identifiers fail with ErrNotFound.
func (r *Registry) ByAttribute(attributeID string) (Action, Attribute, error) {
	i, ok := r.byAttribute[attributeID]
	if !ok {
		return Action{}, Attribute{}, notFound(attributeID)
	}
	attr := r.attributes[i]
	if !attr.Supported() {
		return Action{}, attr, unsupported(attributeID)
	}
	return r.actions[r.byID[attr.Action]], attr, nil
}
