package flowgraph

import (
	"context"
	"errors"
	"fmt"
)

type nodeID string

// trail is the state used across executor tests. Trail accumulates across
// merges so tests can observe execution order.
type trail struct {
	Trail  []string `json:"trail,omitempty"`
	Value  *int     `json:"value,omitempty"`
	Note   string   `json:"note,omitempty"`
	Failed bool     `json:"failed,omitempty"`
}

func (s trail) Merge(u trail) trail {
	s.Trail = append(append([]string(nil), s.Trail...), u.Trail...)
	if u.Value != nil {
		v := *u.Value
		s.Value = &v
	}
	if u.Note != "" {
		s.Note = u.Note
	}
	if u.Failed {
		s.Failed = true
	}
	return s
}

func intPtr(v int) *int { return &v }

// visit returns a node that appends its name to the trail.
func visit(name string) NodeFunc[trail] {
	return func(Context, trail) (trail, error) {
		return trail{Trail: []string{name}}, nil
	}
}

func setValue(v int) NodeFunc[trail] {
	return func(Context, trail) (trail, error) {
		return trail{Value: intPtr(v)}, nil
	}
}

func increment(_ Context, s trail) (trail, error) {
	v := 0
	if s.Value != nil {
		v = *s.Value
	}
	return trail{Value: intPtr(v + 1)}, nil
}

func failing(err error, partial trail) NodeFunc[trail] {
	return func(Context, trail) (trail, error) {
		return partial, err
	}
}

func panicking(value any) NodeFunc[trail] {
	return func(Context, trail) (trail, error) {
		panic(value)
	}
}

// degrade is a fallback that marks the state failed and records the error.
func degrade(_ Context, node nodeID, _ trail, err error) trail {
	return trail{Failed: true, Note: fmt.Sprintf("%s: %v", node, err)}
}

var errBoom = errors.New("boom")

func testCtx() Context {
	return NewContext(context.Background())
}

func routeTo(target nodeID) RouterFunc[nodeID, trail] {
	return func(Context, trail) nodeID { return target }
}
