package scene

import (
	"errors"
	"fmt"
	"sync"

	"github.com/philipparndt/gobim/pkg/geometry"
)

var (
	// ErrDuplicateID is returned when a model reuses an identifier that is
	// already registered.
	ErrDuplicateID = errors.New("duplicate identifier")
	// ErrInvalidModel is returned for models without id or root node.
	ErrInvalidModel = errors.New("invalid model")
)

type model struct {
	info    ModelInfo
	objects []string
	nodes   []string
}

// Scene is the registry of every object of every loaded model. It is safe for
// concurrent readers; state flags are written only through Update and ApplyAll.
type Scene struct {
	mu         sync.RWMutex
	nodes      map[string]*Node
	objects    map[string]*Object
	order      []string
	models     map[string]*model
	modelOrder []string
}

// New creates an empty scene
func New() *Scene {
	return &Scene{
		nodes:   make(map[string]*Node),
		objects: make(map[string]*Object),
		models:  make(map[string]*model),
	}
}

// Register adds a model and all of its nodes. Objects start in DefaultState.
// It returns the identifiers of the newly registered objects in hierarchy order.
func (s *Scene) Register(spec *ModelSpec) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	added, _, err := s.replaceLocked(nil, []*ModelSpec{spec})
	return added, err
}

// Replace registers spec in place of an already loaded model with the same
// id. The old registration stays untouched when spec is rejected.
func (s *Scene) Replace(spec *ModelSpec) (added, removed []string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var drop []string
	if spec != nil {
		if _, ok := s.models[spec.ID]; ok {
			drop = []string{spec.ID}
		}
	}
	return s.replaceLocked(drop, []*ModelSpec{spec})
}

// ReplaceAll swaps the whole set of loaded models for specs in one step, so
// nodes may move between models. Nothing changes when specs are rejected.
func (s *Scene) ReplaceAll(specs []*ModelSpec) (added, removed []string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.replaceLocked(append([]string(nil), s.modelOrder...), specs)
}

// replaceLocked validates specs against every model that is not dropped and
// only then unloads the dropped models and registers the new ones.
func (s *Scene) replaceLocked(drop []string, specs []*ModelSpec) (added, removed []string, err error) {
	dropped := make(map[string]bool, len(drop))
	for _, id := range drop {
		dropped[id] = true
	}

	seen := make(map[string]bool)
	models := make(map[string]bool)
	for _, spec := range specs {
		if spec == nil || spec.ID == "" || spec.Root == nil {
			return nil, nil, ErrInvalidModel
		}
		if models[spec.ID] || (s.models[spec.ID] != nil && !dropped[spec.ID]) {
			return nil, nil, fmt.Errorf("model %q: %w", spec.ID, ErrDuplicateID)
		}
		models[spec.ID] = true

		var check func(n *NodeSpec) error
		check = func(n *NodeSpec) error {
			if n.ID == "" {
				return fmt.Errorf("model %q: node without id: %w", spec.ID, ErrInvalidModel)
			}
			if seen[n.ID] {
				return fmt.Errorf("node %q: %w", n.ID, ErrDuplicateID)
			}
			if existing, ok := s.nodes[n.ID]; ok && !dropped[existing.ModelID] {
				return fmt.Errorf("node %q: %w", n.ID, ErrDuplicateID)
			}
			seen[n.ID] = true
			for _, c := range n.Children {
				if err := check(c); err != nil {
					return err
				}
			}
			return nil
		}
		if err := check(spec.Root); err != nil {
			return nil, nil, err
		}
	}

	for _, id := range drop {
		if objects, ok := s.unloadLocked(id); ok {
			removed = append(removed, objects...)
		}
	}
	for _, spec := range specs {
		added = append(added, s.registerLocked(spec)...)
	}
	return added, removed, nil
}

func (s *Scene) registerLocked(spec *ModelSpec) []string {
	m := &model{info: ModelInfo{ID: spec.ID, Name: spec.Name, Source: spec.Source, Root: spec.Root.ID}}

	var add func(n *NodeSpec, parent string)
	add = func(n *NodeSpec, parent string) {
		node := &Node{
			ID:       n.ID,
			Name:     n.Name,
			Kind:     n.Kind,
			ModelID:  spec.ID,
			Parent:   parent,
			IsObject: n.Geometry != nil,
		}
		s.nodes[n.ID] = node
		m.nodes = append(m.nodes, n.ID)
		if parent != "" {
			p := s.nodes[parent]
			p.Children = append(p.Children, n.ID)
		}

		if n.Geometry != nil {
			s.objects[n.ID] = &Object{
				ID:          n.ID,
				ModelID:     spec.ID,
				Parent:      parent,
				Bounds:      n.Geometry.Bounds,
				Triangles:   n.Geometry.Triangles,
				SurfaceArea: n.Geometry.SurfaceArea,
				State:       DefaultState(),
			}
			s.order = append(s.order, n.ID)
			m.objects = append(m.objects, n.ID)
		}

		for _, c := range n.Children {
			add(c, n.ID)
		}
	}
	add(spec.Root, "")

	m.info.Objects = len(m.objects)
	s.models[spec.ID] = m
	s.modelOrder = append(s.modelOrder, spec.ID)

	return append([]string(nil), m.objects...)
}

// Unload removes a model with all its nodes and objects. It returns the
// identifiers of the removed objects.
func (s *Scene) Unload(modelID string) ([]string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unloadLocked(modelID)
}

func (s *Scene) unloadLocked(modelID string) ([]string, bool) {
	m, ok := s.models[modelID]
	if !ok {
		return nil, false
	}

	for _, id := range m.nodes {
		delete(s.nodes, id)
	}
	removed := make(map[string]bool, len(m.objects))
	for _, id := range m.objects {
		delete(s.objects, id)
		removed[id] = true
	}

	order := s.order[:0]
	for _, id := range s.order {
		if !removed[id] {
			order = append(order, id)
		}
	}
	s.order = order

	delete(s.models, modelID)
	for i, id := range s.modelOrder {
		if id == modelID {
			s.modelOrder = append(s.modelOrder[:i], s.modelOrder[i+1:]...)
			break
		}
	}

	return m.objects, true
}

// Models lists the registered models in load order
func (s *Scene) Models() []ModelInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]ModelInfo, 0, len(s.modelOrder))
	for _, id := range s.modelOrder {
		infos = append(infos, s.models[id].info)
	}
	return infos
}

// Len returns the number of registered objects
func (s *Scene) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// RegisteredObjectIDs returns all object identifiers in registration order
func (s *Scene) RegisteredObjectIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}

// Has reports whether id is a registered object
func (s *Scene) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[id]
	return ok
}

// Object returns a copy of a registered object
func (s *Scene) Object(id string) (Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.objects[id]
	if !ok {
		return Object{}, false
	}
	return *o, true
}

// Node returns a copy of a hierarchy node
func (s *Scene) Node(id string) (Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[id]
	if !ok {
		return Node{}, false
	}
	cp := *n
	cp.Children = append([]string(nil), n.Children...)
	return cp, true
}

// Roots returns the root node of every model in load order
func (s *Scene) Roots() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	roots := make([]string, 0, len(s.modelOrder))
	for _, id := range s.modelOrder {
		roots = append(roots, s.models[id].info.Root)
	}
	return roots
}

// Children returns the child node identifiers of a hierarchy node
func (s *Scene) Children(id string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n, ok := s.nodes[id]; ok {
		return append([]string(nil), n.Children...)
	}
	return nil
}

// Subtree returns the object identifiers below nodeID in depth-first order,
// including nodeID itself when it is an object. Unknown nodes yield nil.
func (s *Scene) Subtree(nodeID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	var walk func(id string)
	walk = func(id string) {
		n, ok := s.nodes[id]
		if !ok {
			return
		}
		if n.IsObject {
			ids = append(ids, id)
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(nodeID)
	return ids
}

// BoundsOf returns the union of the bounds of the given objects. Unknown ids
// are skipped.
func (s *Scene) BoundsOf(ids ...string) geometry.BoundingBox {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bbox := geometry.NewBoundingBox()
	for _, id := range ids {
		if o, ok := s.objects[id]; ok {
			bbox = bbox.Union(o.Bounds)
		}
	}
	return bbox
}

// SceneBounds returns the bounds of every registered object
func (s *Scene) SceneBounds() geometry.BoundingBox {
	return s.BoundsOf(s.RegisteredObjectIDs()...)
}

// State returns the visual flags of an object
func (s *Scene) State(id string) (State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.objects[id]
	if !ok {
		return State{}, false
	}
	return o.State, true
}

// States returns the flags of every object, read under a single lock
func (s *Scene) States() map[string]State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	states := make(map[string]State, len(s.objects))
	for id, o := range s.objects {
		states[id] = o.State
	}
	return states
}

// Update rewrites the flags of the given objects under a single write lock.
// Unknown ids are skipped.
func (s *Scene) Update(ids []string, fn func(id string, state State) State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if o, ok := s.objects[id]; ok {
			o.State = fn(id, o.State)
		}
	}
}

// ApplyAll rewrites the flags of every object under a single write lock, so
// readers never observe a half-applied bulk transition.
func (s *Scene) ApplyAll(fn func(id string, state State) State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.order {
		o := s.objects[id]
		o.State = fn(id, o.State)
	}
}
