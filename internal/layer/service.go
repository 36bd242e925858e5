package layer

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"drawr/internal/domain"
	"drawr/internal/idgen"
	"drawr/internal/logging"
	"drawr/internal/scene"
)

// Service maps layer ids to facades and tracks the single active layer.
type Service struct {
	stage *scene.Stage
	ids   *idgen.Generator
	base  *logrus.Logger
	log   *logrus.Entry

	layers map[string]*Facade
	order  []string
	active string

	onAdded    []func(*Facade)
	onActivate []func(*Facade)
}

func NewService(stage *scene.Stage, ids *idgen.Generator, log *logrus.Logger) *Service {
	return &Service{
		stage:  stage,
		ids:    ids,
		base:   log,
		log:    logging.Component(log, "LayerService"),
		layers: make(map[string]*Facade),
	}
}

// OnLayerAdded registers fn to run for every new layer before it is activated.
func (s *Service) OnLayerAdded(fn func(*Facade)) {
	s.onAdded = append(s.onAdded, fn)
}

// OnActivate registers fn to run whenever the active layer changes.
func (s *Service) OnActivate(fn func(*Facade)) {
	s.onActivate = append(s.onActivate, fn)
}

// AddLayer creates a layer on top of the others and returns its id.
func (s *Service) AddLayer(active bool) string {
	id := s.ids.LayerID()
	f := NewFacade(s.stage, id, s.ids, s.base)
	s.layers[id] = f
	s.order = append(s.order, id)
	s.log.Debugf("added layer %s", id)
	for _, fn := range s.onAdded {
		fn(f)
	}
	if active {
		s.activate(id)
	}
	return id
}

// ActivateLayer makes id the active layer, deactivating the previous one.
func (s *Service) ActivateLayer(id string) error {
	if _, err := s.Layer(id); err != nil {
		return fmt.Errorf("activate layer: %w", err)
	}
	s.activate(id)
	return nil
}

func (s *Service) activate(id string) {
	if s.active == id {
		return
	}
	if prev, ok := s.layers[s.active]; ok {
		prev.Deactivate()
	}
	s.active = id
	s.log.Debugf("active layer is %s", id)
	f := s.layers[id]
	for _, fn := range s.onActivate {
		fn(f)
	}
}

// ActiveLayer returns the active facade.
func (s *Service) ActiveLayer() (*Facade, error) {
	f, ok := s.layers[s.active]
	if !ok {
		return nil, fmt.Errorf("%w: there is no active layer", domain.ErrInvalidState)
	}
	return f, nil
}

func (s *Service) ActiveLayerID() string { return s.active }

// Layer returns the facade with the given id.
func (s *Service) Layer(id string) (*Facade, error) {
	f, ok := s.layers[id]
	if !ok {
		return nil, fmt.Errorf("%w: there is no layer with id %q", domain.ErrInvalidState, id)
	}
	return f, nil
}

// Layers returns the layer ids in creation order.
func (s *Service) Layers() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// resolve returns the layer with the given id, or the active layer for "".
func (s *Service) resolve(id string) (*Facade, error) {
	if id == "" {
		return s.ActiveLayer()
	}
	return s.Layer(id)
}

// ── Visibility ───────────────────────────────────────────

func (s *Service) Hide() {
	for _, id := range s.order {
		s.layers[id].Hide()
	}
}

func (s *Service) Show() {
	for _, id := range s.order {
		s.layers[id].Show()
	}
}

// HideLayer hides the layer with the given id, or the active layer for "".
func (s *Service) HideLayer(id string) error {
	f, err := s.resolve(id)
	if err != nil {
		return fmt.Errorf("hide layer: %w", err)
	}
	f.Hide()
	return nil
}

// ShowLayer shows the layer with the given id, or the active layer for "".
func (s *Service) ShowLayer(id string) error {
	f, err := s.resolve(id)
	if err != nil {
		return fmt.Errorf("show layer: %w", err)
	}
	f.Show()
	return nil
}

// HideLayers hides every listed layer. It stops at the first unknown id.
func (s *Service) HideLayers(ids []string) error {
	for _, id := range ids {
		f, err := s.Layer(id)
		if err != nil {
			return fmt.Errorf("hide layers: %w", err)
		}
		f.Hide()
	}
	return nil
}

// ShowLayers shows every listed layer. It stops at the first unknown id.
func (s *Service) ShowLayers(ids []string) error {
	for _, id := range ids {
		f, err := s.Layer(id)
		if err != nil {
			return fmt.Errorf("show layers: %w", err)
		}
		f.Show()
	}
	return nil
}

// ── Removal ──────────────────────────────────────────────

// RemoveLayer destroys the layer with the given id, or the active layer for "".
// When no layer remains a fresh one is created and activated; when the active
// layer was removed the first remaining layer becomes active.
func (s *Service) RemoveLayer(id string) error {
	f, err := s.resolve(id)
	if err != nil {
		return fmt.Errorf("remove layer: %w", err)
	}
	id = f.ID()
	destroyErr := f.Destroy()

	delete(s.layers, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.log.Debugf("removed layer %s", id)

	switch {
	case len(s.order) == 0:
		s.active = ""
		s.AddLayer(true)
	case s.active == id:
		s.active = ""
		s.activate(s.order[0])
	}
	if destroyErr != nil {
		return fmt.Errorf("remove layer %s: %w", id, destroyErr)
	}
	return nil
}

// RemoveLayers removes every listed layer in order.
func (s *Service) RemoveLayers(ids []string) error {
	for _, id := range ids {
		if err := s.RemoveLayer(id); err != nil {
			return err
		}
	}
	return nil
}
