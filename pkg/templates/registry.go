package templates

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"jordanella.com/chat-bridge-go/internal/cv"
)

// Template is an immutable reference image descriptor. The offset
// vector points from the matched anchor's center to the spot that
// should actually be clicked (a close button sitting next to a
// header, for example).
type Template struct {
	Name      string
	Path      string
	Threshold float64
	Offset    *image.Point
	Preload   bool
}

// Well-known template names the recorder looks up. A name absent from
// the registry disables the behavior that depends on it.
const (
	ChatInput        = "chat_input"
	PanelHeader      = "panel_header"
	ResponseComplete = "response_complete"
)

// TemplateDefinition represents a template in the YAML manifest.
type TemplateDefinition struct {
	Name      string     `yaml:"name"`
	Path      string     `yaml:"path"`
	Threshold float64    `yaml:"threshold"`
	Offset    *OffsetDef `yaml:"offset,omitempty"`
	Preload   bool       `yaml:"preload,omitempty"`
}

// OffsetDef represents a click offset in the YAML manifest.
type OffsetDef struct {
	DX int `yaml:"dx"`
	DY int `yaml:"dy"`
}

// ManifestFile represents the structure of a template manifest.
type ManifestFile struct {
	Templates []TemplateDefinition `yaml:"templates"`
}

// Registry manages reference templates loaded from a YAML manifest,
// with lazy image loading and caching. All methods are safe for
// concurrent use.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]Template
	images    map[string]*image.RGBA
	basePath  string
}

// NewRegistry creates a registry rooted at basePath, where template
// image files are stored.
func NewRegistry(basePath string) *Registry {
	return &Registry{
		templates: make(map[string]Template),
		images:    make(map[string]*image.RGBA),
		basePath:  basePath,
	}
}

// LoadFromFile loads template definitions from a YAML manifest.
// Preload failures are reported but do not fail the load; the image
// can still be loaded on demand or its behavior simply stays off.
func (r *Registry) LoadFromFile(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read template manifest %s: %w", filePath, err)
	}

	var manifest ManifestFile
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return fmt.Errorf("failed to unmarshal template manifest: %w", err)
	}

	for i, def := range manifest.Templates {
		if def.Name == "" {
			return fmt.Errorf("template %d: name cannot be empty", i+1)
		}
		if def.Path == "" {
			return fmt.Errorf("template %d (%s): path cannot be empty", i+1, def.Name)
		}

		tmpl := Template{
			Name:      def.Name,
			Path:      filepath.Join(r.basePath, def.Path),
			Threshold: def.Threshold,
			Preload:   def.Preload,
		}
		if tmpl.Threshold == 0 {
			tmpl.Threshold = 0.7
		}
		if def.Offset != nil {
			tmpl.Offset = &image.Point{X: def.Offset.DX, Y: def.Offset.DY}
		}

		r.Register(tmpl)

		if def.Preload {
			if _, err := r.Image(def.Name); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to preload template %s: %v\n", def.Name, err)
			}
		}
	}

	return nil
}

// Register adds or replaces a template.
func (r *Registry) Register(tmpl Template) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[tmpl.Name] = tmpl
	delete(r.images, tmpl.Name)
}

// Get returns a template definition by name.
func (r *Registry) Get(name string) (Template, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tmpl, ok := r.templates[name]
	return tmpl, ok
}

// Names returns all registered template names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	return names
}

// Image returns the template's decoded image, loading and caching it
// on first use.
func (r *Registry) Image(name string) (*image.RGBA, error) {
	r.mu.RLock()
	if img, ok := r.images[name]; ok {
		r.mu.RUnlock()
		return img, nil
	}
	tmpl, ok := r.templates[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("template %q not registered", name)
	}

	img, err := loadPNG(tmpl.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load template %s: %w", name, err)
	}

	r.mu.Lock()
	r.images[name] = img
	r.mu.Unlock()

	return img, nil
}

// Locate matches a named template against a frame. An unregistered
// name is an expected state and yields NotFound, so callers can treat
// "feature not calibrated" and "not on screen right now" uniformly.
// A registered template whose image cannot be loaded yields a failed
// outcome with the load error attached.
func (r *Registry) Locate(frame *image.RGBA, name string) cv.Outcome {
	tmpl, ok := r.Get(name)
	if !ok {
		return cv.Outcome{State: cv.MatchNotFound}
	}

	img, err := r.Image(name)
	if err != nil {
		return cv.Outcome{State: cv.MatchFailed, Err: err}
	}

	return cv.MatchTemplate(frame, img, &cv.MatchConfig{Threshold: tmpl.Threshold})
}
