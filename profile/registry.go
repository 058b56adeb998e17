package profile

import (
	"errors"
	"fmt"
	"io"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"gopkg.in/yaml.v3"
)

// ExtensionClassifier tells whether an element is an extension, and if so,
// whether it is simple (a single value) or complex (nested extensions).
type ExtensionClassifier interface {
	ClassifyExtension(el *Element) ExtensionType
}

// NoExtensions classifies every element as ExtensionNone.
var NoExtensions ExtensionClassifier = noExtensions{}

type noExtensions struct{}

func (noExtensions) ClassifyExtension(*Element) ExtensionType { return ExtensionNone }

// ErrDuplicateProfile is returned when registering a URL twice.
var ErrDuplicateProfile = errors.New("profile already registered")

// Registry knows about all profiles of a run and classifies extension
// elements by looking up the extension profiles they refer to.
// Classifications are cached. A Registry is safe for concurrent use.
type Registry struct {
	mx       sync.RWMutex
	cfg      *Config
	profiles map[string]*StructureDefinition
	cache    *lru.Cache[string, ExtensionType]
}

// DefaultCacheSize is the number of cached extension classifications.
const DefaultCacheSize = 512

// NewRegistry creates an empty registry with a classification cache of a given size.
// cfg may be nil.
func NewRegistry(cfg *Config, cacheSize int) (*Registry, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, ExtensionType](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Registry{
		cfg:      cfg,
		profiles: make(map[string]*StructureDefinition),
		cache:    cache,
	}, nil
}

// Register adds a profile, keyed by its URL (or its name, if it has no URL).
func (reg *Registry) Register(sd *StructureDefinition) error {
	key := sd.URL
	if key == "" {
		key = sd.Name
	}
	reg.mx.Lock()
	defer reg.mx.Unlock()
	if _, exists := reg.profiles[key]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateProfile, key)
	}
	reg.profiles[key] = sd
	reg.cache.Remove(key)
	return nil
}

// Lookup finds a profile by URL.
func (reg *Registry) Lookup(url string) (*StructureDefinition, bool) {
	reg.mx.RLock()
	defer reg.mx.RUnlock()
	sd, ok := reg.profiles[url]
	return sd, ok
}

// Len returns the number of registered profiles.
func (reg *Registry) Len() int {
	reg.mx.RLock()
	defer reg.mx.RUnlock()
	return len(reg.profiles)
}

// ClassifyExtension is part of interface ExtensionClassifier.
//
// Elements not typed as Extension are no extensions. An extension element
// without a profile URL is the generic extension scaffold and counts as
// simple. Otherwise the extension profile is consulted: if it defines nested
// extension parameters which are not removed, the extension is complex.
// Unknown profiles are taken to be simple.
func (reg *Registry) ClassifyExtension(el *Element) ExtensionType {
	if !el.HasTypeCode("Extension") {
		return ExtensionNone
	}
	urls := el.TypeProfiles()
	if len(urls) == 0 {
		return ExtensionSimple
	}
	x := ExtensionSimple
	for _, url := range urls {
		if reg.classify(url) == ExtensionComplex {
			x = ExtensionComplex
		}
	}
	return x
}

func (reg *Registry) classify(url string) ExtensionType {
	if x, ok := reg.cache.Get(url); ok {
		return x
	}
	x := ExtensionSimple
	sd, ok := reg.Lookup(url)
	if !ok {
		tracer().Debugf("extension profile %s not registered, assuming simple extension", url)
	} else {
		for i := range sd.Snapshot {
			el := &sd.Snapshot[i]
			if el.Path != reg.cfg.ExtensionParameterPath || el.Slicing != nil {
				continue
			}
			if card, err := el.Cardinality(); err == nil && !card.Removed() {
				x = ExtensionComplex
				break
			}
		}
	}
	reg.cache.Add(url, x)
	return x
}

// ReadStructureDefinition reads a profile from its YAML rendition.
func ReadStructureDefinition(r io.Reader) (*StructureDefinition, error) {
	sd := &StructureDefinition{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(sd); err != nil {
		return nil, fmt.Errorf("cannot read structure definition: %w", err)
	}
	if len(sd.Snapshot) == 0 {
		return nil, fmt.Errorf("structure definition %q has no snapshot", sd.Name)
	}
	return sd, nil
}
