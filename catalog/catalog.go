package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"mit.edu/dsg/godf/common"
	"mit.edu/dsg/godf/planner"
)

// ObjectID identifies a catalog entry. 0 is reserved for INVALID.
type ObjectID uint32

// Catalog maps source names to the descriptors a Scan needs: schema, format, location and
// partition count. The whole catalog is serialized as a single JSON blob and rewritten through
// the PersistenceProvider on every change.
//
// Sources are immutable once added. To change one, remove it and add it again.
type Catalog struct {
	catalogState

	mu        sync.RWMutex
	sourceMap map[string]*Source   // SourceName -> Source
	columnMap map[string][]*Source // ColumnName -> Sources containing this column
}

// Source describes a named, readable dataset.
type Source struct {
	Oid           ObjectID       `json:"oid"`
	Name          string         `json:"name"`
	Format        string         `json:"format"`
	Location      string         `json:"location"`
	NumPartitions int            `json:"num_partitions"`
	Columns       []common.Field `json:"columns"`
}

// Schema builds the schema of the source's columns.
func (s *Source) Schema() (*common.Schema, error) {
	return common.NewSchema(s.Columns...)
}

// Descriptor returns what a Scan needs to know about where the data lives.
func (s *Source) Descriptor() planner.SourceDescriptor {
	return planner.SourceDescriptor{
		Name:          s.Name,
		Format:        s.Format,
		Location:      s.Location,
		NumPartitions: s.NumPartitions,
	}
}

func (s *Source) String() string {
	b, _ := json.MarshalIndent(s, "", "  ")
	return string(b)
}

// PersistenceProvider abstracts how the catalog is saved and loaded.
type PersistenceProvider interface {
	LoadCatalogState() (json string, err error)
	SaveCatalogState(json string) error
}

type catalogState struct {
	NextId  uint32    `json:"next_id"`
	Sources []*Source `json:"sources"`
}

func (c *Catalog) String() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, _ := json.MarshalIndent(&c.catalogState, "", "  ")
	return string(b)
}

func (c *Catalog) toJSON() (string, error) {
	b, err := json.MarshalIndent(&c.catalogState, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (c *Catalog) fromJSON(jsonData string) error {
	if err := json.Unmarshal([]byte(jsonData), &c.catalogState); err != nil {
		return err
	}
	for _, s := range c.Sources {
		if _, err := s.Schema(); err != nil {
			return fmt.Errorf("source '%s': %w", s.Name, err)
		}
		c.index(s)
	}
	return nil
}

func (c *Catalog) index(s *Source) {
	c.sourceMap[s.Name] = s
	for _, f := range s.Columns {
		c.columnMap[f.Name] = append(c.columnMap[f.Name], s)
	}
}

// NewCatalog initializes a catalog. It attempts to load existing state from the provider; if no
// state exists, it starts empty.
func NewCatalog(provider PersistenceProvider) (*Catalog, error) {
	result := &Catalog{
		catalogState: catalogState{
			NextId:  0,
			Sources: make([]*Source, 0),
		},
		sourceMap: make(map[string]*Source),
		columnMap: make(map[string][]*Source),
	}

	jsonData, err := provider.LoadCatalogState()
	if errors.Is(err, os.ErrNotExist) {
		return result, nil
	}
	if err != nil {
		return nil, err
	}

	if err = result.fromJSON(jsonData); err != nil {
		// usually corruption
		return nil, fmt.Errorf("failed to parse catalog state: %w", err)
	}
	return result, nil
}

// AddSource registers a new source and persists the catalog. A source with the same name
// results in DuplicateObjectError; an invalid column list or partition count is rejected before
// anything is changed.
func (c *Catalog) AddSource(src Source, provider PersistenceProvider) (*Source, error) {
	if src.Name == "" {
		return nil, common.Errorf(common.ConfigurationError, "source name must not be empty")
	}
	if src.NumPartitions < 1 {
		return nil, common.Errorf(common.ConfigurationError, "source '%s' needs a positive partition count, got %d", src.Name, src.NumPartitions)
	}
	if len(src.Columns) == 0 {
		return nil, common.Errorf(common.SchemaError, "source '%s' has no columns", src.Name)
	}
	if _, err := src.Schema(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.sourceMap[src.Name]; exists {
		return nil, common.Errorf(common.DuplicateObjectError, "source '%s' already exists", src.Name)
	}

	c.NextId++
	s := &Source{
		Oid:           ObjectID(c.NextId),
		Name:          src.Name,
		Format:        src.Format,
		Location:      src.Location,
		NumPartitions: src.NumPartitions,
		Columns:       slices.Clone(src.Columns),
	}
	c.Sources = append(c.Sources, s)
	c.index(s)

	jsonData, err := c.toJSON()
	if err != nil {
		return nil, err
	}
	return s, provider.SaveCatalogState(jsonData)
}

// RemoveSource drops a source and persists the catalog.
func (c *Catalog) RemoveSource(name string, provider PersistenceProvider) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, exists := c.sourceMap[name]
	if !exists {
		return common.Errorf(common.NoSuchObjectError, "source '%s' does not exist", name)
	}
	delete(c.sourceMap, name)
	c.Sources = slices.DeleteFunc(c.Sources, func(other *Source) bool { return other == s })
	for _, f := range s.Columns {
		rest := slices.DeleteFunc(c.columnMap[f.Name], func(other *Source) bool { return other == s })
		if len(rest) == 0 {
			delete(c.columnMap, f.Name)
		} else {
			c.columnMap[f.Name] = rest
		}
	}

	jsonData, err := c.toJSON()
	if err != nil {
		return err
	}
	return provider.SaveCatalogState(jsonData)
}

// GetSource fetches the descriptor for a source name.
func (c *Catalog) GetSource(name string) (*Source, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, exists := c.sourceMap[name]
	if !exists {
		return nil, common.Errorf(common.NoSuchObjectError, "source '%s' does not exist", name)
	}
	return s, nil
}

// FindSourcesWithColumnName returns all sources that contain a column with the given name.
func (c *Catalog) FindSourcesWithColumnName(columnName string) []*Source {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.columnMap[columnName])
}

// SourceNames lists the registered names in sorted order.
func (c *Catalog) SourceNames() []string {
	c.mu.RLock()
	names := maps.Keys(c.sourceMap)
	c.mu.RUnlock()
	slices.Sort(names)
	return names
}

const CatalogFileName = "catalog.json"

type DiskCatalogManager struct {
	rootPath string
}

func NewDiskCatalogManager(rootPath string) *DiskCatalogManager {
	return &DiskCatalogManager{
		rootPath: rootPath,
	}
}

// LoadCatalogState implements the catalog.PersistenceProvider interface.
func (dcm *DiskCatalogManager) LoadCatalogState() (string, error) {
	content, err := os.ReadFile(filepath.Join(dcm.rootPath, CatalogFileName))
	if err != nil {
		return "", err // the Catalog handles os.ErrNotExist
	}
	return string(content), nil
}

// SaveCatalogState implements the catalog.PersistenceProvider interface. The file is replaced
// atomically through a temporary file.
func (dcm *DiskCatalogManager) SaveCatalogState(jsonData string) error {
	tmpPath := filepath.Join(dcm.rootPath, CatalogFileName+".tmp")
	finalPath := filepath.Join(dcm.rootPath, CatalogFileName)

	if err := os.WriteFile(tmpPath, []byte(jsonData), 0644); err != nil {
		return err
	}
	return os.Rename(tmpPath, finalPath)
}

// MemoryCatalogManager keeps the serialized catalog in memory, for sessions without a catalog
// directory and for tests.
type MemoryCatalogManager struct {
	mu    sync.Mutex
	state string
	saved bool
}

func NewMemoryCatalogManager() *MemoryCatalogManager {
	return &MemoryCatalogManager{}
}

func (m *MemoryCatalogManager) LoadCatalogState() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.saved {
		return "", os.ErrNotExist
	}
	return m.state, nil
}

func (m *MemoryCatalogManager) SaveCatalogState(jsonData string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state, m.saved = jsonData, true
	return nil
}
