package godf

import (
	"io"
	"os"

	"github.com/google/uuid"
	"mit.edu/dsg/godf/catalog"
	"mit.edu/dsg/godf/common"
	"mit.edu/dsg/godf/config"
	"mit.edu/dsg/godf/dataframe"
	"mit.edu/dsg/godf/execution"
	"mit.edu/dsg/godf/logging"
	"mit.edu/dsg/godf/planner"
	"mit.edu/dsg/godf/storage"
)

// GoDF is the top-level container: configuration, the source catalog, and the runner every
// DataFrame created through it executes on.
type GoDF struct {
	Config  *config.Config
	Catalog *catalog.Catalog
	Runner  *execution.LocalRunner
	Logger  logging.Logger

	provider catalog.PersistenceProvider
}

// New creates a session. Log output goes to logOut; a nil logOut discards it.
func New(cfg *config.Config, logOut io.Writer) (*GoDF, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var logger logging.Logger = logging.Nop()
	if logOut != nil {
		var err error
		if logger, err = logging.FromConfig(cfg.Logging, logOut); err != nil {
			return nil, err
		}
	}

	var provider catalog.PersistenceProvider = catalog.NewMemoryCatalogManager()
	if cfg.CatalogDir != "" {
		if err := os.MkdirAll(cfg.CatalogDir, 0755); err != nil {
			return nil, err
		}
		provider = catalog.NewDiskCatalogManager(cfg.CatalogDir)
	}
	cat, err := catalog.NewCatalog(provider)
	if err != nil {
		return nil, err
	}

	logger.Info("session started",
		logging.Int("default_partitions", cfg.DefaultPartitions),
		logging.Int("parallelism", cfg.Parallelism),
		logging.Int("sources", len(cat.SourceNames())))
	return &GoDF{
		Config:   cfg,
		Catalog:  cat,
		Runner:   execution.NewLocalRunner(cfg.Parallelism, logger),
		Logger:   logger,
		provider: provider,
	}, nil
}

// Open loads the config file at path and creates a session from it.
func Open(path string, logOut io.Writer) (*GoDF, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return New(cfg, logOut)
}

func (g *GoDF) partitions(n int) int {
	if n == 0 {
		return g.Config.DefaultPartitions
	}
	return n
}

// FromRows loads rows into memory and returns a DataFrame over them. numPartitions 0 uses the
// configured default.
func (g *GoDF) FromRows(schema *common.Schema, rows []map[string]any, numPartitions int) (*dataframe.DataFrame, error) {
	location, err := g.load(schema, rows, g.partitions(numPartitions))
	if err != nil {
		return nil, err
	}
	scan, err := planner.NewScanNode(planner.SourceDescriptor{
		Name:          "rows",
		Format:        execution.MemoryFormat,
		Location:      location,
		NumPartitions: g.partitions(numPartitions),
	}, schema)
	if err != nil {
		return nil, err
	}
	return dataframe.New(scan, g.Runner), nil
}

func (g *GoDF) load(schema *common.Schema, rows []map[string]any, numPartitions int) (string, error) {
	data, err := storage.FromMaps(schema, rows, numPartitions)
	if err != nil {
		return "", err
	}
	location := "mem://" + uuid.NewString()
	g.Runner.RegisterDataset(location, data)
	return location, nil
}

// CreateTable loads rows into memory and registers them in the catalog under name.
func (g *GoDF) CreateTable(name string, schema *common.Schema, rows []map[string]any, numPartitions int) (*catalog.Source, error) {
	if _, err := g.Catalog.GetSource(name); err == nil {
		return nil, common.Errorf(common.DuplicateObjectError, "source '%s' already exists", name)
	}
	location, err := g.load(schema, rows, g.partitions(numPartitions))
	if err != nil {
		return nil, err
	}
	src, err := g.RegisterSource(catalog.Source{
		Name:          name,
		Format:        execution.MemoryFormat,
		Location:      location,
		NumPartitions: g.partitions(numPartitions),
		Columns:       schema.Fields(),
	})
	if err != nil {
		g.Runner.DropDataset(location)
		return nil, err
	}
	return src, nil
}

// RegisterSource adds a source descriptor to the catalog. The data behind it is not checked
// until a plan over it runs.
func (g *GoDF) RegisterSource(src catalog.Source) (*catalog.Source, error) {
	s, err := g.Catalog.AddSource(src, g.provider)
	if err != nil {
		return nil, err
	}
	g.Logger.Info("registered source",
		logging.String("name", s.Name),
		logging.String("format", s.Format),
		logging.String("location", s.Location),
		logging.Int("partitions", s.NumPartitions))
	return s, nil
}

// DropTable removes a source from the catalog, and its data if the session holds it in memory.
func (g *GoDF) DropTable(name string) error {
	src, err := g.Catalog.GetSource(name)
	if err != nil {
		return err
	}
	if err := g.Catalog.RemoveSource(name, g.provider); err != nil {
		return err
	}
	if src.Format == execution.MemoryFormat {
		g.Runner.DropDataset(src.Location)
	}
	g.Logger.Info("dropped source", logging.String("name", name))
	return nil
}

// Table returns a DataFrame scanning the named catalog source.
func (g *GoDF) Table(name string) (*dataframe.DataFrame, error) {
	src, err := g.Catalog.GetSource(name)
	if err != nil {
		return nil, err
	}
	schema, err := src.Schema()
	if err != nil {
		return nil, err
	}
	scan, err := planner.NewScanNode(src.Descriptor(), schema)
	if err != nil {
		return nil, err
	}
	return dataframe.New(scan, g.Runner), nil
}

// FromHTTPRequest returns a DataFrame whose rows are the body of an incoming request. It can be
// planned and explained; serving it needs a runner bound to an endpoint.
func (g *GoDF) FromHTTPRequest(schema *common.Schema) (*dataframe.DataFrame, error) {
	n, err := planner.NewHTTPRequestNode(schema)
	if err != nil {
		return nil, err
	}
	return dataframe.New(n, g.Runner), nil
}
