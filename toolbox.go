package rastergrid

import (
	"sync"

	"github.com/airbusgeo/godal"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/twpayne/go-proj/v10"
	"go.uber.org/zap"
)

var registerGDALOnce sync.Once

// A Toolbox performs the operations that are delegated to PROJ and GDAL:
// reprojection, rasterization, and GeoTIFF writing. A Toolbox caches PROJ
// transformers and is safe for concurrent use.
type Toolbox struct {
	logger             *zap.Logger
	transformCacheSize int
	allTouched         bool
	mutex              sync.Mutex
	transformers       *lru.Cache[crsPair, *proj.PJ]
}

// A ToolboxOption sets an option on a Toolbox.
type ToolboxOption func(*Toolbox)

type crsPair struct {
	source CRS
	target CRS
}

// NewToolbox returns a new Toolbox with the given options.
func NewToolbox(options ...ToolboxOption) (*Toolbox, error) {
	t := &Toolbox{
		logger:             zap.NewNop(),
		transformCacheSize: 16,
	}
	for _, option := range options {
		option(t)
	}

	var err error
	t.transformers, err = lru.NewWithEvict(t.transformCacheSize, func(key crsPair, pj *proj.PJ) {
		transformerCacheEvictions.Inc()
		pj.Destroy()
	})
	if err != nil {
		return nil, err
	}

	registerGDALOnce.Do(godal.RegisterAll)

	return t, nil
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) ToolboxOption {
	return func(t *Toolbox) {
		t.logger = logger
	}
}

// WithTransformCacheSize sets the number of PROJ transformers kept open.
func WithTransformCacheSize(size int) ToolboxOption {
	return func(t *Toolbox) {
		t.transformCacheSize = size
	}
}

// WithAllTouched sets whether rasterization burns every cell touched by a
// geometry rather than only cells whose center is covered.
func WithAllTouched(allTouched bool) ToolboxOption {
	return func(t *Toolbox) {
		t.allTouched = allTouched
	}
}

// Close releases the resources held by t.
func (t *Toolbox) Close() {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.transformers.Purge()
}
