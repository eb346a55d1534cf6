package projection

import (
	"log"
	"runtime"
	"sync/atomic"

	"github.com/railkit/trackproj/domain"
	"github.com/railkit/trackproj/pkg/concurrent"
	"github.com/railkit/trackproj/pkg/crs"
	"github.com/railkit/trackproj/pkg/datastructure"
	"github.com/railkit/trackproj/pkg/geo"
	"github.com/railkit/trackproj/pkg/spatialindex"
)

// distTol mirrors the segment projector tolerance so candidate tie-breaking
// across elements matches tie-breaking within one element.
const distTol = 1e-9

// WarnFunc receives the non-fatal distance-threshold diagnostics. It must not
// block; it never alters the projection result.
type WarnFunc func(fixIdx int, fix datastructure.GnssFix, distanceMeters float64)

// ProgressFunc is called once per projected fix during the parallel phase.
type ProgressFunc func(done, total int)

type Option func(*Engine)

// WithTransformer swaps the geodesy backend. Defaults to the PROJ-backed one.
func WithTransformer(tf crs.Transformer) Option {
	return func(e *Engine) { e.tf = tf }
}

func WithWarnFunc(fn WarnFunc) Option {
	return func(e *Engine) { e.warnFn = fn }
}

func WithProgressFunc(fn ProgressFunc) Option {
	return func(e *Engine) { e.progressFn = fn }
}

// Engine projects GNSS fixes onto a railway network. The network is
// reprojected into the working CRS and indexed once at construction; after
// that the engine is read-only and safe for concurrent Project calls, except
// that warn/progress callbacks must be safe themselves.
type Engine struct {
	tf         crs.Transformer
	index      *spatialindex.Index
	workingCrs string
	warnFn     WarnFunc
	progressFn ProgressFunc
}

// NewEngine validates the network CRS and working CRS, reprojects every
// element into the working CRS, and builds the spatial index. The working CRS
// should be a projected metric CRS so that radii, measures, and distances are
// meters rather than degrees.
func NewEngine(elements []datastructure.NetworkElement, networkCrs, workingCrs string, opts ...Option) (*Engine, error) {
	e := &Engine{warnFn: defaultWarnFunc}
	for _, opt := range opts {
		opt(e)
	}
	if e.tf == nil {
		e.tf = crs.NewProjTransformer()
	}

	// CRS errors are configuration errors: fail before touching any element
	if err := e.tf.Validate(networkCrs); err != nil {
		return nil, err
	}
	if err := e.tf.Validate(workingCrs); err != nil {
		return nil, err
	}
	normWorking, err := crs.NormalizeID(workingCrs)
	if err != nil {
		return nil, err
	}
	e.workingCrs = normWorking

	if len(elements) == 0 {
		return nil, domain.Errorf(domain.ErrEmptyNetwork, "no network elements supplied")
	}

	seen := make(map[string]struct{}, len(elements))
	total := 0
	for _, el := range elements {
		if el.ID == "" || len(el.Vertices) < 2 {
			return nil, domain.Errorf(domain.ErrBadParamInput,
				"netelement %q must have a non-empty id and at least 2 vertices", el.ID)
		}
		if _, dup := seen[el.ID]; dup {
			return nil, domain.Errorf(domain.ErrBadParamInput, "duplicate netelement id %q", el.ID)
		}
		seen[el.ID] = struct{}{}
		total += len(el.Vertices)
	}

	// one batch over all vertices keeps the transform all-or-nothing for the
	// whole network
	batch := make([]datastructure.Point, 0, total)
	for _, el := range elements {
		batch = append(batch, el.Vertices...)
	}
	transformed, err := e.tf.Transform(batch, networkCrs, workingCrs)
	if err != nil {
		return nil, err
	}

	working := make([]datastructure.NetworkElement, len(elements))
	off := 0
	for i, el := range elements {
		working[i] = datastructure.NetworkElement{
			ID:       el.ID,
			Vertices: transformed[off : off+len(el.Vertices) : off+len(el.Vertices)],
		}
		off += len(el.Vertices)
	}

	e.index, err = spatialindex.Build(working)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// WorkingCrs returns the normalized identifier of the engine's internal CRS.
func (e *Engine) WorkingCrs() string {
	return e.workingCrs
}

// NetworkSize returns the number of indexed elements.
func (e *Engine) NetworkSize() int {
	return e.index.Len()
}

type fixJob struct {
	point  datastructure.Point
	radius float64
}

type fixResult struct {
	idx        int
	elementIdx int
	projection geo.PolylineProjection
	err        error
	skipped    bool
}

// Project maps every fix onto the network and returns one result per fix, in
// input order. Any fatal condition aborts the whole call with no partial
// result list. Zero fixes is valid and yields zero results.
func (e *Engine) Project(fixes []datastructure.GnssFix, gnssCrs, targetCrs string, cfg Config) ([]datastructure.ProjectedPosition, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	// validate all CRS parameters before any per-fix work, even for an empty
	// fix list, so bad identifiers never go unnoticed
	if err := e.tf.Validate(gnssCrs); err != nil {
		return nil, err
	}
	if err := e.tf.Validate(targetCrs); err != nil {
		return nil, err
	}
	normTarget, err := crs.NormalizeID(targetCrs)
	if err != nil {
		return nil, err
	}

	if len(fixes) == 0 {
		return []datastructure.ProjectedPosition{}, nil
	}

	// phase 1: batch-transform all fixes into the working CRS
	points := make([]datastructure.Point, len(fixes))
	for i, fix := range fixes {
		points[i] = datastructure.NewPoint(fix.Longitude, fix.Latitude)
	}
	workPoints, err := e.tf.Transform(points, gnssCrs, e.workingCrs)
	if err != nil {
		return nil, err
	}

	// phase 2: candidate search and exact projection, fanned out per fix
	slots := make([]fixResult, len(fixes))
	e.runProjectionPhase(workPoints, cfg, slots)

	// first fatal error by fix index wins, deterministically
	for i := range slots {
		if slots[i].err != nil {
			return nil, slots[i].err
		}
		if slots[i].skipped {
			return nil, domain.Errorf(domain.ErrInternalServerError,
				"fix %d was not projected", i)
		}
	}

	// phase 3: warnings, target-CRS transform, result assembly
	for i, fix := range fixes {
		dist := slots[i].projection.Distance
		if !cfg.SuppressWarnings && dist > cfg.ProjectionDistanceWarningThresholdMeters {
			e.warnFn(i, fix, dist)
		}
	}

	closest := make([]datastructure.Point, len(fixes))
	for i := range slots {
		closest[i] = slots[i].projection.Closest
	}
	targetPoints, err := e.tf.Transform(closest, e.workingCrs, normTarget)
	if err != nil {
		return nil, err
	}

	out := make([]datastructure.ProjectedPosition, len(fixes))
	for i, fix := range fixes {
		out[i] = datastructure.ProjectedPosition{
			OriginalLatitude:         fix.Latitude,
			OriginalLongitude:        fix.Longitude,
			Timestamp:                fix.Timestamp,
			ProjectedX:               targetPoints[i].X,
			ProjectedY:               targetPoints[i].Y,
			NetelementID:             e.index.Element(slots[i].elementIdx).ID,
			MeasureMeters:            slots[i].projection.Measure,
			ProjectionDistanceMeters: slots[i].projection.Distance,
			Crs:                      normTarget,
		}
	}
	return out, nil
}

func (e *Engine) runProjectionPhase(workPoints []datastructure.Point, cfg Config, slots []fixResult) {
	numWorkers := cfg.NumWorkers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if numWorkers > len(workPoints) {
		numWorkers = len(workPoints)
	}

	var aborted atomic.Bool
	pool := concurrent.NewWorkerPool[fixJob, fixResult](numWorkers, len(workPoints))
	pool.Start(func(job concurrent.Job[fixJob]) fixResult {
		if aborted.Load() {
			return fixResult{idx: job.ID, skipped: true}
		}
		res := e.projectOne(job.ID, job.JobItem)
		if res.err != nil {
			aborted.Store(true)
		}
		return res
	})

	for i, p := range workPoints {
		pool.AddJob(concurrent.Job[fixJob]{ID: i, JobItem: fixJob{point: p, radius: cfg.MaxSearchRadiusMeters}})
	}
	pool.Close()
	go pool.Wait()

	done := 0
	for res := range pool.CollectResults() {
		slots[res.idx] = res
		done++
		if e.progressFn != nil {
			e.progressFn(done, len(workPoints))
		}
	}
}

// projectOne runs the per-fix state machine: index query, exact projection of
// every candidate, best-candidate selection. Terminal states are a filled
// fixResult (Projected) or an Unprojectable error.
func (e *Engine) projectOne(idx int, job fixJob) fixResult {
	candidates := e.index.Query(job.point, job.radius)
	if len(candidates) == 0 {
		return fixResult{idx: idx, err: domain.Errorf(domain.ErrUnprojectable,
			"fix %d at (%f, %f): no netelement within %.1fm",
			idx, job.point.X, job.point.Y, job.radius)}
	}

	bestElement := -1
	var best geo.PolylineProjection
	for _, c := range candidates {
		el := e.index.Element(c)
		if e.index.IsDegenerate(c) {
			continue
		}
		proj, ok := geo.ProjectPointToPolyline(job.point, el.Vertices)
		if !ok {
			continue
		}
		if bestElement < 0 || betterCandidate(proj, el.ID, best, e.index.Element(bestElement).ID) {
			bestElement = c
			best = proj
		}
	}

	if bestElement < 0 {
		// every candidate inside the radius was degenerate
		return fixResult{idx: idx, err: domain.Errorf(domain.ErrUnprojectable,
			"fix %d at (%f, %f): only zero-length netelements within %.1fm",
			idx, job.point.X, job.point.Y, job.radius)}
	}
	return fixResult{idx: idx, elementIdx: bestElement, projection: best}
}

// betterCandidate orders candidates by perpendicular distance, then by
// measure, then by element id. All three together make selection independent
// of index query order.
func betterCandidate(p geo.PolylineProjection, id string, bestP geo.PolylineProjection, bestID string) bool {
	if p.Distance < bestP.Distance-distTol {
		return true
	}
	if p.Distance > bestP.Distance+distTol {
		return false
	}
	if p.Measure != bestP.Measure {
		return p.Measure < bestP.Measure
	}
	return id < bestID
}

func defaultWarnFunc(fixIdx int, fix datastructure.GnssFix, distanceMeters float64) {
	log.Printf("WARNING: projection distance %.2fm for fix %d at (%f, %f) exceeds threshold",
		distanceMeters, fixIdx, fix.Latitude, fix.Longitude)
}

// Project is the one-shot entry point: it builds an engine over the supplied
// elements with the target CRS doubling as working CRS, then projects the
// fixes. cfg may be nil, in which case DefaultConfig applies. Long-lived
// callers that project many batches against one network should build an
// Engine once instead.
func Project(fixes []datastructure.GnssFix, gnssCrs string, elements []datastructure.NetworkElement,
	networkCrs, targetCrs string, cfg *Config, opts ...Option) ([]datastructure.ProjectedPosition, error) {

	c := DefaultConfig()
	if cfg != nil {
		c = *cfg
	}

	engine, err := NewEngine(elements, networkCrs, targetCrs, opts...)
	if err != nil {
		return nil, err
	}
	return engine.Project(fixes, gnssCrs, targetCrs, c)
}
