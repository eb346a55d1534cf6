package service

import (
	"context"

	"github.com/railkit/trackproj/pkg/datastructure"
	"github.com/railkit/trackproj/pkg/engine/projection"
)

type Engine interface {
	Project(fixes []datastructure.GnssFix, gnssCrs, targetCrs string, cfg projection.Config) ([]datastructure.ProjectedPosition, error)
	WorkingCrs() string
	NetworkSize() int
}

// ProjectionService fronts one long-lived engine: the network is indexed once
// at server start and every request projects against it.
type ProjectionService struct {
	engine   Engine
	defaults projection.Config
}

func NewProjectionService(engine Engine, defaults projection.Config) *ProjectionService {
	return &ProjectionService{
		engine:   engine,
		defaults: defaults,
	}
}

// ProjectFixes projects one request batch. override replaces the server
// defaults when non-nil.
func (s *ProjectionService) ProjectFixes(ctx context.Context, fixes []datastructure.GnssFix,
	gnssCrs, targetCrs string, override *projection.Config) ([]datastructure.ProjectedPosition, error) {

	cfg := s.defaults
	if override != nil {
		cfg = *override
	}
	return s.engine.Project(fixes, gnssCrs, targetCrs, cfg)
}

func (s *ProjectionService) NetworkSize() int {
	return s.engine.NetworkSize()
}

func (s *ProjectionService) WorkingCrs() string {
	return s.engine.WorkingCrs()
}
