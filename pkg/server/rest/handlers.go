package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/twpayne/go-polyline"

	"github.com/railkit/trackproj/pkg/crs"
	"github.com/railkit/trackproj/pkg/datastructure"
	"github.com/railkit/trackproj/pkg/engine/projection"
	"github.com/railkit/trackproj/pkg/util"
)

type ProjectionService interface {
	ProjectFixes(ctx context.Context, fixes []datastructure.GnssFix,
		gnssCrs, targetCrs string, override *projection.Config) ([]datastructure.ProjectedPosition, error)
	NetworkSize() int
	WorkingCrs() string
}

type ProjectionHandler struct {
	svc          ProjectionService
	promeMetrics *metrics
}

func ProjectionRouter(r *chi.Mux, svc ProjectionService, m *metrics) {
	handler := &ProjectionHandler{svc, m}

	r.Group(func(r chi.Router) {
		r.Route("/api/projections", func(r chi.Router) {
			r.Post("/", handler.projectFixes)
			r.Get("/network", handler.networkInfo)
		})
	})
}

type FixRequest struct {
	Lat       float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon       float64 `json:"lon" validate:"gte=-180,lte=180"`
	Timestamp string  `json:"timestamp" validate:"required"`
}

type ProjectionRequest struct {
	GnssCrs   string             `json:"gnss_crs" validate:"required"`
	TargetCrs string             `json:"target_crs" validate:"required"`
	Fixes     []FixRequest       `json:"fixes" validate:"required,min=1,dive"`
	Config    *projection.Config `json:"config"`
}

func (p *ProjectionRequest) Bind(r *http.Request) error {
	if len(p.Fixes) == 0 {
		return errors.New("invalid request")
	}
	return nil
}

type ProjectionResponse struct {
	Positions []datastructure.ProjectedPosition `json:"positions"`

	// Polyline is the google encoded polyline of the projected track points,
	// only present when the target CRS is WGS84.
	Polyline string `json:"polyline,omitempty"`
}

func NewProjectionResponse(positions []datastructure.ProjectedPosition, targetCrs string) *ProjectionResponse {
	resp := &ProjectionResponse{Positions: positions}
	if crs.SameCRS(targetCrs, "EPSG:4326") {
		coords := make([][]float64, len(positions))
		for i, pos := range positions {
			coords[i] = []float64{util.RoundFloat(pos.ProjectedY, 6), util.RoundFloat(pos.ProjectedX, 6)}
		}
		resp.Polyline = string(polyline.EncodeCoords(coords))
	}
	return resp
}

func (h *ProjectionHandler) projectFixes(w http.ResponseWriter, r *http.Request) {
	data := &ProjectionRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	validate := validator.New()
	if err := validate.Struct(*data); err != nil {
		english := en.New()
		uni := ut.New(english, english)
		trans, _ := uni.GetTranslator("en")
		_ = enTranslations.RegisterDefaultTranslations(validate, trans)
		vv := translateError(err, trans)
		render.Render(w, r, ErrValidation(err, vv))
		return
	}

	fixes := make([]datastructure.GnssFix, len(data.Fixes))
	for i, f := range data.Fixes {
		ts, err := time.Parse(time.RFC3339, f.Timestamp)
		if err != nil {
			render.Render(w, r, ErrInvalidRequest(errors.New("timestamp must be RFC3339 with an explicit UTC offset")))
			return
		}
		fix, err := datastructure.NewGnssFix(f.Lat, f.Lon, ts)
		if err != nil {
			render.Render(w, r, ErrInvalidRequest(err))
			return
		}
		fixes[i] = fix
	}

	positions, err := h.svc.ProjectFixes(r.Context(), fixes, data.GnssCrs, data.TargetCrs, data.Config)
	if err != nil {
		h.promeMetrics.ProjectionQueryCount.WithLabelValues("error").Inc()
		render.Render(w, r, ErrDomain(err))
		return
	}
	h.promeMetrics.ProjectionQueryCount.WithLabelValues("ok").Inc()

	render.Status(r, http.StatusOK)
	render.JSON(w, r, NewProjectionResponse(positions, data.TargetCrs))
}

type NetworkInfoResponse struct {
	NetelementCount int    `json:"netelement_count"`
	WorkingCrs      string `json:"working_crs"`
}

func (h *ProjectionHandler) networkInfo(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, NetworkInfoResponse{
		NetelementCount: h.svc.NetworkSize(),
		WorkingCrs:      h.svc.WorkingCrs(),
	})
}
