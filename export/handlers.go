package export

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/pkg/errors"
	"github.com/venicegeo/bf-scene-catalog/catalog"
	"github.com/venicegeo/bf-scene-catalog/schema"
	"github.com/venicegeo/bf-scene-catalog/util"
)

// query parameters that are not column filters
var reservedParams = map[string]bool{
	"bbox": true, "wkt": true, "srid": true,
	"mindate": true, "maxdate": true, "polarization": true,
}

// DiscoverHandler is a handler for /discover/{table}
// @Title discoverHandler
// @Description searches a catalog table and returns the matching scenes
// @Accept  plain
// @Param   table   path    string  true   "The catalog table to search"
// @Param   bbox    query   string  false  "The bounding box, as x1,y1,x2,y2 in EPSG:4326"
// @Param   wkt     query   string  false  "A WKT geometry the footprints must intersect"
// @Param   srid    query   int     false  "The SRID of wkt, default 4326"
// @Param   mindate query   string  false  "Earliest start, YYYYmmddTHHMMSS"
// @Param   maxdate query   string  false  "Latest stop, YYYYmmddTHHMMSS"
// @Param   polarization query string false "Required polarization, repeatable"
// @Param   {column} query  string  false  "Any other parameter filters on the column of that name"
// @Success 200 {object}  geojson.FeatureCollection
// @Failure 400 {object}  string
// @Router /discover/{table} [get]
type DiscoverHandler struct {
	exporter *Exporter
	logCtx   util.LogContext
}

// NewDiscoverHandler creates a new handler around exporter
func NewDiscoverHandler(exporter *Exporter) *DiscoverHandler {
	return &DiscoverHandler{exporter: exporter, logCtx: &util.BasicLogContext{}}
}

// ServeHTTP implements the http.Handler interface for the DiscoverHandler type
func (h DiscoverHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	table := mux.Vars(r)["table"]
	if err := r.ParseForm(); err != nil {
		util.HTTPError(r, w, h.logCtx, fmt.Sprintf("Bad query: %v", err), http.StatusBadRequest)
		return
	}
	area, err := parseArea(r)
	if err != nil {
		util.HTTPError(r, w, h.logCtx, err.Error(), http.StatusBadRequest)
		return
	}

	preds, err := sceneFilters(r)
	if err != nil {
		util.HTTPError(r, w, h.logCtx, err.Error(), http.StatusBadRequest)
		return
	}
	for column, values := range r.Form {
		if reservedParams[column] {
			continue
		}
		args := make([]interface{}, len(values))
		for i, v := range values {
			args[i] = v
		}
		preds = append(preds, catalog.In(column, args...))
	}

	fc, err := h.exporter.FeatureCollection(table, preds, area)
	if err != nil {
		writeCatalogError(r, w, h.logCtx, "Error searching for scenes", err)
		return
	}
	data, err := fc.MarshalJSON()
	if err != nil {
		util.HTTPError(r, w, h.logCtx, util.LogSimpleErr(h.logCtx, "Error converting to feature collection: ", err).Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.Write(data)
}

// CountHandler is a handler for /count/{table}
// @Title countHandler
// @Description counts the cataloged copies of every outname base of a table
// @Param   table   path    string  true   "The catalog table to count"
// @Success 200 {array}  SceneCount
// @Router /count/{table} [get]
type CountHandler struct {
	exporter *Exporter
	logCtx   util.LogContext
}

// NewCountHandler creates a new handler around exporter
func NewCountHandler(exporter *Exporter) *CountHandler {
	return &CountHandler{exporter: exporter, logCtx: &util.BasicLogContext{}}
}

func (h CountHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	counts, err := h.exporter.CountScenes(mux.Vars(r)["table"])
	if err != nil {
		writeCatalogError(r, w, h.logCtx, "Error counting scenes", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(counts)
}

//parseArea reads the spatial filter from either bbox or wkt/srid
func parseArea(r *http.Request) (*catalog.SpatialFilter, error) {
	if text := r.FormValue("wkt"); text != "" {
		srid := schema.SRID
		if s := r.FormValue("srid"); s != "" {
			var err error
			if srid, err = strconv.Atoi(s); err != nil {
				return nil, fmt.Errorf("The srid value of %v is invalid", s)
			}
		}
		return &catalog.SpatialFilter{WKT: text, SRID: srid}, nil
	}
	if text := r.FormValue("bbox"); text != "" {
		bound, err := parseBBox(text)
		if err != nil {
			return nil, err
		}
		return &catalog.SpatialFilter{WKT: wkt.MarshalString(bound.ToPolygon()), SRID: schema.SRID}, nil
	}
	return nil, nil
}

func parseBBox(text string) (orb.Bound, error) {
	parts := strings.Split(text, ",")
	if len(parts) != 4 {
		return orb.Bound{}, fmt.Errorf("The bbox value of %v is invalid", text)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return orb.Bound{}, fmt.Errorf("The bbox value of %v is invalid", text)
		}
		v[i] = f
	}
	return orb.MultiPoint{{v[0], v[1]}, {v[2], v[3]}}.Bound(), nil
}

func writeCatalogError(r *http.Request, w http.ResponseWriter, ctx util.LogContext, message string, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, util.ErrSchema) {
		status = http.StatusBadRequest
	}
	util.HTTPError(r, w, ctx, fmt.Sprintf("%s: %v", message, err), status)
}

// sceneFilters reads the acquisition window and polarization parameters of
// a parsed request
func sceneFilters(r *http.Request) ([]catalog.Predicate, error) {
	window, err := catalog.DateRange(r.Form.Get("mindate"), r.Form.Get("maxdate"))
	if err != nil {
		return nil, err
	}
	pols, err := catalog.Polarizations(r.Form["polarization"]...)
	if err != nil {
		return nil, err
	}
	return append(window, pols...), nil
}
