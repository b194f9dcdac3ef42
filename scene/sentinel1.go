package scene

import (
	"io/fs"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/venicegeo/bf-scene-catalog/model"
	"github.com/venicegeo/bf-scene-catalog/util"
)

// attributes resolves a scene attribute from the parsed file name first and
// the archive metadata second.
type attributes struct {
	scene  string
	driver map[string]string
	meta   Metadata
}

func (a attributes) get(attr string, metaKey string) (string, error) {
	if v, ok := a.driver[attr]; ok && v != "" {
		return v, nil
	}
	if metaKey != "" {
		if v, ok := a.meta.Get(metaKey); ok && v != "" {
			return v, nil
		}
	}
	return "", errors.Wrapf(util.ErrParse, "attribute %s not found in %s", attr, filepath.Base(a.scene))
}

func (a attributes) getInt(attr string, metaKey string) (int, error) {
	v, err := a.get(attr, metaKey)
	if err != nil {
		return 0, err
	}
	i, err := strconv.Atoi(strings.TrimSuffix(v, ".0"))
	if err != nil {
		return 0, errors.Wrapf(util.ErrParse, "attribute %s of %s is not an integer: %q", attr, filepath.Base(a.scene), v)
	}
	return i, nil
}

// compactTime normalizes an acquisition time to the 20060102T150405 form
func compactTime(value string) (string, error) {
	t, err := model.ParseSceneTime(value)
	if err != nil {
		return "", err
	}
	return t.Format(model.OutnameTimeLayout), nil
}

func readSentinel1Metadata(fsys fs.FS) (Metadata, error) {
	manifests, err := findFiles(fsys, func(name string) bool { return path.Base(name) == "manifest.safe" })
	if err != nil {
		return nil, err
	}
	if len(manifests) == 0 {
		return nil, errors.Wrap(util.ErrParse, "archive has no manifest.safe")
	}
	md, err := readMetadata(fsys, manifests[0])
	if err != nil {
		return nil, err
	}

	annotations, err := findFiles(fsys, func(name string) bool {
		return path.Base(path.Dir(name)) == "annotation" && strings.HasSuffix(name, ".xml")
	})
	if err != nil {
		return nil, err
	}
	if len(annotations) > 0 {
		annotation, err := readMetadata(fsys, annotations[0])
		if err != nil {
			return nil, err
		}
		md.Merge(annotation)
	}
	return md, nil
}

func identifySentinel1(scenePath string, fsys fs.FS) (model.Sentinel1Record, error) {
	rec := model.Sentinel1Record{Scene: scenePath}

	md, err := readSentinel1Metadata(fsys)
	if err != nil {
		return rec, err
	}

	attrs := attributes{scene: scenePath, driver: map[string]string{}, meta: md}
	name, nameErr := ParseSentinel1Name(scenePath)
	if nameErr == nil {
		attrs.driver = name.fields()
	}

	if rec.Sensor, err = attrs.get("sensor", ""); err != nil {
		return rec, err
	}
	if rec.AcquisitionMode, err = attrs.get("acquisition_mode", "MODE"); err != nil {
		return rec, err
	}
	if rec.Product, err = attrs.get("product", "PRODUCTTYPE"); err != nil {
		return rec, err
	}
	start, err := attrs.get("start", "STARTTIME")
	if err != nil {
		return rec, err
	}
	if rec.Start, err = compactTime(start); err != nil {
		return rec, err
	}
	stop, err := attrs.get("stop", "STOPTIME")
	if err != nil {
		return rec, err
	}
	if rec.Stop, err = compactTime(stop); err != nil {
		return rec, err
	}
	pass, err := attrs.get("orbit", "PASS")
	if err != nil {
		return rec, err
	}
	rec.Orbit = strings.ToUpper(pass[:1])

	if rec.OrbitNumberAbs, err = attrs.getInt("orbitNumber_abs", "ORBITNUMBER_START"); err != nil {
		return rec, err
	}
	if rec.OrbitNumberRel, err = attrs.getInt("orbitNumber_rel", "RELATIVEORBITNUMBER_START"); err != nil {
		return rec, err
	}
	if rec.CycleNumber, err = attrs.getInt("cycleNumber", "CYCLENUMBER"); err != nil {
		return rec, err
	}
	if rec.FrameNumber, err = attrs.getInt("frameNumber", "MISSIONDATATAKEID"); err != nil {
		return rec, err
	}
	if rec.Samples, err = attrs.getInt("samples", "NUMBEROFSAMPLES"); err != nil {
		return rec, err
	}
	if rec.Lines, err = attrs.getInt("lines", "NUMBEROFLINES"); err != nil {
		return rec, err
	}

	polarizations := name.Polarizations
	if len(polarizations) == 0 {
		polarizations = md.All("TRANSMITTERRECEIVERPOLARISATION")
	}
	if len(polarizations) == 0 {
		return rec, errors.Wrapf(util.ErrParse, "attribute polarizations not found in %s", filepath.Base(scenePath))
	}
	for _, pol := range polarizations {
		switch strings.ToUpper(pol) {
		case "HH":
			rec.HH = true
		case "VV":
			rec.VV = true
		case "HV":
			rec.HV = true
		case "VH":
			rec.VH = true
		}
	}

	coordinates, err := attrs.get("coordinates", "COORDINATES")
	if err != nil {
		return rec, err
	}
	if rec.Geometry, err = model.ParseLatLonList(coordinates); err != nil {
		return rec, err
	}
	rec.BBox = model.Envelope(rec.Geometry)
	rec.OutnameBase = model.Sentinel1OutnameBase(rec.Sensor, rec.AcquisitionMode, rec.Orbit, rec.Start)

	return rec, nil
}
