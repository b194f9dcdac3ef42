package scene

import (
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/pkg/errors"
	"github.com/venicegeo/bf-scene-catalog/util"
)

var sentinel1NamePattern = regexp.MustCompile(`^(?P<sensor>S1[AB])_` +
	`(?P<beam>S1|S2|S3|S4|S5|S6|IW|EW|WV|EN|N1|N2|N3|N4|N5|N6|IM)_` +
	`(?P<product>SLC|GRD|OCN|RAW)(?P<resolution>F|H|M|_)_` +
	`(?P<level>1|2)(?P<category>S|A)(?P<pols>SH|SV|DH|DV|VV|HH|HV|VH)_` +
	`(?P<start>[0-9]{8}T[0-9]{6})_(?P<stop>[0-9]{8}T[0-9]{6})_` +
	`(?P<orbit>[0-9]{6})_(?P<datatake>[0-9A-F]{6})_(?P<id>[0-9A-F]{4})\.zip$`)

var sentinel2NamePattern = regexp.MustCompile(`^(?P<mission>S2[AB])_MSI(?P<level>L1C|L2A)_` +
	`(?P<start>[0-9]{8}T[0-9]{6})_N(?P<baseline>[0-9]{4})_R(?P<relorbit>[0-9]{3})_` +
	`T(?P<tile>[0-9A-Z]{5})_(?P<discriminator>[0-9]{8}T[0-9]{6})\.zip$`)

// Sentinel1Name is the parsed file name of a SAR archive
type Sentinel1Name struct {
	Sensor        string
	Beam          string
	Product       string
	Resolution    string
	Level         string
	Category      string
	Polarizations []string
	Start         string
	Stop          string
	AbsoluteOrbit int
	Datatake      int
	ID            string
}

// Sentinel2Name is the parsed file name of an optical archive
type Sentinel2Name struct {
	Mission       string
	Level         string
	Start         string
	Baseline      string
	RelativeOrbit int
	Tile          string
	Discriminator string
}

var polarizationCodes = map[string][]string{
	"SH": {"HH"},
	"SV": {"VV"},
	"DH": {"HH", "HV"},
	"DV": {"VV", "VH"},
	"HH": {"HH"},
	"VV": {"VV"},
	"HV": {"HV"},
	"VH": {"VH"},
}

func namedMatch(pattern *regexp.Regexp, path string) (map[string]string, bool) {
	match := pattern.FindStringSubmatch(filepath.Base(path))
	if match == nil {
		return nil, false
	}
	groups := map[string]string{}
	for i, name := range pattern.SubexpNames() {
		if name != "" {
			groups[name] = match[i]
		}
	}
	return groups, true
}

// ParseSentinel1Name parses a SAR archive name such as
// S1A_IW_GRDH_1SDV_20150222T170750_20150222T170815_004739_005DD8_3768.zip
func ParseSentinel1Name(path string) (Sentinel1Name, error) {
	groups, ok := namedMatch(sentinel1NamePattern, path)
	if !ok {
		return Sentinel1Name{}, errors.Wrapf(util.ErrParse, "not a Sentinel-1 archive name: %s", filepath.Base(path))
	}
	orbit, _ := strconv.Atoi(groups["orbit"])
	datatake, _ := strconv.ParseInt(groups["datatake"], 16, 64)
	return Sentinel1Name{
		Sensor:        groups["sensor"],
		Beam:          groups["beam"],
		Product:       groups["product"],
		Resolution:    groups["resolution"],
		Level:         groups["level"],
		Category:      groups["category"],
		Polarizations: polarizationCodes[groups["pols"]],
		Start:         groups["start"],
		Stop:          groups["stop"],
		AbsoluteOrbit: orbit,
		Datatake:      int(datatake),
		ID:            groups["id"],
	}, nil
}

// ParseSentinel2Name parses an optical archive name such as
// S2B_MSIL2A_20200202T104149_N0213_R008_T32UMB_20200202T123131.zip
func ParseSentinel2Name(path string) (Sentinel2Name, error) {
	groups, ok := namedMatch(sentinel2NamePattern, path)
	if !ok {
		return Sentinel2Name{}, errors.Wrapf(util.ErrParse, "not a Sentinel-2 archive name: %s", filepath.Base(path))
	}
	relorbit, _ := strconv.Atoi(groups["relorbit"])
	return Sentinel2Name{
		Mission:       groups["mission"],
		Level:         groups["level"],
		Start:         groups["start"],
		Baseline:      groups["baseline"],
		RelativeOrbit: relorbit,
		Tile:          groups["tile"],
		Discriminator: groups["discriminator"],
	}, nil
}

// fields exposes the name as driver attributes, keyed like the record fields
func (n Sentinel1Name) fields() map[string]string {
	return map[string]string{
		"sensor":           n.Sensor,
		"acquisition_mode": n.Beam,
		"product":          n.Product,
		"start":            n.Start,
		"stop":             n.Stop,
		"orbitNumber_abs":  strconv.Itoa(n.AbsoluteOrbit),
		"frameNumber":      strconv.Itoa(n.Datatake),
	}
}
