package scene

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/venicegeo/bf-scene-catalog/util"
)

func TestParseMetadata_Sentinel1Manifest(t *testing.T) {
	md, err := ParseMetadata(strings.NewReader(s1Manifest))

	assert.Nil(t, err)
	v, _ := md.Get("ORBITNUMBER_START")
	assert.Equal(t, "4739", v)
	v, _ = md.Get("RELATIVEORBITNUMBER_START")
	assert.Equal(t, "117", v)
	v, _ = md.Get("PASS")
	assert.Equal(t, "ASCENDING", v)
	assert.Equal(t, []string{"VV", "VH"}, md.All("TRANSMITTERRECEIVERPOLARISATION"))
	v, _ = md.Get("COORDINATES")
	assert.Equal(t, "51.5,7.1 51.9,3.5 50.3,3.1 49.9,6.6", v)
	_, ok := md.Get("ORBITREFERENCE")
	assert.False(t, ok)
}

func TestParseMetadata_Sentinel2Product(t *testing.T) {
	md, err := ParseMetadata(strings.NewReader(s2Metadata))

	assert.Nil(t, err)
	expected := map[string]string{
		"PROCESSING_LEVEL":                "Level-2A",
		"DATATAKE_1_ID":                   "GS2B_20200202T104149_015192_N02.13",
		"DATATAKE_1_SPACECRAFT_NAME":      "Sentinel-2B",
		"DATATAKE_1_SENSING_ORBIT_NUMBER": "8",
		"SPECIAL_VALUE_NODATA":            "0",
		"SPECIAL_VALUE_SATURATED":         "65535",
		"BOA_QUANTIFICATION_VALUE":        "10000",
		"BOA_QUANTIFICATION_VALUE_UNIT":   "none",
		"WVP_QUANTIFICATION_VALUE_UNIT":   "cm",
		"REFLECTANCE_CONVERSION_U":        "1.03090709722802",
		"CLOUD_COVERAGE_ASSESSMENT":       "95.271085",
		"FORMAT_CORRECTNESS":              "PASSED",
		"SENSOR_QUALITY":                  "PASSED",
		"FOOTPRINT":                       "POLYGON((9 45,10.4 45,10.4 44,9 44,9 45))",
	}
	for key, value := range expected {
		v, ok := md.Get(key)
		assert.True(t, ok, key)
		assert.Equal(t, value, v, key)
	}
	_, ok := md.Get("SPECIAL_VALUE_TEXT")
	assert.False(t, ok)
}

func TestParseMetadata_Invalid(t *testing.T) {
	_, err := ParseMetadata(strings.NewReader("<open><unclosed></open>"))

	assert.True(t, errors.Is(err, util.ErrParse))
}

func TestMetadata_Merge(t *testing.T) {
	md := Metadata{"A": {"1"}}

	md.Merge(Metadata{"A": {"2"}, "B": {"3"}})

	assert.Equal(t, []string{"1", "2"}, md.All("A"))
	v, _ := md.Get("B")
	assert.Equal(t, "3", v)
}
