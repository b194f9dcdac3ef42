package model

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/venicegeo/bf-scene-catalog/util"
)

// Scene metadata does not stick to one datetime format: product XML carries
// ISO timestamps with and without fractions or zone, file names carry the
// compact form. ParseSceneTime tries the lenient layouts first and falls back
// to FixedTimeLayout.

// FixedTimeLayout is the last-resort layout for metadata timestamps
const FixedTimeLayout = "2006-01-02T15:04:05.000000Z"

var sceneTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	OutnameTimeLayout,
	"2006-01-02",
}

// ParseSceneTime is a drop-in replacement for time.Parse, matching against the layouts found in scene metadata
func ParseSceneTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range sceneTimeLayouts {
		if output, err := time.Parse(layout, value); err == nil {
			return output.UTC(), nil
		}
	}
	output, err := time.Parse(FixedTimeLayout, value)
	if err != nil {
		return time.Time{}, errors.Wrapf(util.ErrParse, "date could not be parsed by any expected time format: `%s`", value)
	}
	return output, nil
}
