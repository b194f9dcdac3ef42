package scene

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/paulmach/orb/encoding/wkt"
	"github.com/pkg/errors"
	"github.com/venicegeo/bf-scene-catalog/model"
	"github.com/venicegeo/bf-scene-catalog/util"
)

// Metadata is a flattened view of an archive's metadata documents. Keys are
// upper-case leaf element names; repeated elements keep every value.
type Metadata map[string][]string

// Add appends a value to key
func (m Metadata) Add(key, value string) {
	m[key] = append(m[key], value)
}

// Get returns the first value of key
func (m Metadata) Get(key string) (string, bool) {
	values := m[key]
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// All returns every value of key
func (m Metadata) All(key string) []string {
	return m[key]
}

// Merge copies the entries of other into m
func (m Metadata) Merge(other Metadata) {
	for k, values := range other {
		m[k] = append(m[k], values...)
	}
}

type element struct {
	name     string
	attrs    []xml.Attr
	prefix   string
	text     strings.Builder
	hasChild bool

	specialText  string
	specialIndex string
}

func (e *element) attr(name string) string {
	for _, a := range e.attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// ParseMetadata flattens an XML metadata document.
//
// Leaf elements become KEY=text. A "type" attribute is appended to the key
// (ORBITNUMBER_START), a "checkType" attribute replaces it, and a "unit"
// attribute is stored as KEY_UNIT. Leaves below the n-th Datatake element are
// prefixed DATATAKE_n_, Special_Values pairs become SPECIAL_VALUE_<TEXT>=index
// and EXT_POS_LIST additionally yields FOOTPRINT as lon/lat WKT.
func ParseMetadata(r io.Reader) (Metadata, error) {
	decoder := xml.NewDecoder(r)
	md := Metadata{}
	stack := []*element{}
	datatakes := 0

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(util.ErrParse, "invalid metadata XML: %v", err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			e := &element{name: strings.ToUpper(t.Name.Local), attrs: t.Attr}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.hasChild = true
				e.prefix = parent.prefix
			}
			switch e.name {
			case "DATATAKE":
				datatakes++
				e.prefix = fmt.Sprintf("DATATAKE_%d_", datatakes)
				if id := e.attr("datatakeIdentifier"); id != "" {
					md.Add(e.prefix+"ID", id)
				}
			case "REFLECTANCE_CONVERSION":
				e.prefix = "REFLECTANCE_CONVERSION_"
			}
			stack = append(stack, e)
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		case xml.EndElement:
			if len(stack) == 0 {
				continue
			}
			e := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			var parent *element
			if len(stack) > 0 {
				parent = stack[len(stack)-1]
			}
			md.addElement(e, parent)
		}
	}
	return md, nil
}

func (m Metadata) addElement(e *element, parent *element) {
	if e.name == "SPECIAL_VALUES" {
		if e.specialText != "" {
			m.Add("SPECIAL_VALUE_"+strings.ToUpper(e.specialText), e.specialIndex)
		}
		return
	}
	if e.hasChild {
		return
	}

	text := strings.TrimSpace(e.text.String())
	if parent != nil && parent.name == "SPECIAL_VALUES" {
		switch e.name {
		case "SPECIAL_VALUE_TEXT":
			parent.specialText = text
		case "SPECIAL_VALUE_INDEX":
			parent.specialIndex = text
		}
		return
	}
	if text == "" {
		return
	}

	key := e.name
	if check := e.attr("checkType"); check != "" {
		key = strings.ToUpper(check)
	} else if typ := e.attr("type"); typ != "" {
		key += "_" + strings.ToUpper(typ)
	}
	key = e.prefix + key

	m.Add(key, text)
	if unit := e.attr("unit"); unit != "" {
		m.Add(key+"_UNIT", unit)
	}
	if e.name == "EXT_POS_LIST" {
		if footprint, err := model.ParseLatLonList(text); err == nil {
			m.Add("FOOTPRINT", wkt.MarshalString(footprint))
		}
	}
}
