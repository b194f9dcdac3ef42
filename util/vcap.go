package util

import (
	"encoding/json"
	"fmt"
	"sort"
)

// ParseVcapServices parses raw JSON VCAP_SERVICES into a useable object
func ParseVcapServices(data []byte) (*VcapServices, error) {
	services := VcapServices{}
	err := json.Unmarshal(data, &services)
	return &services, err
}

// VcapServices is a parsed VCAP_SERVICES JSON configuration
type VcapServices map[string][]VcapService

// FindServiceByName finds a service within VCAP_SERVICES, wherever it is nestled
func (s VcapServices) FindServiceByName(name string) *VcapService {
	for _, serviceArray := range s {
		for i := range serviceArray {
			if serviceArray[i].Name == name {
				return &serviceArray[i]
			}
		}
	}
	return nil
}

// GetServiceNames lists the names of all bound services, sorted
func (s VcapServices) GetServiceNames() []string {
	names := []string{}
	for _, serviceArray := range s {
		for _, service := range serviceArray {
			names = append(names, service.Name)
		}
	}
	sort.Strings(names)
	return names
}

// VcapService is a parsed individual VCAP service; not all fields are parsed here
type VcapService struct {
	Name        string          `json:"name"`
	Credentials VcapCredentials `json:"credentials"`
}

// VcapCredentials is a parsed map of VCAP credentials for a service
type VcapCredentials map[string]interface{}

// String recovers the value at the given key, assuming it is a string
func (c VcapCredentials) String(key string) (string, error) {
	if val, ok := c[key]; !ok {
		return "", fmt.Errorf("Credential key does not exist: %s", key)
	} else if valStr, ok := val.(string); ok {
		return valStr, nil
	} else {
		return "", fmt.Errorf("Could not convert value to string: key=%s, value=%v", key, val)
	}
}

// Int recovers the value at the given key. JSON numbers decode as float64,
// so integral floats are accepted too.
func (c VcapCredentials) Int(key string) (int, error) {
	val, ok := c[key]
	if !ok {
		return 0, fmt.Errorf("Credential key does not exist: %s", key)
	}
	switch v := val.(type) {
	case int:
		return v, nil
	case float64:
		if v == float64(int(v)) {
			return int(v), nil
		}
	}
	return 0, fmt.Errorf("Could not convert value to int: key=%s, value=%v", key, val)
}

// DatabaseURL looks up the URI of the named database service
func (s VcapServices) DatabaseURL(serviceName string) (string, error) {
	service := s.FindServiceByName(serviceName)
	if service == nil {
		return "", fmt.Errorf("'%s' service not found; available services: %v", serviceName, s.GetServiceNames())
	}
	return service.Credentials.String("uri")
}
