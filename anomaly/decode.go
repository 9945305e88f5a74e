package anomaly

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

// UnmarshalYAML decodes a YAML list of anomaly entries into the container.
func (c *Container) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var entries []interface{}
	if err := unmarshal(&entries); err != nil {
		return err
	}

	for _, entry := range entries {
		a, err := FromEntry(entry)
		if err != nil {
			return err
		}
		*c = append(*c, a)
	}
	return nil
}

// DecodeHook returns a mapstructure decode hook that builds an Anomaly from a
// map entry whenever the decode target is the Anomaly interface. This lets
// configuration loaders decode anomaly lists directly.
func DecodeHook() mapstructure.DecodeHookFuncType {
	anomalyType := reflect.TypeOf((*Anomaly)(nil)).Elem()
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if t != anomalyType {
			return data, nil
		}
		return FromEntry(data)
	}
}

// FromEntry creates an anomaly from a decoded YAML entry based on its "type"
// (or "Type") field.
func FromEntry(entry interface{}) (Anomaly, error) {
	m, err := toStringMap(entry)
	if err != nil {
		return nil, err
	}

	// some decoders preserve key case and some lower it
	typeStr, ok := m["type"].(string)
	if !ok {
		typeStr, ok = m["Type"].(string)
		if !ok {
			return nil, errors.New("anomaly type field is missing or not a string")
		}
	}
	delete(m, "type")
	delete(m, "Type")

	switch typeStr {
	case "spike":
		var params SpikeParams
		if err := decodeParams(&params, m); err != nil {
			return nil, err
		}
		return NewSpikeAnomaly(params)
	case "trend":
		var params TrendParams
		if err := decodeParams(&params, m); err != nil {
			return nil, err
		}
		return NewTrendAnomaly(params)
	default:
		return nil, fmt.Errorf("unknown anomaly type: %s", typeStr)
	}
}

// Use mapstructure to decode an entry into anomaly params. Unknown keys are
// rejected so that misspelt settings are not silently ignored.
func decodeParams[T any](params *T, m map[string]interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(), // parses uuids and channels
		),
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           params,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(m)
}

// yaml.v2 produces map[interface{}]interface{} for nested maps.
func toStringMap(entry interface{}) (map[string]interface{}, error) {
	switch m := entry.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out, nil
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(m))
		for k, v := range m {
			key, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("anomaly entry has a non-string key: %v", k)
			}
			out[key] = v
		}
		return out, nil
	default:
		return nil, fmt.Errorf("anomaly entry cannot be parsed to a map: %v", entry)
	}
}
