package modelschema

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/nulzo/unillm/pkg/api"
)

var ErrInvalidConfigKey = errors.New("invalid config key")

// InvalidConfigKeyError lists config keys the model does not define.
type InvalidConfigKeyError struct {
	Keys  []string
	Valid []string
}

func (e *InvalidConfigKeyError) Error() string {
	return fmt.Sprintf("invalid config key(s) [%s]; valid keys are [%s]",
		strings.Join(e.Keys, ", "), strings.Join(e.Valid, ", "))
}

func (e *InvalidConfigKeyError) Is(target error) bool {
	return target == ErrInvalidConfigKey
}

// TransformConfig re-keys every present value of config under the wire
// param its def declares. A key without a def fails the whole call.
func TransformConfig(config map[string]any, s Configured) (map[string]any, error) {
	defs := s.ModelConfig().Def

	if err := checkKeys(config, s); err != nil {
		return nil, err
	}

	out := make(map[string]any, len(config))
	for key, value := range config {
		out[defs[key].Meta().Param] = value
	}
	return out, nil
}

// PrepareConfig validates raw against the model's schemas, applying
// defaults, then transforms it to wire params.
func PrepareConfig(raw map[string]any, s Configured) (map[string]any, error) {
	if err := checkKeys(raw, s); err != nil {
		return nil, err
	}

	parsed, err := s.ModelConfig().Validate(raw)
	if err != nil {
		return nil, api.InvalidRequestError("invalid config", err)
	}
	return TransformConfig(parsed, s)
}

func checkKeys(config map[string]any, s Configured) error {
	cfg := s.ModelConfig()

	var unknown []string
	for key := range config {
		if _, ok := cfg.Def[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) == 0 {
		return nil
	}

	sort.Strings(unknown)
	return api.InvalidRequestError("invalid config key", &InvalidConfigKeyError{
		Keys:  unknown,
		Valid: cfg.Keys(),
	})
}
