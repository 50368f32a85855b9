package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	dserrors "github.com/systmms/loginrotate/internal/errors"
	"github.com/systmms/loginrotate/internal/logging"
	"github.com/systmms/loginrotate/pkg/password"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// Recognized configuration keys.
const (
	KeyConnection     = "ConnectionStrings:SqlConnection"
	KeyLogin          = "SqlSettings:LoginToUpdate"
	KeyGenerate       = "SqlSettings:GenerateRandomPassword"
	KeyNewPassword    = "SqlSettings:NewPassword"
	KeyProvider       = "SqlSettings:Provider"
	KeyPasswordLength = "SqlSettings:PasswordLength"
	KeyLoginHost      = "SqlSettings:LoginHost"
	KeyLoginPattern   = "SqlSettings:LoginPattern"
)

const (
	// DefaultPath is the settings file read when --config is not given.
	DefaultPath = "appsettings.json"

	// EnvPrefix marks environment overrides. "__" separates sections, so
	// LOGINROTATE_SqlSettings__NewPassword overrides SqlSettings:NewPassword.
	EnvPrefix = "LOGINROTATE_"

	// DefaultLoginHost is the MySQL account host used when none is configured.
	DefaultLoginHost = "%"
)

//go:embed schema.json
var schemaJSON string

// Config holds the runtime configuration
type Config struct {
	Path   string
	Logger *logging.Logger

	// Environ returns the process environment; os.Environ when nil.
	Environ func() []string

	values   Values
	settings *Settings
}

// Settings is the read-only view handed to the rotator.
type Settings struct {
	ConnectionString       string
	Provider               string
	LoginToUpdate          string
	GenerateRandomPassword bool
	NewPassword            string
	PasswordLength         int
	LoginHost              string
	LoginPattern           string
}

// Values is a flattened, case-insensitive view of every configured key.
type Values map[string]string

// Get returns the value for a colon-separated key.
func (v Values) Get(key string) string {
	return v[strings.ToLower(key)]
}

// Keys returns the stored keys, lower-cased and sorted.
func (v Values) Keys() []string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (v Values) set(key, value string) {
	v[strings.ToLower(key)] = value
}

// Load reads the settings file, validates it against the schema, applies
// environment overrides and builds Settings.
func (c *Config) Load() error {
	if c.Logger == nil {
		c.Logger = logging.Discard()
	}

	doc, err := readDocument(c.Path)
	if err != nil {
		return err
	}

	if err := validateDocument(doc); err != nil {
		return err
	}

	values := Values{}
	flatten("", doc, values)

	environ := c.Environ
	if environ == nil {
		environ = os.Environ
	}
	overrides := applyEnv(values, environ())
	if overrides > 0 {
		c.Logger.Debug("Applied %d environment override(s) with prefix %s", overrides, EnvPrefix)
	}

	settings, err := buildSettings(values)
	if err != nil {
		return err
	}

	c.values = values
	c.settings = settings
	c.Logger.Debug("Loaded %d setting(s) from %s: %s", len(values), c.Path, strings.Join(values.Keys(), ", "))
	return nil
}

// Settings returns the loaded settings. It must be called after Load.
func (c *Config) Settings() (Settings, error) {
	if c.settings == nil {
		return Settings{}, dserrors.UserError{
			Message:    "Configuration not loaded",
			Suggestion: "This is an internal error. Please report it",
		}
	}
	return *c.settings, nil
}

// Values returns the flattened key/value view produced by Load.
func (c *Config) Values() Values {
	return c.values
}

func readDocument(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, dserrors.ConfigError{
				Field:      "path",
				Value:      path,
				Message:    "configuration file not found",
				Suggestion: "Run 'loginrotate init' to create a new configuration file",
				Err:        err,
			}
		}
		return nil, dserrors.SimplifyError(err)
	}

	doc := map[string]interface{}{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	default:
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, parseError(path, err)
	}
	return doc, nil
}

// parseError maps decoder failures to a ConfigError with a suggestion.
func parseError(path string, err error) error {
	switch simplified := dserrors.SimplifyError(err).(type) {
	case dserrors.ConfigError:
		simplified.Field = "path"
		simplified.Value = path
		return simplified
	case dserrors.UserError:
		return simplified
	}
	return dserrors.ConfigError{
		Field:      "path",
		Value:      path,
		Message:    "configuration file could not be parsed",
		Suggestion: "The top level must be an object with ConnectionStrings and SqlSettings sections",
		Err:        err,
	}
}

func validateDocument(doc map[string]interface{}) error {
	// yaml.v3 yields map[interface{}]interface{} for sections with
	// non-string keys, which encoding/json rejects.
	jsonData, err := json.Marshal(normalize(doc))
	if err != nil {
		return fmt.Errorf("failed to marshal configuration for validation: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schemaJSON),
		gojsonschema.NewBytesLoader(jsonData),
	)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		var errorMessages []string
		for _, desc := range result.Errors() {
			errorMessages = append(errorMessages, desc.String())
		}
		sort.Strings(errorMessages)
		return dserrors.ConfigError{
			Message:    "schema validation failed:\n  - " + strings.Join(errorMessages, "\n  - "),
			Suggestion: "Compare your settings file with the output of 'loginrotate init'",
		}
	}
	return nil
}

func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	default:
		return v
	}
}

// flatten turns nested sections into colon-separated keys.
func flatten(prefix string, v interface{}, out Values) {
	join := func(k string) string {
		if prefix == "" {
			return k
		}
		return prefix + ":" + k
	}

	switch t := v.(type) {
	case map[string]interface{}:
		for k, val := range t {
			flatten(join(k), val, out)
		}
	case map[interface{}]interface{}:
		for k, val := range t {
			flatten(join(fmt.Sprint(k)), val, out)
		}
	case []interface{}:
		for i, val := range t {
			flatten(join(strconv.Itoa(i)), val, out)
		}
	case nil:
		// null values are treated as absent
	case string:
		out.set(prefix, t)
	case bool:
		out.set(prefix, strconv.FormatBool(t))
	case float64:
		out.set(prefix, strconv.FormatFloat(t, 'f', -1, 64))
	default:
		out.set(prefix, fmt.Sprint(t))
	}
}

func applyEnv(values Values, environ []string) int {
	n := 0
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || len(name) <= len(EnvPrefix) || !strings.EqualFold(name[:len(EnvPrefix)], EnvPrefix) {
			continue
		}
		key := strings.ReplaceAll(name[len(EnvPrefix):], "__", ":")
		values.set(key, value)
		n++
	}
	return n
}

func buildSettings(values Values) (*Settings, error) {
	s := &Settings{
		ConnectionString: strings.TrimSpace(values.Get(KeyConnection)),
		Provider:         strings.ToLower(strings.TrimSpace(values.Get(KeyProvider))),
		LoginToUpdate:    strings.TrimSpace(values.Get(KeyLogin)),
		NewPassword:      values.Get(KeyNewPassword),
		PasswordLength:   password.DefaultLength,
		LoginHost:        values.Get(KeyLoginHost),
		LoginPattern:     values.Get(KeyLoginPattern),
	}

	generate, err := parseBool(KeyGenerate, values.Get(KeyGenerate))
	if err != nil {
		return nil, err
	}
	s.GenerateRandomPassword = generate

	if raw := strings.TrimSpace(values.Get(KeyPasswordLength)); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, dserrors.ConfigError{
				Field:      KeyPasswordLength,
				Value:      raw,
				Message:    "value is not an integer",
				Suggestion: fmt.Sprintf("Use a whole number such as %d", password.DefaultLength),
				Err:        err,
			}
		}
		s.PasswordLength = n
	}

	if s.LoginHost == "" {
		s.LoginHost = DefaultLoginHost
	}
	return s, nil
}

// parseBool accepts "true" or "false" in any case, surrounded by optional
// whitespace. An empty value means false.
func parseBool(key, raw string) (bool, error) {
	v := strings.TrimSpace(raw)
	switch {
	case v == "":
		return false, nil
	case strings.EqualFold(v, "true"):
		return true, nil
	case strings.EqualFold(v, "false"):
		return false, nil
	}
	return false, dserrors.ConfigError{
		Field:      key,
		Value:      raw,
		Message:    "value is not a boolean",
		Suggestion: "Use true or false",
	}
}
