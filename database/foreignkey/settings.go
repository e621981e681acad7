package foreignkey

import (
	"fmt"
	"strings"

	"github.com/galaplate/fixtures/config"
	"github.com/go-playground/validator/v10"
)

const (
	AutoID              = "auto"
	InformationSchemaID = "information_schema"
)

// Settings selects the managers that bracket a fixture operation.
type Settings struct {
	// Managers lists manager identifiers in the order they are applied.
	Managers []string `validate:"dive,oneof=auto mysql mariadb postgresql oracle mssql hsqldb h2 sqlite information_schema"`
	// URL, when set, pins the vendor chosen for "auto" instead of detecting it per connection.
	URL string
}

var validate = validator.New()

// LoadSettings reads fixtures.foreign_keys.managers and fixtures.foreign_keys.url.
func LoadSettings(cfg *config.Manager) (Settings, error) {
	var s Settings
	for _, id := range cfg.GetStrings("fixtures.foreign_keys.managers") {
		s.Managers = append(s.Managers, strings.ToLower(strings.TrimSpace(id)))
	}
	s.URL = strings.TrimSpace(cfg.GetString("fixtures.foreign_keys.url"))

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate rejects manager identifiers outside the supported set.
func (s Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			return fmt.Errorf("invalid foreign key manager %q", errs[0].Value())
		}
		return fmt.Errorf("invalid foreign key settings: %w", err)
	}
	return nil
}

type factory func(s Settings, registry *Registry) (Manager, error)

var factories = map[string]factory{
	AutoID: func(s Settings, registry *Registry) (Manager, error) {
		if s.URL == "" {
			return NewAutoManager(registry), nil
		}
		vendor, ok := registry.FindByURL(s.URL)
		if !ok {
			return nil, &UnsupportedEngineError{URL: s.URL}
		}
		return vendor.NewManager(), nil
	},
	InformationSchemaID: func(Settings, *Registry) (Manager, error) {
		return NewVendorManager(InformationSchemaID, InformationSchema{}), nil
	},
}

// NewManagers builds one fresh manager per identifier in s, resolving vendors
// through DefaultRegistry.
func NewManagers(s Settings) ([]Manager, error) {
	return DefaultRegistry.NewManagers(s)
}

// NewManagers builds one fresh manager per identifier in s.
func (r *Registry) NewManagers(s Settings) ([]Manager, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	managers := make([]Manager, 0, len(s.Managers))
	for _, id := range s.Managers {
		if build, ok := factories[id]; ok {
			m, err := build(s, r)
			if err != nil {
				return nil, err
			}
			managers = append(managers, m)
			continue
		}

		vendor, ok := r.Lookup(id)
		if !ok {
			return nil, fmt.Errorf("unknown foreign key manager %q", id)
		}
		managers = append(managers, vendor.NewManager())
	}

	return managers, nil
}
