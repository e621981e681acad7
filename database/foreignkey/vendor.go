package foreignkey

import (
	"database/sql"
	"fmt"
	"slices"
	"strings"

	"github.com/galaplate/fixtures/database"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
)

const jdbcPrefix = "jdbc:"

// Vendor describes one database engine: the URL prefixes that select it, the
// database/sql driver names that serve it and how to build its strategy.
type Vendor struct {
	Name        string
	Prefixes    []string
	DriverNames []string
	// Dialector builds a gorm dialector from a URL without its jdbc: prefix.
	// It is nil for engines without a gorm dialector.
	Dialector   func(url string) gorm.Dialector
	NewStrategy func() Strategy
}

// Matches reports whether url selects this vendor. A leading jdbc: is ignored.
func (v *Vendor) Matches(url string) bool {
	u := strings.ToLower(TrimJDBC(url))
	for _, prefix := range v.Prefixes {
		if strings.HasPrefix(u, prefix) {
			return true
		}
	}
	return false
}

// NewManager returns a fresh manager running this vendor's strategy.
func (v *Vendor) NewManager() *VendorManager {
	return NewVendorManager(v.Name, v.NewStrategy())
}

// DriverRegistered reports whether one of the vendor's database/sql drivers
// has been registered in this process. Open refuses vendors that declare
// driver names when none of them is registered.
func (v *Vendor) DriverRegistered() bool {
	registered := sql.Drivers()
	for _, name := range v.DriverNames {
		if slices.Contains(registered, name) {
			return true
		}
	}
	return false
}

// TrimJDBC strips a leading jdbc: from url.
func TrimJDBC(url string) string {
	if len(url) >= len(jdbcPrefix) && strings.EqualFold(url[:len(jdbcPrefix)], jdbcPrefix) {
		return url[len(jdbcPrefix):]
	}
	return url
}

// Registry is an ordered, read-only table of vendors.
type Registry struct {
	vendors []Vendor
}

// NewRegistry returns a registry that matches vendors in the given order.
func NewRegistry(vendors ...Vendor) *Registry {
	return &Registry{vendors: slices.Clone(vendors)}
}

// FindByURL returns the first vendor whose prefix matches url.
func (r *Registry) FindByURL(url string) (*Vendor, bool) {
	for i := range r.vendors {
		if r.vendors[i].Matches(url) {
			return &r.vendors[i], true
		}
	}
	return nil, false
}

// Lookup returns the vendor registered under name.
func (r *Registry) Lookup(name string) (*Vendor, bool) {
	for i := range r.vendors {
		if r.vendors[i].Name == name {
			return &r.vendors[i], true
		}
	}
	return nil, false
}

// Names lists vendor names in registry order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.vendors))
	for _, v := range r.vendors {
		names = append(names, v.Name)
	}
	return names
}

// Open connects to url with the matching vendor's gorm dialector.
func (r *Registry) Open(url string, opts ...database.OptFunc) (*database.Connection, error) {
	vendor, ok := r.FindByURL(url)
	if !ok {
		return nil, &UnsupportedEngineError{URL: url}
	}
	if vendor.Dialector == nil {
		return nil, fmt.Errorf("%w %s", ErrNoDialector, vendor.Name)
	}
	if len(vendor.DriverNames) > 0 && !vendor.DriverRegistered() {
		return nil, fmt.Errorf("%w %s (want one of %s)", ErrNoDriver, vendor.Name, strings.Join(vendor.DriverNames, ", "))
	}

	return database.Open(vendor.Dialector(TrimJDBC(url)), url, opts...)
}

// Open connects through DefaultRegistry.
func Open(url string, opts ...database.OptFunc) (*database.Connection, error) {
	return DefaultRegistry.Open(url, opts...)
}

// trimScheme removes the first matching "<scheme>://" or "<scheme>:" prefix.
func trimScheme(url string, schemes ...string) string {
	for _, s := range schemes {
		for _, p := range []string{s + "://", s + ":"} {
			if strings.HasPrefix(strings.ToLower(url), p) {
				return url[len(p):]
			}
		}
	}
	return url
}

var (
	MySQLVendor = Vendor{
		Name:        "mysql",
		Prefixes:    []string{"mysql:"},
		DriverNames: []string{"mysql"},
		Dialector: func(url string) gorm.Dialector {
			return mysql.Open(trimScheme(url, "mysql"))
		},
		NewStrategy: func() Strategy { return MySQL{} },
	}

	MariaDBVendor = Vendor{
		Name:        "mariadb",
		Prefixes:    []string{"mariadb:"},
		DriverNames: []string{"mysql"},
		Dialector: func(url string) gorm.Dialector {
			return mysql.Open(trimScheme(url, "mariadb"))
		},
		NewStrategy: func() Strategy { return MariaDB{} },
	}

	PostgreSQLVendor = Vendor{
		Name:        "postgresql",
		Prefixes:    []string{"postgresql:", "postgres:"},
		DriverNames: []string{"pgx", "postgres"},
		Dialector: func(url string) gorm.Dialector {
			return postgres.Open(url)
		},
		NewStrategy: func() Strategy { return PostgreSQL{} },
	}

	OracleVendor = Vendor{
		Name:        "oracle",
		Prefixes:    []string{"oracle:"},
		DriverNames: []string{"oracle", "godror"},
		NewStrategy: func() Strategy { return Oracle{} },
	}

	MSSQLVendor = Vendor{
		Name:        "mssql",
		Prefixes:    []string{"sqlserver:", "mssql:"},
		DriverNames: []string{"sqlserver", "mssql"},
		Dialector: func(url string) gorm.Dialector {
			return sqlserver.Open("sqlserver://" + trimScheme(url, "sqlserver", "mssql"))
		},
		NewStrategy: func() Strategy { return MSSQL{} },
	}

	HSQLDBVendor = Vendor{
		Name:        "hsqldb",
		Prefixes:    []string{"hsqldb:"},
		NewStrategy: func() Strategy { return HSQLDB{} },
	}

	H2Vendor = Vendor{
		Name:        "h2",
		Prefixes:    []string{"h2:"},
		NewStrategy: func() Strategy { return H2{} },
	}

	SQLiteVendor = Vendor{
		Name:        "sqlite",
		Prefixes:    []string{"sqlite3:", "sqlite:"},
		DriverNames: []string{"sqlite3", "sqlite"},
		Dialector: func(url string) gorm.Dialector {
			return sqlite.Open(trimScheme(url, "sqlite3", "sqlite"))
		},
		NewStrategy: func() Strategy { return SQLite{} },
	}
)

// DefaultRegistry holds every supported engine.
var DefaultRegistry = NewRegistry(
	MySQLVendor,
	MariaDBVendor,
	PostgreSQLVendor,
	OracleVendor,
	MSSQLVendor,
	HSQLDBVendor,
	H2Vendor,
	SQLiteVendor,
)
