package env

import (
	"errors"
	"io/fs"
	"os"
	"sync"

	"github.com/joho/godotenv"
)

var loadOnce sync.Once

// Get returns the environment value for key, loading .env from the working
// directory on first use. Values already present in the environment win.
func Get(key string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	loadOnce.Do(func() {
		if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
			os.Stderr.WriteString("Error loading .env file: " + err.Error() + "\n")
		}
	})

	return os.Getenv(key)
}

// Load reads the given env files without overriding variables that are already set.
func Load(files ...string) error {
	return godotenv.Load(files...)
}
