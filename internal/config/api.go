package config

import (
	"fmt"
	"os"

	"github.com/vermlab/laudo/pkg/formatting"
	"github.com/vermlab/laudo/pkg/middleware"
	"github.com/vermlab/laudo/pkg/pagination"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "LAUDO_CORS_ENABLED",
	Origins:          "LAUDO_CORS_ORIGINS",
	AllowedMethods:   "LAUDO_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "LAUDO_CORS_ALLOWED_HEADERS",
	AllowCredentials: "LAUDO_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "LAUDO_CORS_MAX_AGE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "LAUDO_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "LAUDO_PAGINATION_MAX_PAGE_SIZE",
}

// APIConfig holds API routing, CORS, and pagination settings. PublicBaseURL
// is the externally reachable prefix encoded into loading order QR codes.
type APIConfig struct {
	BasePath      string                `toml:"base_path"`
	PublicBaseURL string                `toml:"public_base_url"`
	MaxUploadSize string                `toml:"max_upload_size"`
	CORS          middleware.CORSConfig `toml:"cors"`
	Pagination    pagination.Config     `toml:"pagination"`
}

func (c *APIConfig) MaxUploadSizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxUploadSize)
	if err != nil {
		return 50 * 1024 * 1024 // 50MB fallback
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested CORS and pagination configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.PublicBaseURL != "" {
		c.PublicBaseURL = overlay.PublicBaseURL
	}
	if overlay.MaxUploadSize != "" {
		c.MaxUploadSize = overlay.MaxUploadSize
	}

	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.PublicBaseURL == "" {
		c.PublicBaseURL = "http://localhost:8080"
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = "50MB"
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv("LAUDO_API_BASE_PATH"); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv("LAUDO_API_PUBLIC_BASE_URL"); v != "" {
		c.PublicBaseURL = v
	}
	if v := os.Getenv("LAUDO_API_MAX_UPLOAD_SIZE"); v != "" {
		c.MaxUploadSize = v
	}
}
