package config

import (
	"github.com/kelseyhightower/envconfig"
)

// App holds runtime configuration loaded from the environment.
type App struct {
	// HTTP
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`
	// DB
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	// Sessions
	JWTSecret    string `envconfig:"JWT_SECRET" required:"true"`
	JWTExpireMin int    `envconfig:"JWT_EXPIRE_MIN" default:"1440"`
	// AdminEmails is a comma-separated allow-list used only for
	// diagnostics; it never grants privilege on its own.
	AdminEmails []string `envconfig:"ADMIN_EMAILS"`
}

func Load() (App, error) {
	var c App
	err := envconfig.Process("", &c)
	return c, err
}
