package config

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	BaseURL     string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	DatabaseURL string `env:"DATABASE_URL"`

	JWT    JWT    `envPrefix:"JWT_"`
	Stripe Stripe `envPrefix:"STRIPE_"`
	Mail   Mail   `envPrefix:"MAIL_"`
}

type Stripe struct {
	BaseApiURL    string `env:"BASE_API_URL" envDefault:"https://api.stripe.com"`
	SecretKey     string `env:"SECRET_KEY"`
	WebhookSecret string `env:"WEBHOOK_SECRET"`
}

type JWT struct {
	Secret     string `env:"SECRET"`
	ExpiryHour int    `env:"EXPIRY_HOUR" envDefault:"72"`
}

type Mail struct {
	BaseApiURL string `env:"BASE_API_URL"`
	APIKey     string `env:"API_KEY"`
	FromEmail  string `env:"FROM_EMAIL" envDefault:"orders@marketplace.local"`
	FromName   string `env:"FROM_NAME" envDefault:"Marketplace"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}
