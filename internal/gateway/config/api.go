package config

import "time"

// APIConfig - адреса и таймауты бэкенда NEXUS.
// ServerURL используется шлюзом, PublicURL отдается клиентам вне сервера.
type APIConfig struct {
	ServerURL   string        `yaml:"server_url" env:"NEXUS_API_SERVER_URL"`
	PublicURL   string        `yaml:"public_url" env:"NEXUS_API_PUBLIC_URL"`
	Timeout     time.Duration `yaml:"timeout" env:"NEXUS_API_TIMEOUT" env-default:"30s"`
	RefreshSkew time.Duration `yaml:"refresh_skew" env:"NEXUS_API_REFRESH_SKEW" env-default:"60s"`
	ReadRetries int           `yaml:"read_retries" env:"NEXUS_API_READ_RETRIES" env-default:"2"`
}

// SessionConfig - cookie и время жизни сессии шлюза.
type SessionConfig struct {
	CookieName string        `yaml:"cookie_name" env:"GATEWAY_SESSION_COOKIE" env-default:"nexus_session"`
	TTL        time.Duration `yaml:"ttl" env:"GATEWAY_SESSION_TTL" env-default:"168h"`
	Secure     bool          `yaml:"secure" env:"GATEWAY_SESSION_SECURE" env-default:"true"`
	KeyPrefix  string        `yaml:"key_prefix" env:"GATEWAY_SESSION_KEY_PREFIX" env-default:"nexus:session:"`
}

// CulqiConfig - токенизация карт через Culqi.
type CulqiConfig struct {
	BaseURL   string        `yaml:"base_url" env:"CULQI_BASE_URL" env-default:"https://secure.culqi.com"`
	PublicKey string        `yaml:"public_key" env:"CULQI_PUBLIC_KEY"`
	Timeout   time.Duration `yaml:"timeout" env:"CULQI_TIMEOUT" env-default:"15s"`
}

// Enabled сообщает, задан ли ключ Culqi.
func (c *CulqiConfig) Enabled() bool {
	return c.PublicKey != ""
}
