package config

type Config struct {
	EnvConfig *EnvConfig
}

func NewConfig() (*Config, error) {
	envConfig, err := LoadEnvConfig()
	if err != nil {
		return nil, err
	}
	return &Config{EnvConfig: envConfig}, nil
}
