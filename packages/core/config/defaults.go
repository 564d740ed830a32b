package config

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		ReadTimeout:     3000,
		ConnectTimeout:  3000,
		FollowRedirects: BoolPtr(true),
		MaxRedirects:    10,
		NoColor:         BoolPtr(false),
	}
}
