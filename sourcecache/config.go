/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package sourcecache

import (
	"time"

	spfvpr "github.com/spf13/viper"
)

// Config is the source cache's configuration surface, unmarshalled from the
// "cache" key of a *viper.Viper instance.
type Config struct {
	Dir            string        `mapstructure:"dir"`
	CreateDirs     bool          `mapstructure:"create_dirs"`
	Mirrors        []string      `mapstructure:"mirrors"`
	HTTPTimeout    time.Duration `mapstructure:"http_timeout"`
	HTTPRetries    int           `mapstructure:"http_retries"`
	VCSInteractive bool          `mapstructure:"vcs_interactive"`

	// TLSRootCAFiles, if set, are loaded as additional trusted root CAs for
	// the HTTPS download client, on top of the system pool.
	TLSRootCAFiles []string `mapstructure:"tls_root_ca_files"`
	// TLSServerName overrides the SNI/verification name presented to the
	// download client's TLS handshake; empty uses each request's own host.
	TLSServerName string `mapstructure:"tls_server_name"`
}

// DefaultConfig returns the configuration used when a viper instance has no
// "cache" key set at all.
func DefaultConfig() Config {
	return Config{
		CreateDirs:     true,
		HTTPTimeout:    30 * time.Second,
		HTTPRetries:    3,
		VCSInteractive: false,
	}
}

// LoadConfig unmarshals the "cache" key of v into a Config, starting from
// DefaultConfig so a caller only needs to set the keys they care about.
func LoadConfig(v *spfvpr.Viper) (Config, error) {
	cfg := DefaultConfig()

	if v == nil || !v.IsSet("cache") {
		return cfg, nil
	}

	if err := v.UnmarshalKey("cache", &cfg); err != nil {
		return Config{}, ErrorConfigInvalid.Error(err)
	}

	return cfg, cfg.Validate()
}

// Validate reports whether the configuration is usable as-is.
func (c Config) Validate() error {
	if c.Dir == "" {
		return ErrorConfigInvalid.Errorf("cache.dir is required")
	}
	if c.HTTPRetries < 0 {
		return ErrorConfigInvalid.Errorf("cache.http_retries must not be negative")
	}
	if c.HTTPTimeout <= 0 {
		return ErrorConfigInvalid.Errorf("cache.http_timeout must be positive")
	}
	return nil
}
