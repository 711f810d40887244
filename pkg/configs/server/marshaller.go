package server

import (
	"os"

	xe "github.com/opst/libris/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Load reads a config file and environment variables.
//
// # Args
//
// - filepath: filepath refers a config file.
//
// # Returns
//
// - *ServerConfig: sealed config
//
// - error: when the file cannot be read or parsed.
//
// It panics when the config is parsed but misconfigured.
func Load(filepath string) (*ServerConfig, error) {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return nil, xe.Wrap(err)
	}
	return Unmarshal(content, os.Getenv)
}

// Unmarshal parses a yaml config and overwrites secrets with getenv.
func Unmarshal(conf []byte, getenv func(string) string) (*ServerConfig, error) {
	_out := new(ServerConfigMarshall)
	if err := yaml.Unmarshal(conf, _out); err != nil {
		return nil, xe.Wrap(err)
	}
	if getenv != nil {
		_out.applyEnv(getenv)
	}
	return TrySeal[*ServerConfig](_out), nil
}
