// Copyright 2025 The go-tmlight Authors
// This file is part of go-tmlight.
//
// go-tmlight is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-tmlight is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-tmlight. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// config mirrors the TOML configuration file. Command line flags override
// any value set here.
type config struct {
	ChainID        string       `toml:"chain-id"`
	Primary        string       `toml:"primary"`
	TrustHeight    int64        `toml:"trust-height"`
	TrustHash      string       `toml:"trust-hash"`
	TrustingPeriod tomlDuration `toml:"trusting-period"`
	ClockDrift     tomlDuration `toml:"clock-drift"`
	DBPath         string       `toml:"db"`
	Pruning        int          `toml:"pruning"`
}

// tomlDuration parses Go duration syntax ("168h") from TOML strings.
type tomlDuration time.Duration

func (d *tomlDuration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = tomlDuration(parsed)
	return nil
}

func loadConfig(path string) (*config, error) {
	var cfg config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config %s contains unknown key %q", path, undecoded[0])
	}
	return &cfg, nil
}
