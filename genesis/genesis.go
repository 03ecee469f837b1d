// Copyright (c) 2020 The Meter.io developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"math/big"
	"os"

	"github.com/meterio/deed-auction/deed"
	"github.com/meterio/deed-auction/deedtracker"
	"github.com/meterio/deed-auction/state"
	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

// Account seeds one account balance.
type Account struct {
	Address string `yaml:"address"`
	Balance string `yaml:"balance"`
}

// Deed seeds one pre-minted deed. Operator is optional; when set the
// named address starts out as the deed's approved operator.
type Deed struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Owner    string `yaml:"owner"`
	Operator string `yaml:"operator,omitempty"`
}

// Config is the bootstrap file: initial balances and pre-minted deeds.
type Config struct {
	Accounts []Account `yaml:"accounts"`
	Deeds    []Deed    `yaml:"deeds"`
}

// Load reads a genesis config from a yaml file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read genesis file")
	}
	return Parse(data)
}

// Parse decodes a genesis config from yaml bytes.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "parse genesis file")
	}
	return &cfg, nil
}

// Build applies the config onto a fresh state: balances credited, deeds
// minted, operators approved. It refuses to run twice against the same
// store.
func (cfg *Config) Build(st *state.State) error {
	applied := st.GetRawStorage(deed.DeedRegistryAddr, appliedKey)
	if len(applied) != 0 {
		return ErrAlreadyApplied
	}

	tracker := deedtracker.New(deed.DeedRegistryAddr, st)
	for _, acc := range cfg.Accounts {
		addr, err := deed.ParseAddress(acc.Address)
		if err != nil {
			return errors.Wrapf(err, "account %v", acc.Address)
		}
		balance, ok := new(big.Int).SetString(acc.Balance, 10)
		if !ok {
			return errors.Errorf("account %v: bad balance %v", acc.Address, acc.Balance)
		}
		st.AddBalance(addr, balance)
	}

	for _, d := range cfg.Deeds {
		id, err := deed.ParseBytes32(d.ID)
		if err != nil {
			return errors.Wrapf(err, "deed %v", d.ID)
		}
		owner, err := deed.ParseAddress(d.Owner)
		if err != nil {
			return errors.Wrapf(err, "deed %v owner", d.ID)
		}
		if err := tracker.Mint(owner, id, d.Name); err != nil {
			return errors.Wrapf(err, "deed %v", d.ID)
		}
		if d.Operator != "" {
			operator, err := deed.ParseAddress(d.Operator)
			if err != nil {
				return errors.Wrapf(err, "deed %v operator", d.ID)
			}
			if err := tracker.Approve(owner, operator, id); err != nil {
				return errors.Wrapf(err, "deed %v", d.ID)
			}
		}
	}

	st.SetRawStorage(deed.DeedRegistryAddr, appliedKey, []byte{1})
	return st.Err()
}

var (
	appliedKey = deed.Blake2b([]byte("genesis-applied"))

	// ErrAlreadyApplied reports a store that has been bootstrapped before.
	ErrAlreadyApplied = errors.New("genesis already applied")
)
