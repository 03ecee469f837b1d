// Copyright (c) 2020 The Meter.io developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"github.com/meterio/deed-auction/deed"
)

// Event represents a contract event log.
// Topics[0] identifies the event signature, the rest carry indexed values.
type Event struct {
	Address deed.Address
	Topics  []deed.Bytes32
	Data    []byte
}

// Events slice of event logs.
type Events []*Event
