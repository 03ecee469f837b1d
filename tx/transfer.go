// Copyright (c) 2020 The Meter.io developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"math/big"

	"github.com/meterio/deed-auction/deed"
)

// Transfer token transfer log.
type Transfer struct {
	Sender    deed.Address
	Recipient deed.Address
	Amount    *big.Int
	Token     byte
}

// Transfers slice of transfer logs.
type Transfers []*Transfer
