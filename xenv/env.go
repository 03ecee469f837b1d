// Copyright (c) 2020 The Meter.io developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package xenv

import (
	"fmt"

	"github.com/meterio/deed-auction/deed"
)

// TransactionContext carries the call-level facts a registry operation
// needs: who called and the wall-clock time the deadline checks are
// evaluated against. Funds never ride on the call itself; bid amounts
// are explicit operation parameters and move through ledger debits.
type TransactionContext struct {
	ID     deed.Bytes32
	Origin deed.Address
	Time   uint64
	Nonce  uint64
}

func (ctx *TransactionContext) String() string {
	return fmt.Sprintf("txCtx{ID:%s Origin:%s Time:%d Nonce:%d}",
		ctx.ID.String(), ctx.Origin.String(), ctx.Time, ctx.Nonce)
}
