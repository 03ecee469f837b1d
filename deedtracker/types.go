// Copyright (c) 2020 The Meter.io developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package deedtracker

import (
	"fmt"

	"github.com/meterio/deed-auction/deed"
)

// DeedRecord is the persisted form of one deed: its current owner and the
// single approved operator (zero address when none is set).
type DeedRecord struct {
	Owner    deed.Address
	Operator deed.Address
	Name     string
}

func (r *DeedRecord) ToString() string {
	return fmt.Sprintf("DeedRecord(owner=%v, operator=%v, name=%v)",
		r.Owner, r.Operator, r.Name)
}

// Exists reports whether the record refers to an assigned deed.
func (r *DeedRecord) Exists() bool {
	return !r.Owner.IsZero()
}
