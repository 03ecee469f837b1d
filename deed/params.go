// Copyright (c) 2020 The Meter.io developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package deed

// Token kinds carried by transfer logs. The registry escrows the native
// token only.
const (
	NATIVE = byte(0)
)

// Auction status codes. Transitions are one-way: an auction leaves OPEN
// for exactly one of FINALIZED or CANCELED and never comes back.
const (
	AUCTION_OPEN      = uint8(0)
	AUCTION_FINALIZED = uint8(1)
	AUCTION_CANCELED  = uint8(2)
)

// GetStatusName returns a display name for an auction status code.
func GetStatusName(status uint8) string {
	switch status {
	case AUCTION_OPEN:
		return "Open"
	case AUCTION_FINALIZED:
		return "Finalized"
	case AUCTION_CANCELED:
		return "Canceled"
	default:
		return "Unknown"
	}
}

// Module accounts. Escrowed bid funds are held under AuctionModuleAddr
// until refunded or paid out; DeedRegistryAddr namespaces the deed
// ownership records in state storage.
var (
	// 0x6374696f6e2d6d6f64756c652d61646472657373
	AuctionModuleAddr = BytesToAddress([]byte("auction-module-address"))
	// 0x6565642d72656769737472792d61646472657373
	DeedRegistryAddr = BytesToAddress([]byte("deed-registry-address"))
)

// First auction id handed out by the registry. Ids are 1-based and
// pre-incremented; id 0 is never valid.
const AuctionIDOrigin = uint64(1)
