// Copyright (c) 2020 The Meter.io developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package auction

import (
	"bytes"
	"encoding/gob"

	"github.com/meterio/deed-auction/deed"
	"github.com/meterio/deed-auction/state"
)

// the global storage keys of the auction module
var (
	auctionListKey = deed.Blake2b([]byte("auction-list-key"))
)

func ownerIndexKey(owner deed.Address) deed.Bytes32 {
	return deed.Blake2b([]byte("auction-owner-index"), owner.Bytes())
}

// GetAuctionList loads the full auction collection from state.
func (r *Registry) GetAuctionList(state *state.State) (result *AuctionList) {
	state.DecodeStorage(deed.AuctionModuleAddr, auctionListKey, func(raw []byte) error {
		decoder := gob.NewDecoder(bytes.NewBuffer(raw))
		var list AuctionList
		err := decoder.Decode(&list)
		if err != nil {
			if err.Error() == "EOF" && len(raw) == 0 {
				// empty raw, do nothing
			} else {
				r.logger.Warn("error during decoding auction list, set it as an empty list", "err", err)
			}
			result = &AuctionList{}
			return nil
		}
		result = &list
		return nil
	})
	return
}

// SetAuctionList stores the full auction collection into state.
func (r *Registry) SetAuctionList(list *AuctionList, state *state.State) {
	state.EncodeStorage(deed.AuctionModuleAddr, auctionListKey, func() ([]byte, error) {
		buf := bytes.NewBuffer([]byte{})
		encoder := gob.NewEncoder(buf)
		err := encoder.Encode(list)
		return buf.Bytes(), err
	})
}

// GetOwnerIndex loads the auction ids created for deeds of the given owner.
func (r *Registry) GetOwnerIndex(owner deed.Address, state *state.State) (ids []uint64) {
	state.DecodeStorage(deed.AuctionModuleAddr, ownerIndexKey(owner), func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		decoder := gob.NewDecoder(bytes.NewBuffer(raw))
		return decoder.Decode(&ids)
	})
	return
}

// SetOwnerIndex stores the per-owner auction id index.
func (r *Registry) SetOwnerIndex(owner deed.Address, ids []uint64, state *state.State) {
	state.EncodeStorage(deed.AuctionModuleAddr, ownerIndexKey(owner), func() ([]byte, error) {
		buf := bytes.NewBuffer([]byte{})
		encoder := gob.NewEncoder(buf)
		err := encoder.Encode(ids)
		return buf.Bytes(), err
	})
}
