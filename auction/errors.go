// Copyright (c) 2020 The Meter.io developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package auction

import "errors"

// Every failure condition gets its own sentinel so callers can tell them
// apart. Any failure aborts the whole operation with no partial state
// change.
var (
	ErrNotApprovedOperator = errors.New("registry is not the approved operator of the deed")
	ErrInvalidAuction      = errors.New("invalid auction id")
	ErrOwnerCannotBid      = errors.New("auction owner cannot bid")
	ErrExpired             = errors.New("auction deadline has passed")
	ErrNotEnded            = errors.New("auction deadline not reached yet")
	ErrBidTooLow           = errors.New("bid amount too low")
	ErrNotOwner            = errors.New("caller is not the auction owner")
	ErrNotCanceled         = errors.New("auction is not canceled")
	ErrTransferFailed      = errors.New("fund transfer failed")
	ErrReentrantCall       = errors.New("reentrant call into auction registry")
	ErrNoBid               = errors.New("no bid yet")
)
