// Copyright (c) 2020 The Meter.io developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package deeds

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/meterio/deed-auction/api/utils"
	"github.com/meterio/deed-auction/deed"
	"github.com/meterio/deed-auction/deedtracker"
	"github.com/meterio/deed-auction/state"
	"github.com/pkg/errors"
)

type Deed struct {
	ID       deed.Bytes32 `json:"id"`
	Name     string       `json:"name"`
	Owner    deed.Address `json:"owner"`
	Operator deed.Address `json:"operator"`
}

type Deeds struct {
	creator *state.Creator
}

func New(creator *state.Creator) *Deeds {
	return &Deeds{creator}
}

func (d *Deeds) tracker() (*deedtracker.DeedTracker, error) {
	st, err := d.creator.NewState()
	if err != nil {
		return nil, err
	}
	return deedtracker.New(deed.DeedRegistryAddr, st), nil
}

func (d *Deeds) handleGetDeedByID(w http.ResponseWriter, req *http.Request) error {
	id, err := deed.ParseBytes32(mux.Vars(req)["id"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "id"))
	}
	tracker, err := d.tracker()
	if err != nil {
		return err
	}
	owner, err := tracker.OwnerOf(id)
	if err != nil {
		return utils.HTTPError(err, http.StatusNotFound)
	}
	operator, err := tracker.ApprovedOperator(id)
	if err != nil {
		return err
	}
	name, err := tracker.GetName(id)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Deed{
		ID:       id,
		Name:     name,
		Owner:    owner,
		Operator: operator,
	})
}

func (d *Deeds) handleGetDeedsOfOwner(w http.ResponseWriter, req *http.Request) error {
	owner, err := deed.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	tracker, err := d.tracker()
	if err != nil {
		return err
	}
	deeds := make([]*Deed, 0)
	for _, id := range tracker.DeedsOf(owner) {
		operator, err := tracker.ApprovedOperator(id)
		if err != nil {
			return err
		}
		name, err := tracker.GetName(id)
		if err != nil {
			return err
		}
		deeds = append(deeds, &Deed{
			ID:       id,
			Name:     name,
			Owner:    owner,
			Operator: operator,
		})
	}
	return utils.WriteJSON(w, deeds)
}

func (d *Deeds) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.Path("/owner/{address}").Methods("GET").HandlerFunc(utils.WrapHandlerFunc(d.handleGetDeedsOfOwner))
	sub.Path("/{id}").Methods("GET").HandlerFunc(utils.WrapHandlerFunc(d.handleGetDeedByID))
}
