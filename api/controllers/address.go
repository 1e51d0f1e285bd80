package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/oneclickretail/oneclick-backend/api/responses"
	"github.com/oneclickretail/oneclick-backend/api/validators"
	"github.com/oneclickretail/oneclick-backend/internal/address"
	"github.com/oneclickretail/oneclick-backend/pkg/db/models"
	pkgerrors "github.com/oneclickretail/oneclick-backend/pkg/errors"
	"github.com/oneclickretail/oneclick-backend/pkg/logger"
)

type addressRequest struct {
	Name    string  `json:"name" validate:"required"`
	Phone   string  `json:"phone" validate:"required"`
	Line1   string  `json:"line1" validate:"required"`
	Line2   *string `json:"line2,omitempty"`
	City    string  `json:"city" validate:"required"`
	State   string  `json:"state" validate:"required"`
	Pincode string  `json:"pincode" validate:"required"`
}

type addressResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Line1     string    `json:"line1"`
	Line2     *string   `json:"line2,omitempty"`
	City      string    `json:"city"`
	State     string    `json:"state"`
	Pincode   string    `json:"pincode"`
	IsCurrent bool      `json:"is_current"`
}

func (req addressRequest) toInput() address.AddressInput {
	return address.AddressInput{
		Name:    req.Name,
		Phone:   req.Phone,
		Line1:   req.Line1,
		Line2:   req.Line2,
		City:    req.City,
		State:   req.State,
		Pincode: req.Pincode,
	}
}

func newAddressResponse(row models.UserAddress) addressResponse {
	return addressResponse{
		ID:        row.ID,
		Name:      row.Name,
		Phone:     row.Phone,
		Line1:     row.Line1,
		Line2:     row.Line2,
		City:      row.City,
		State:     row.State,
		Pincode:   row.Pincode,
		IsCurrent: row.IsCurrent,
	}
}

func addressIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "addressId"))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid address id")
	}
	return id, nil
}

// AddressList returns the customer's address book.
func AddressList(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}

		uid, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.List(r.Context(), uid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]addressResponse, 0, len(rows))
		for _, row := range rows {
			out = append(out, newAddressResponse(row))
		}
		responses.WriteSuccess(w, map[string][]addressResponse{"addresses": out})
	}
}

// AddressCreate adds an address; the first one becomes current.
func AddressCreate(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}

		uid, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body addressRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := svc.Create(r.Context(), uid, body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newAddressResponse(*row))
	}
}

// AddressUpdate rewrites one address book entry.
func AddressUpdate(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}

		uid, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addressID, err := addressIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body addressRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := svc.Update(r.Context(), uid, addressID, body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newAddressResponse(*row))
	}
}

// AddressDelete removes one entry.
func AddressDelete(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}

		uid, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addressID, err := addressIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), uid, addressID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"message": "Address deleted."})
	}
}

// AddressMakeCurrent flips the current flag to the chosen entry.
func AddressMakeCurrent(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}

		uid, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addressID, err := addressIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.MakeCurrent(r.Context(), uid, addressID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"message": "Address set as current."})
	}
}
