package main

import (
	"net/http"
	"time"

	"reviewhub/internal/helpers"
	"reviewhub/internal/validation"
)

type assignStewardPayload struct {
	UserID    int64      `json:"user_id" validate:"required,gt=0"`
	StartDate *time.Time `json:"start_date"`
}

// AssignSteward godoc
//
//	@Summary		Make a user steward of a venue
//	@Description	start_date defaults to now. Fails if the user already stewards the venue.
//	@Tags			admin-stewards
//	@Accept			json
//	@Produce		json
//	@Param			venueID	path		int						true	"Venue ID"
//	@Param			payload	body		assignStewardPayload	true	"Grant"
//	@Success		201		{object}	helpers.GrantDTO
//	@Failure		400		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/admin/venues/{venueID}/stewards [post]
func (app *application) assignStewardHandler(w http.ResponseWriter, r *http.Request) {
	venueID, err := parseIDParam(r, "venueID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload assignStewardPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := validation.Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var start time.Time
	if payload.StartDate != nil {
		start = *payload.StartDate
	}

	grant, err := app.stewards.AssignSteward(r.Context(), venueID, payload.UserID, requesterID(r), start)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, helpers.ToGrantDTO(*grant, app.now())); err != nil {
		app.internalServerError(w, r, err)
	}
}

// RevokeSteward godoc
//
//	@Summary	End a user's stewardship of a venue
//	@Tags		admin-stewards
//	@Param		venueID	path	int	true	"Venue ID"
//	@Param		userID	path	int	true	"User ID"
//	@Success	200		{object}	map[string]string
//	@Failure	409		{object}	error	"Not an active steward"
//	@Security	ApiKeyAuth
//	@Router		/admin/venues/{venueID}/stewards/{userID} [delete]
func (app *application) revokeStewardHandler(w http.ResponseWriter, r *http.Request) {
	venueID, err := parseIDParam(r, "venueID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	userID, err := parseIDParam(r, "userID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.stewards.RevokeSteward(r.Context(), venueID, userID, requesterID(r)); err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]string{"message": "steward revoked"})
}

// ListVenueStewards godoc
//
//	@Summary	Stewardship history of a venue
//	@Tags		admin-stewards
//	@Param		venueID	path	int	true	"Venue ID"
//	@Success	200		{array}	helpers.GrantDTO
//	@Security	ApiKeyAuth
//	@Router		/admin/venues/{venueID}/stewards [get]
func (app *application) listVenueStewardsHandler(w http.ResponseWriter, r *http.Request) {
	venueID, err := parseIDParam(r, "venueID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	grants, err := app.stewards.History(r.Context(), venueID)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, helpers.ToGrantDTOs(grants, app.now())); err != nil {
		app.internalServerError(w, r, err)
	}
}

// GetMyStewardships godoc
//
//	@Summary	Venues the caller currently manages, with the caller's roles
//	@Tags		users
//	@Success	200	{object}	myStewardships
//	@Security	ApiKeyAuth
//	@Router		/users/me/stewardships [get]
func (app *application) getMyStewardshipsHandler(w http.ResponseWriter, r *http.Request) {
	venueIDs, err := app.stewards.StewardedVenues(r.Context(), requesterID(r))
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}
	if venueIDs == nil {
		venueIDs = []int64{}
	}
	roles, err := app.stewards.Roles(r.Context(), requesterID(r))
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, myStewardships{VenueIDs: venueIDs, Roles: roles}); err != nil {
		app.internalServerError(w, r, err)
	}
}

type myStewardships struct {
	VenueIDs []int64  `json:"venue_ids"`
	Roles    []string `json:"roles"`
}
