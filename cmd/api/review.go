package main

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	venuereviews "reviewhub/internal/domain/venuereview"
	"reviewhub/internal/helpers"
	"reviewhub/internal/params"
	"reviewhub/internal/service/review"
	"reviewhub/internal/validation"

	"github.com/go-chi/chi/v5"
)

type reviewPayload struct {
	Service    int    `json:"service"`
	Ambience   int    `json:"ambience"`
	Value      int    `json:"value"`
	Experience int    `json:"experience"`
	Comment    string `json:"comment"`
}

func (p reviewPayload) scores() review.Scores {
	return review.Scores{
		Service:    p.Service,
		Ambience:   p.Ambience,
		Value:      p.Value,
		Experience: p.Experience,
	}
}

func parseIDParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}

// reviewIDParam accepts either the numeric ID or its public ref.
func (app *application) reviewIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "reviewID")
	if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
		return id, nil
	}
	if app.refs != nil {
		if id, err := app.refs.Decode(raw); err == nil {
			return id, nil
		}
	}
	return 0, errors.New("invalid reviewID")
}

// CreateVenueReview godoc
//
//	@Summary		Review an event occurrence
//	@Description	Creates the caller's review of a recurring event held at the venue.
//	@Tags			reviews
//	@Accept			json
//	@Produce		json
//	@Param			venueID	path		int				true	"Venue ID"
//	@Param			eventID	path		int				true	"Event ID"
//	@Param			payload	body		reviewPayload	true	"Scores and comment"
//	@Success		201		{object}	helpers.ReviewDTO
//	@Failure		400		{object}	error
//	@Failure		404		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/venues/{venueID}/events/{eventID}/reviews [post]
func (app *application) createVenueReviewHandler(w http.ResponseWriter, r *http.Request) {
	venueID, err := parseIDParam(r, "venueID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	eventID, err := parseIDParam(r, "eventID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload reviewPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	created, err := app.reviews.Create(r.Context(), review.CreateInput{
		UserID:  requesterID(r),
		VenueID: venueID,
		EventID: eventID,
		Scores:  payload.scores(),
		Comment: payload.Comment,
	})
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, helpers.ToReviewDTO(*created, app.refs)); err != nil {
		app.internalServerError(w, r, err)
	}
}

// GetVenueReviews godoc
//
//	@Summary		List venue reviews
//	@Description	view=public (default), author (caller's own) or steward (venue managers and admins).
//	@Tags			reviews
//	@Produce		json
//	@Param			venueID			path		int		true	"Venue ID"
//	@Param			view			query		string	false	"public | author | steward"
//	@Param			sort			query		string	false	"date | rating"
//	@Param			order			query		string	false	"asc | desc"
//	@Param			page			query		int		false	"Page number"
//	@Param			limit			query		int		false	"Page size"
//	@Param			include_deleted	query		bool	false	"Steward view only: include removed reviews"
//	@Success		200				{object}	map[string]any
//	@Router			/venues/{venueID}/reviews [get]
func (app *application) getVenueReviewsHandler(w http.ResponseWriter, r *http.Request) {
	venueID, err := parseIDParam(r, "venueID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	q := r.URL.Query()
	pagination := params.ParsePagination(q)
	sorting := params.ParseSorting(q)

	page, err := app.reviews.List(r.Context(), review.ListQuery{
		VenueID:        venueID,
		RequesterID:    requesterID(r),
		Projection:     venuereviews.Projection(q.Get("view")),
		IncludeDeleted: params.ParseBool(q, "include_deleted"),
		Sort:           venuereviews.SortField(sorting.Field),
		Order:          venuereviews.SortOrder(sorting.Order),
		Page:           pagination.Page,
		Limit:          pagination.Limit,
	})
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}
	pagination.ComputeMeta(page.Total)

	response := map[string]any{
		"reviews":    helpers.ToReviewDTOs(page.Reviews, app.refs),
		"pagination": pagination,
	}
	if err := app.jsonResponse(w, http.StatusOK, response); err != nil {
		app.internalServerError(w, r, err)
	}
}

// EditVenueReview godoc
//
//	@Summary		Edit own review
//	@Description	Authors may edit within 24 hours of creating the review.
//	@Tags			reviews
//	@Accept			json
//	@Produce		json
//	@Param			reviewID	path		string			true	"Review ID or ref"
//	@Param			payload		body		reviewPayload	true	"Scores and comment"
//	@Success		200			{object}	helpers.ReviewDTO
//	@Failure		403			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/reviews/{reviewID} [patch]
func (app *application) editVenueReviewHandler(w http.ResponseWriter, r *http.Request) {
	reviewID, err := app.reviewIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload reviewPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	edited, err := app.reviews.Edit(r.Context(), review.EditInput{
		ReviewID: reviewID,
		AuthorID: requesterID(r),
		Scores:   payload.scores(),
		Comment:  payload.Comment,
	})
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, helpers.ToReviewDTO(*edited, app.refs)); err != nil {
		app.internalServerError(w, r, err)
	}
}

// DeleteVenueReview godoc
//
//	@Summary	Delete own review
//	@Tags		reviews
//	@Param		reviewID	path	string	true	"Review ID or ref"
//	@Success	200			{object}	map[string]string
//	@Security	ApiKeyAuth
//	@Router		/reviews/{reviewID} [delete]
func (app *application) deleteVenueReviewHandler(w http.ResponseWriter, r *http.Request) {
	reviewID, err := app.reviewIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.reviews.AuthorDelete(r.Context(), reviewID, requesterID(r)); err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]string{"message": "review deleted"})
}

type visibilityPayload struct {
	Hidden *bool `json:"hidden" validate:"required"`
}

// SetReviewVisibility godoc
//
//	@Summary	Hide or unhide a review
//	@Tags		moderation
//	@Accept		json
//	@Param		reviewID	path	string				true	"Review ID or ref"
//	@Param		payload		body	visibilityPayload	true	"Visibility"
//	@Success	200			{object}	map[string]any
//	@Security	ApiKeyAuth
//	@Router		/reviews/{reviewID}/visibility [put]
func (app *application) setReviewVisibilityHandler(w http.ResponseWriter, r *http.Request) {
	reviewID, err := app.reviewIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload visibilityPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := validation.Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, errors.New("hidden is required"))
		return
	}

	if err := app.reviews.SetHidden(r.Context(), reviewID, requesterID(r), *payload.Hidden); err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]any{"hidden": *payload.Hidden})
}

// ModeratorDeleteReview godoc
//
//	@Summary	Remove a review as venue manager
//	@Tags		moderation
//	@Param		reviewID	path	string	true	"Review ID or ref"
//	@Success	200			{object}	map[string]string
//	@Security	ApiKeyAuth
//	@Router		/reviews/{reviewID}/moderation [delete]
func (app *application) moderatorDeleteReviewHandler(w http.ResponseWriter, r *http.Request) {
	reviewID, err := app.reviewIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.reviews.ManagerDelete(r.Context(), reviewID, requesterID(r)); err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]string{"message": "review removed"})
}

// GetVenueRating godoc
//
//	@Summary	Venue aggregate rating
//	@Tags		reviews
//	@Param		venueID	path	int	true	"Venue ID"
//	@Success	200		{object}	map[string]any
//	@Router		/venues/{venueID}/rating [get]
func (app *application) getVenueRatingHandler(w http.ResponseWriter, r *http.Request) {
	venueID, err := parseIDParam(r, "venueID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	avg, err := app.reviews.CurrentAggregate(r.Context(), venueID)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]any{
		"venue_id":       venueID,
		"average_rating": math.Round(avg*10) / 10,
	})
}
