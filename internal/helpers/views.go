package helpers

import (
	"time"

	"reviewhub/internal/domain/stewardship"
	venuereviews "reviewhub/internal/domain/venuereview"
)

type ReviewDTO struct {
	ID               int64               `json:"id"`
	Ref              string              `json:"ref"`
	VenueID          int64               `json:"venue_id"`
	EventID          int64               `json:"event_id"`
	UserID           int64               `json:"user_id"`
	UserName         string              `json:"user_name,omitempty"`
	Occurrence       int                 `json:"occurrence"`
	Comment          string              `json:"comment"`
	Rating           venuereviews.Rating `json:"rating"`
	HiddenByManager  bool                `json:"hidden_by_manager"`
	DeletedByManager bool                `json:"deleted_by_manager"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// ToReviewDTO shapes a review for responses. The ref is left empty when it
// cannot be encoded.
func ToReviewDTO(r venuereviews.Review, refs *RefCodec) ReviewDTO {
	var ref string
	if refs != nil {
		ref, _ = refs.Encode(r.ID)
	}
	return ReviewDTO{
		ID:               r.ID,
		Ref:              ref,
		VenueID:          r.VenueID,
		EventID:          r.EventID,
		UserID:           r.UserID,
		UserName:         r.UserName,
		Occurrence:       r.Occurrence,
		Comment:          r.Comment,
		Rating:           r.Rating,
		HiddenByManager:  r.HiddenByManager,
		DeletedByManager: r.DeletedByManager,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

func ToReviewDTOs(rs []venuereviews.Review, refs *RefCodec) []ReviewDTO {
	out := make([]ReviewDTO, 0, len(rs))
	for _, r := range rs {
		out = append(out, ToReviewDTO(r, refs))
	}
	return out
}

type GrantDTO struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	VenueID   int64      `json:"venue_id"`
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	GrantedBy int64      `json:"granted_by"`
	RevokedBy *int64     `json:"revoked_by,omitempty"`
	Active    bool       `json:"active"`
}

func ToGrantDTO(g stewardship.Grant, now time.Time) GrantDTO {
	return GrantDTO{
		ID:        g.ID,
		UserID:    g.UserID,
		VenueID:   g.VenueID,
		StartDate: g.StartDate,
		EndDate:   g.EndDate,
		GrantedBy: g.GrantedBy,
		RevokedBy: g.RevokedBy,
		Active:    g.ActiveAt(now),
	}
}

func ToGrantDTOs(gs []stewardship.Grant, now time.Time) []GrantDTO {
	out := make([]GrantDTO, 0, len(gs))
	for _, g := range gs {
		out = append(out, ToGrantDTO(g, now))
	}
	return out
}
