package handler

import "referearn/internal/referral/models"

// CreateResponse is the body of a successful POST /api/referrals.
type CreateResponse struct {
	Message  string           `json:"message"`
	Referral *models.Referral `json:"referral"`
}
