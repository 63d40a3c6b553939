package models

import (
	dErrors "referearn/pkg/domain-errors"
)

// MsgAllFieldsRequired is the validation message returned to clients.
const MsgAllFieldsRequired = "All fields are required"

// Submission is a client request to create a referral.
type Submission struct {
	ReferrerName  string `json:"referrerName"`
	ReferrerEmail string `json:"referrerEmail"`
	RefereeName   string `json:"refereeName"`
	RefereeEmail  string `json:"refereeEmail"`
	Course        string `json:"course"`
}

// Validate checks presence only: a field fails when it is absent or empty.
// Values are not trimmed and email addresses are not syntax-checked.
func (s *Submission) Validate() error {
	if s == nil {
		return dErrors.New(dErrors.CodeValidation, MsgAllFieldsRequired)
	}
	for _, v := range []string{s.ReferrerName, s.ReferrerEmail, s.RefereeName, s.RefereeEmail, s.Course} {
		if v == "" {
			return dErrors.New(dErrors.CodeValidation, MsgAllFieldsRequired)
		}
	}
	return nil
}

// ToNewReferral validates s and returns the pending record to persist.
func (s *Submission) ToNewReferral() (NewReferral, error) {
	if err := s.Validate(); err != nil {
		return NewReferral{}, err
	}
	return NewReferral{
		ReferrerName:  s.ReferrerName,
		ReferrerEmail: s.ReferrerEmail,
		RefereeName:   s.RefereeName,
		RefereeEmail:  s.RefereeEmail,
		Course:        s.Course,
		Status:        StatusPending,
	}, nil
}
