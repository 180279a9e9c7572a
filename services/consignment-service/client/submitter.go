package client

import (
	"context"

	"github.com/tradeguard/platform/services/consignment-service/intake"
	"github.com/tradeguard/platform/services/consignment-service/shipment"
)

// SessionSubmitter binds a client to one session so an intake.Form can
// submit and resolve HS codes through it.
type SessionSubmitter struct {
	Client  *Client
	Session Session
}

var (
	_ intake.Submitter      = SessionSubmitter{}
	_ intake.HSCodeResolver = SessionSubmitter{}
)

func (s SessionSubmitter) Submit(ctx context.Context, sub intake.Submission) (intake.SubmitResult, error) {
	return s.Client.Submit(ctx, s.Session, sub)
}

func (s SessionSubmitter) ResolveHSCode(ctx context.Context, mainCategory, subCategory string, destination shipment.Country) (string, error) {
	return s.Client.ResolveHSCode(ctx, s.Session, mainCategory, subCategory, destination)
}
