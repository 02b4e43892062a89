package policies

import "context"

// Notifier delivers a templated message to a guest or the operator.
type Notifier interface {
	Send(ctx context.Context, to string, template string, data any) error
}

const (
	TemplateRequestReceived  = "booking_request_received"
	TemplateOperatorNewLead  = "operator_new_request"
	TemplateRequestConfirmed = "booking_request_confirmed"
	TemplateRequestCancelled = "booking_request_cancelled"
)
