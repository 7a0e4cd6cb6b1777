package telephony

import (
	"context"
	"strconv"

	"fieldservice-crm/internal/config"

	"github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// TwilioGateway places outbound calls through the Twilio REST API.
type TwilioGateway struct {
	client *twilio.RestClient
}

// NewTwilioGateway builds the gateway from config. Missing credentials
// produce a gateway that refuses every dial with twilio_not_configured
// instead of failing process boot; the refusal is recorded on the session.
func NewTwilioGateway(cfg config.TwilioConfig) *TwilioGateway {
	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return &TwilioGateway{}
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &TwilioGateway{client: client}
}

func (g *TwilioGateway) Name() string { return "twilio" }

// Dial asks Twilio to create the call. The SDK call is synchronous but only
// covers acceptance; lifecycle transitions arrive on the status callback.
func (g *TwilioGateway) Dial(ctx context.Context, req DialRequest) (DialResult, error) {
	if g.client == nil {
		return DialResult{}, &DialError{
			Code:    ErrCodeNotConfigured,
			Message: "twilio credentials are not configured",
		}
	}

	params := &twilioapi.CreateCallParams{}
	params.SetTo(req.To)
	params.SetFrom(req.From)
	params.SetUrl(req.VoiceURL)
	params.SetMethod("POST")
	params.SetStatusCallback(req.StatusCallbackURL)
	params.SetStatusCallbackMethod("POST")
	params.SetStatusCallbackEvent([]string{"initiated", "ringing", "answered", "completed"})
	if req.MachineDetection {
		// DetectMessageEnd waits for the voicemail beep so a message can be
		// left when the speech plan allows it.
		params.SetMachineDetection("DetectMessageEnd")
	}
	if req.RecordCall {
		params.SetRecord(true)
		params.SetRecordingStatusCallback(req.RecordingCallbackURL)
		params.SetRecordingStatusCallbackMethod("POST")
	}

	resp, err := g.client.Api.CreateCall(params)
	if err != nil {
		if restErr, ok := err.(*twilioclient.TwilioRestError); ok {
			return DialResult{}, &DialError{
				Code:                 ErrCodeCallFailed,
				Message:              "twilio rejected the call",
				ProviderErrorCode:    strconv.Itoa(restErr.Code),
				ProviderErrorMessage: restErr.Message,
			}
		}
		return DialResult{}, &DialError{
			Code:                 ErrCodeCallFailed,
			Message:              "twilio call creation failed",
			ProviderErrorMessage: err.Error(),
		}
	}

	out := DialResult{InitialStatus: "queued"}
	if resp.Sid != nil {
		out.ProviderCallID = *resp.Sid
	}
	if resp.Status != nil && *resp.Status != "" {
		out.InitialStatus = *resp.Status
	}
	if out.ProviderCallID == "" {
		return DialResult{}, &DialError{
			Code:    ErrCodeCallFailed,
			Message: "twilio accepted the call but returned no call SID",
		}
	}
	return out, nil
}
