package policy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/upb/compliance-data-agent/models"
	"go.uber.org/zap"
)

// Decision is the outcome of a policy consultation for a gated operation.
type Decision struct {
	Allowed  bool
	Decision string // models.DecisionAllow or models.DecisionDeny
	Reason   string
}

// checkRequest is the wire format sent to the policy oracle.
type checkRequest struct {
	Action   string           `json:"action"`
	Resource string           `json:"resource"`
	User     checkRequestUser `json:"user"`
}

type checkRequestUser struct {
	Role string `json:"role"`
}

// checkResponse is the wire format returned by the policy oracle.
type checkResponse struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// Oracle consults an external policy service before destructive operations.
//
// The failure posture is asymmetric on purpose: with no oracle configured
// every gated operation is allowed, but once an oracle URL is set any
// transport error, timeout, or non-200 response denies the operation.
type Oracle struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewOracle creates a new Oracle. An empty baseURL disables consultation.
func NewOracle(baseURL string, timeout time.Duration, logger *zap.Logger) *Oracle {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Oracle{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Configured reports whether an oracle URL is set.
func (o *Oracle) Configured() bool {
	return o.baseURL != ""
}

// Check asks the oracle whether the actor role may perform action on
// resource. It returns a Decision, never an error: callers act on the
// decision, and the transport failure mode is folded into it.
func (o *Oracle) Check(ctx context.Context, action, resource, role string) Decision {
	if o.baseURL == "" {
		return Decision{
			Allowed:  true,
			Decision: models.DecisionAllow,
			Reason:   "oracle_not_configured",
		}
	}

	body, err := json.Marshal(checkRequest{
		Action:   action,
		Resource: resource,
		User:     checkRequestUser{Role: role},
	})
	if err != nil {
		return o.deny("oracle_request_encoding_failed", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL, bytes.NewReader(body))
	if err != nil {
		return o.deny("oracle_request_failed", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return o.deny("oracle_unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return o.deny("oracle_bad_status", fmt.Errorf("oracle returned status %d", resp.StatusCode))
	}

	var decoded checkResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return o.deny("oracle_response_invalid", err)
	}

	if !decoded.Allowed {
		reason := decoded.Reason
		if reason == "" {
			reason = "denied_by_policy"
		}
		return Decision{Allowed: false, Decision: models.DecisionDeny, Reason: reason}
	}

	reason := decoded.Reason
	if reason == "" {
		reason = "allowed_by_policy"
	}
	return Decision{Allowed: true, Decision: models.DecisionAllow, Reason: reason}
}

func (o *Oracle) deny(reason string, err error) Decision {
	o.logger.Warn("policy oracle check failed, denying",
		zap.String("reason", reason),
		zap.Error(err))
	return Decision{Allowed: false, Decision: models.DecisionDeny, Reason: reason}
}
