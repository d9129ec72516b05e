package decline

import (
	"strings"

	"github.com/crushpad/terminal-service/internal/domain"
	pkgerrors "github.com/crushpad/terminal-service/pkg/errors"
)

// Classify turns a raw gateway reply into a normalized outcome. It is a pure
// function: identical replies always classify identically, which is what
// makes reconciliation safe across repeated polls.
//
// Interpretation is two-tier. The gateway's own envelope is consulted first;
// if it reports failure the outcome is an error built from the envelope's own
// message and the card-network code is never consulted. Only on envelope
// success is the host response code looked up in the static table.
func Classify(reply *domain.GatewayReply) domain.Outcome {
	if reply == nil {
		return domain.Outcome{
			Status:     domain.SaleStatusError,
			Code:       "",
			Category:   pkgerrors.CategoryNetworkError,
			Message:    "NO RESPONSE",
			Definition: "The gateway returned no parseable reply.",
		}
	}

	if !reply.EnvelopeOK() {
		msg := reply.StatusMessage
		if msg == "" {
			msg = "GATEWAY ERROR"
		}
		return domain.Outcome{
			Status:         domain.SaleStatusError,
			Code:           reply.ResultCode,
			Category:       pkgerrors.CategoryGatewayError,
			Message:        msg,
			Definition:     "The gateway reported a failure in its own envelope before the card network was consulted.",
			GatewayMessage: reply.StatusMessage,
		}
	}

	info := Lookup(reply.HostResponseCode)
	return domain.Outcome{
		Status:         info.Status,
		Code:           info.Code,
		Category:       info.Category,
		Message:        info.Display,
		Definition:     info.Definition,
		GatewayMessage: reply.HostMessage,
	}
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
