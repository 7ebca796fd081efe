package portal

import (
	"fmt"
	"strings"

	"github.com/garyjia/classwallet-submitter/internal/domain/entity"
)

// ConfirmationPage is what ConfirmationJS returns
type ConfirmationPage struct {
	URL          string   `json:"url"`
	Success      []string `json:"success"`
	Confirmation []string `json:"confirmation"`
	Errors       []string `json:"errors"`
}

// Classify decides whether the page confirms or rejects the submission.
// ok is false while the page shows neither.
func (a *Adapter) Classify(page ConfirmationPage) (conf entity.Confirmation, ok bool) {
	all := strings.ToLower(strings.Join(append(append([]string{}, page.Success...), page.Confirmation...), " "))
	for _, kw := range a.SuccessKeywords {
		if strings.Contains(all, kw) {
			msg := "Submission confirmed"
			switch {
			case len(page.Success) > 0:
				msg = page.Success[0]
			case len(page.Confirmation) > 0:
				msg = page.Confirmation[0]
			}
			return entity.Confirmation{Status: entity.ConfirmationConfirmed, Message: msg}, true
		}
	}

	if len(page.Errors) > 0 {
		return entity.Confirmation{Status: entity.ConfirmationRejected, Message: page.Errors[0]}, true
	}
	return entity.Confirmation{}, false
}

// Unconfirmed is the result recorded when polling times out
func Unconfirmed(url string) entity.Confirmation {
	msg := "No confirmation shown by the portal before timeout; submission is unconfirmed"
	if url != "" {
		msg = fmt.Sprintf("%s (last page %s)", msg, url)
	}
	return entity.Confirmation{Status: entity.ConfirmationUnconfirmed, Message: msg}
}
