// Package portal holds every ClassWallet-specific selector, label, and page
// script. A portal redesign should only require changes in this package.
package portal

import (
	"strings"

	"github.com/garyjia/classwallet-submitter/internal/browser"
	"github.com/garyjia/classwallet-submitter/internal/domain/entity"
)

const (
	DefaultLoginURL      = "https://esaportal.azed.gov/ApplicantPortal"
	DefaultPortalURL     = "https://saml.classwallet.com/"
	DefaultFundingSource = "Arizona - ESA"

	// esaFundingSourceValue is the checkbox value ClassWallet renders for the ESA purse
	esaFundingSourceValue = "5de682872a2f835d4a700e9d"
)

// Settings are the deployment-specific values of an adapter
type Settings struct {
	LoginURL       string
	PortalURL      string
	FundingSource  string
	StudentAliases map[string]string
}

// Adapter is the selector table for one version of the portal markup
type Adapter struct {
	Name string

	LoginURL  string
	PortalURL string

	// identity provider
	UsernameInput browser.Selector
	PasswordInput browser.Selector
	LoginButton   browser.Selector

	// student switcher
	StudentMenu    browser.Selector
	SwitchUserItem browser.Selector

	// reimbursement form
	StartReimbursement  browser.Selector
	StoreInput          browser.Selector
	ReimbursementAmount browser.Selector
	NextButton          browser.Selector

	// direct pay form
	PayVendorTile      browser.Selector
	VendorSearchInputs []browser.Selector
	VendorLabels       browser.Selector
	VendorConfirmPay   browser.Selector
	DirectPayAmountBox browser.Selector
	DirectPayAmount    browser.Selector
	DirectPayNext      browser.Selector
	DirectPayComments  browser.Selector
	DirectPayInvoice   browser.Selector

	// documents
	FileInput       browser.Selector
	ImageEditorSave browser.Selector

	// funding source and category
	FundingSource         string
	CategoryCheckboxInner string
	CategoryDebugList     browser.Selector

	// reimbursement details
	POInput       browser.Selector
	CommentsInput browser.Selector

	ReimbursementSubmit []browser.Selector
	DirectPaySubmit     []browser.Selector

	// confirmation page
	SuccessSelectors      string
	ConfirmationSelectors string
	ErrorSelectors        string
	SuccessKeywords       []string

	aliases map[string]string
}

// ClassWalletV1 returns the adapter for the current ClassWallet markup
func ClassWalletV1(s Settings) *Adapter {
	a := &Adapter{
		Name:      "classwallet-v1",
		LoginURL:  s.LoginURL,
		PortalURL: s.PortalURL,

		UsernameInput: browser.ID("userNameInput").Named("username"),
		PasswordInput: browser.ID("passwordInput").Named("password"),
		LoginButton:   browser.ID("submitButton").Named("sign in"),

		StudentMenu:    browser.ID("openMenu").Named("user menu"),
		SwitchUserItem: browser.XPath("//span[contains(text(), 'Switch to user')]/parent::div/parent::li").Named("switch to user"),

		StartReimbursement:  browser.CSS("button[data-test='start-reimbursement']").Named("start reimbursement"),
		StoreInput:          browser.ID("store").Named("store name"),
		ReimbursementAmount: browser.XPath("//div[@data-test='Amount']//input[@type='text']").Named("amount"),
		NextButton:          browser.CSS("button[data-test='Next']").Named("next"),

		PayVendorTile: browser.XPath("//div[@id='pay-vendor-tile']//button[contains(., 'Pay')]").Named("pay vendor"),
		VendorSearchInputs: []browser.Selector{
			browser.CSS("input[type='search']").Named("vendor search"),
			browser.CSS("input[name='vendorSearch']").Named("vendor search"),
			browser.CSS("input[placeholder*='Search']").Named("vendor search"),
			browser.XPath("//input[@placeholder[contains(., 'vendor')]]").Named("vendor search"),
			browser.CSS("input.form-control").Named("vendor search"),
		},
		VendorLabels:       browser.CSS("div[class*='listLabel']").Named("vendor results"),
		VendorConfirmPay:   browser.XPath("//button[contains(text(), 'Pay')]").Named("confirm vendor"),
		DirectPayAmountBox: browser.CSS("[name='amount']").Named("amount field"),
		DirectPayAmount:    browser.ID("amount").Named("amount"),
		DirectPayNext:      browser.ID("next").Named("next"),
		DirectPayComments:  browser.CSS("span[data-test-type='comments'] textarea").Named("comments"),
		DirectPayInvoice:   browser.CSS("span[data-test-type='invoice-or-quote'] input").Named("invoice or quote number"),

		FileInput:       browser.XPath("//input[@type='file']").Named("file input"),
		ImageEditorSave: browser.CSS("button[data-test='Save']").Named("image editor save"),

		FundingSource:         s.FundingSource,
		CategoryCheckboxInner: "span[class*='MuiCheckbox-root']",
		CategoryDebugList:     browser.XPath("//div[@data-test]"),

		POInput:       browser.XPath("//input[@aria-label='PO Number']").Named("PO number"),
		CommentsInput: browser.XPath("//textarea[@aria-label='Comments']").Named("comments"),

		ReimbursementSubmit: []browser.Selector{
			browser.CSS("button[data-test='Submit']").Named("submit"),
			browser.XPath("//button[contains(text(), 'Submit')]").Named("submit"),
			browser.XPath("//button[@aria-label='Submit']").Named("submit"),
		},
		DirectPaySubmit: []browser.Selector{
			browser.ID("next").Named("submit"),
		},

		SuccessSelectors:      `[role="alert"], .success, .alert-success, [class*="success"]`,
		ConfirmationSelectors: `h1, h2, h3, [class*="confirmation"], [class*="receipt"]`,
		ErrorSelectors:        `[role="alert"].error, .error, .alert-danger, [class*="error"]`,
		SuccessKeywords:       []string{"submitted", "success", "confirmed", "accepted", "received", "completed"},

		aliases: make(map[string]string, len(s.StudentAliases)),
	}

	if a.LoginURL == "" {
		a.LoginURL = DefaultLoginURL
	}
	if a.PortalURL == "" {
		a.PortalURL = DefaultPortalURL
	}
	if a.FundingSource == "" {
		a.FundingSource = DefaultFundingSource
	}
	for k, v := range s.StudentAliases {
		a.aliases[strings.ToLower(k)] = v
	}
	return a
}

// DisplayName resolves a configured short name to the name shown in the
// portal. Unknown names are returned unchanged.
func (a *Adapter) DisplayName(student string) string {
	if full, ok := a.aliases[strings.ToLower(strings.TrimSpace(student))]; ok && full != "" {
		return full
	}
	return student
}

// StudentItem selects the switch-user menu entry for a display name
func (a *Adapter) StudentItem(displayName string) browser.Selector {
	return browser.XPath("//span[contains(text(), " + browser.XPathLiteral(displayName) + ")]/parent::div/parent::li").
		Named("student " + displayName)
}

// StudentLabel matches any span showing the display name
func (a *Adapter) StudentLabel(displayName string) browser.Selector {
	return browser.XPath("//span[contains(text(), " + browser.XPathLiteral(displayName) + ")]").
		Named("active student")
}

// FundingSourceCheckboxes lists the locators for the funding source, most specific first
func (a *Adapter) FundingSourceCheckboxes() []browser.Selector {
	lit := browser.XPathLiteral(a.FundingSource)
	sels := []browser.Selector{
		browser.XPath("//span[@data-test=" + lit + " and @aria-label=" + lit + "]"),
		browser.XPath("//span[@data-test=" + lit + " and contains(@class, 'MuiCheckbox-root')]"),
	}
	if a.FundingSource == DefaultFundingSource {
		sels = append(sels, browser.XPath("//input[@type='checkbox'][@value='"+esaFundingSourceValue+"']"))
	}
	sels = append(sels, browser.XPath("//span[@aria-label="+lit+"]"))

	for i := range sels {
		sels[i] = sels[i].Named("funding source")
	}
	return sels
}

// SubmitControls returns the submit locators to try for a request type
func (a *Adapter) SubmitControls(t entity.RequestType) []browser.Selector {
	if t == entity.RequestDirectPay {
		return a.DirectPaySubmit
	}
	return a.ReimbursementSubmit
}
