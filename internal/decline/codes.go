package decline

import (
	"github.com/crushpad/terminal-service/internal/domain"
	pkgerrors "github.com/crushpad/terminal-service/pkg/errors"
)

// CodeInfo contains detailed information about a host response code
type CodeInfo struct {
	Code        string
	Display     string // short message shown on the register
	Definition  string // long-form definition shown to staff on request
	Status      domain.SaleStatus
	Category    pkgerrors.ErrorCategory
	IsRetriable bool
}

// hostResponseCodes maps the card network's two-character result code to its
// normalized outcome. Constructed once; read-only at runtime. Codes are
// stored upper-case and looked up case-insensitively.
var hostResponseCodes = map[string]CodeInfo{
	// Approvals. 00 is the canonical approval; 08, 11 and 85 are issuer
	// variants that still authorize the transaction.
	"00": {Code: "00", Display: "Approved", Definition: "Transaction approved by the issuer.", Status: domain.SaleStatusApproved, Category: pkgerrors.CategoryApproved},
	"08": {Code: "08", Display: "Approved with ID", Definition: "Honor with identification. The issuer approved the transaction but requests the cardholder be identified.", Status: domain.SaleStatusApproved, Category: pkgerrors.CategoryApproved},
	"11": {Code: "11", Display: "Approved (VIP)", Definition: "VIP approval issued without a full authorization cycle.", Status: domain.SaleStatusApproved, Category: pkgerrors.CategoryApproved},
	"85": {Code: "85", Display: "Approved", Definition: "No reason to decline. Returned for verification requests the issuer accepts.", Status: domain.SaleStatusApproved, Category: pkgerrors.CategoryApproved},

	// Partial outcomes. Partial authorization is not supported on this flow,
	// so both arrive as declines and the terminal reverses the hold.
	"10": {Code: "10", Display: "Partial approval", Definition: "The issuer approved a smaller amount than requested. Partial authorizations are not supported; the hold is reversed and the customer should use another card.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryDeclined},
	"32": {Code: "32", Display: "Completed partially", Definition: "The transaction completed partially at the switch. The outcome is ambiguous; verify with the processor.", Status: domain.SaleStatusError, Category: pkgerrors.CategorySystemError},

	// Referrals
	"01": {Code: "01", Display: "Call issuer", Definition: "Refer to card issuer. The issuer wants voice contact before approving.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryDeclined, IsRetriable: true},
	"02": {Code: "02", Display: "Call issuer", Definition: "Refer to card issuer, special condition.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryDeclined, IsRetriable: true},
	"60": {Code: "60", Display: "Contact acquirer", Definition: "The cardholder's bank asks the merchant to contact the acquirer.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryDeclined, IsRetriable: true},
	"66": {Code: "66", Display: "Call acquirer security", Definition: "The acquirer's security department must be contacted before this sale can proceed.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryDeclined},
	"70": {Code: "70", Display: "Contact issuer", Definition: "The issuer requires cardholder contact before further use of the card.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryDeclined},

	// Merchant / terminal configuration
	"03": {Code: "03", Display: "Invalid merchant", Definition: "The merchant number is not recognized by the processor. Usually a terminal configuration problem.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryInvalidRequest},
	"31": {Code: "31", Display: "Issuer not supported", Definition: "The card's issuing bank is not supported by the switch.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryInvalidRequest},
	"40": {Code: "40", Display: "Function not supported", Definition: "The requested function is not supported for this card or acquirer.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryInvalidRequest},
	"58": {Code: "58", Display: "Not permitted at terminal", Definition: "Transaction not permitted on this terminal. The terminal is not configured for this transaction class.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryInvalidRequest},
	"89": {Code: "89", Display: "Invalid terminal", Definition: "The terminal identifier is not recognized by the processor.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryInvalidRequest},
	"B1": {Code: "B1", Display: "Surcharge not permitted", Definition: "A surcharge amount is not permitted on this card brand.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryInvalidRequest},
	"B2": {Code: "B2", Display: "Surcharge not supported", Definition: "The debit network does not support a surcharge amount.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryInvalidRequest},

	// Pick-up / fraud family
	"04": {Code: "04", Display: "Pick up card", Definition: "The issuer wants the card retained. Do not return the card to the customer.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryFraud},
	"07": {Code: "07", Display: "Pick up card", Definition: "Pick up card, special condition. The issuer suspects fraud.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryFraud},
	"34": {Code: "34", Display: "Suspected fraud", Definition: "Suspected fraud, retain card.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryFraud},
	"35": {Code: "35", Display: "Contact acquirer", Definition: "Contact acquirer, retain card.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryFraud},
	"36": {Code: "36", Display: "Restricted card", Definition: "Restricted card, retain card.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryFraud},
	"37": {Code: "37", Display: "Call acquirer security", Definition: "Call acquirer security, retain card.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryFraud},
	"41": {Code: "41", Display: "Lost card", Definition: "The card has been reported lost. The customer must contact their bank.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryFraud},
	"43": {Code: "43", Display: "Stolen card", Definition: "The card has been reported stolen. The customer must contact their bank.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryFraud},
	"59": {Code: "59", Display: "Suspected fraud", Definition: "The issuer declined on suspicion of fraud. The customer must contact their bank.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryFraud},
	"63": {Code: "63", Display: "Security violation", Definition: "Security violation. The card may be flagged on a negative file.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryFraud},
	"67": {Code: "67", Display: "Card retained", Definition: "Hard capture. The card was retained by the terminal.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryFraud},
	"Q1": {Code: "Q1", Display: "Card authentication failed", Definition: "EMV card authentication failed at the issuer.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryFraud},
	"Q2": {Code: "Q2", Display: "Card data mismatch", Definition: "The chip's transaction counter or cryptogram data did not match the issuer's records.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryFraud},

	// Generic declines
	"05": {Code: "05", Display: "Declined", Definition: "Do not honor. The issuer declined without a specific reason; the customer should contact their bank.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryDeclined},
	"17": {Code: "17", Display: "Cancelled", Definition: "Customer cancellation. The cardholder cancelled at the terminal.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryDeclined},
	"18": {Code: "18", Display: "Customer dispute", Definition: "Customer dispute on file with the issuer.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryDeclined},
	"21": {Code: "21", Display: "Declined", Definition: "No action taken by the issuer.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryDeclined},
	"57": {Code: "57", Display: "Not permitted", Definition: "Transaction not permitted to this cardholder. The card cannot be used for this purchase type.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryDeclined},
	"61": {Code: "61", Display: "Exceeds limit", Definition: "The amount exceeds the card's withdrawal or purchase limit.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryDeclined, IsRetriable: true},
	"62": {Code: "62", Display: "Restricted card", Definition: "The card is restricted, commonly for region or merchant category.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryDeclined},
	"65": {Code: "65", Display: "Activity limit exceeded", Definition: "The card's transaction-count limit has been exceeded.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryDeclined, IsRetriable: true},
	"77": {Code: "77", Display: "Declined", Definition: "The issuer rejected the transaction against its prior records.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryDeclined},
	"87": {Code: "87", Display: "Cash back not allowed", Definition: "Purchase approved but cash back is not allowed on this card.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryDeclined},
	"88": {Code: "88", Display: "Information not on file", Definition: "The issuer has no supporting information on file for this request.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryDeclined},
	"93": {Code: "93", Display: "Declined", Definition: "Violation, cannot complete. The issuer blocked the transaction.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryDeclined},
	"99": {Code: "99", Display: "Declined", Definition: "General decline from the processing host.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryDeclined},
	"N5": {Code: "N5", Display: "Not eligible to retry", Definition: "The transaction is ineligible for resubmission; a prior decline was final.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryDeclined},
	"N8": {Code: "N8", Display: "Exceeds approved amount", Definition: "The amount exceeds the pre-authorized approval amount.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryDeclined},
	"V1": {Code: "V1", Display: "Daily limit exceeded", Definition: "The card's daily spending threshold has been exceeded.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryDeclined, IsRetriable: true},
	"Z1": {Code: "Z1", Display: "Declined offline", Definition: "The terminal declined offline without contacting the issuer.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryDeclined},
	"Z3": {Code: "Z3", Display: "Unable to go online", Definition: "The terminal could not reach the issuer and declined offline.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryDeclined, IsRetriable: true},
	"1A": {Code: "1A", Display: "Authentication required", Definition: "The issuer requires additional cardholder authentication before approving.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryDeclined, IsRetriable: true},

	// Funds
	"51": {Code: "51", Display: "Insufficient funds", Definition: "The account does not have sufficient funds for the transaction amount.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryInsufficientFunds, IsRetriable: true},
	"N4": {Code: "N4", Display: "Exceeds issuer limit", Definition: "The request exceeds the issuer's cash limit for this account.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryInsufficientFunds},

	// Account problems
	"14": {Code: "14", Display: "Invalid card number", Definition: "The card number failed validation at the issuer. Re-enter or use another card.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryInvalidCard},
	"15": {Code: "15", Display: "No such issuer", Definition: "The first digits of the card number do not match a known issuer.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryInvalidCard},
	"39": {Code: "39", Display: "No credit account", Definition: "The card has no credit account attached.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryInvalidCard},
	"42": {Code: "42", Display: "No universal account", Definition: "The card has no universal account attached.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryInvalidCard},
	"44": {Code: "44", Display: "No investment account", Definition: "The card has no investment account attached.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryInvalidCard},
	"46": {Code: "46", Display: "Closed account", Definition: "The account has been closed by the issuer or cardholder.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryInvalidCard},
	"52": {Code: "52", Display: "No checking account", Definition: "No checking account is attached to the card.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryInvalidCard},
	"53": {Code: "53", Display: "No savings account", Definition: "No savings account is attached to the card.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryInvalidCard},
	"56": {Code: "56", Display: "No card record", Definition: "The issuer has no record of the card.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryInvalidCard},
	"76": {Code: "76", Display: "Account not found", Definition: "Unable to locate the previous message or account referenced.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryInvalidCard},
	"78": {Code: "78", Display: "Account not recognized", Definition: "The account is new or not yet activated.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryInvalidCard},
	"EA": {Code: "EA", Display: "Verification error", Definition: "The account number length failed verification.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryInvalidCard},
	"EB": {Code: "EB", Display: "Verification error", Definition: "The account number check digit failed verification.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryInvalidCard},
	"EC": {Code: "EC", Display: "Verification error", Definition: "The card identifier failed verification.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryInvalidCard},
	"CV": {Code: "CV", Display: "Card type error", Definition: "The card type could not be verified by the processor.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryInvalidCard},

	// Expiry
	"33": {Code: "33", Display: "Expired card", Definition: "Expired card, pick up.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryExpiredCard},
	"54": {Code: "54", Display: "Expired card", Definition: "The card has passed its expiration date.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryExpiredCard},

	// PIN / verification
	"38": {Code: "38", Display: "PIN tries exceeded", Definition: "Allowable PIN tries exceeded, retain card.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryInvalidCard},
	"55": {Code: "55", Display: "Incorrect PIN", Definition: "The PIN entered does not match the issuer's records.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryInvalidCard, IsRetriable: true},
	"75": {Code: "75", Display: "PIN tries exceeded", Definition: "The allowable number of PIN attempts has been exceeded.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryInvalidCard},
	"82": {Code: "82", Display: "CVV error", Definition: "The card's security code failed verification.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryInvalidCard, IsRetriable: true},
	"83": {Code: "83", Display: "Cannot verify PIN", Definition: "The PIN could not be verified; the issuer's stand-in processor cannot approve.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryInvalidCard, IsRetriable: true},
	"86": {Code: "86", Display: "Cannot verify PIN", Definition: "The issuer was unable to verify the PIN.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryInvalidCard, IsRetriable: true},
	"N7": {Code: "N7", Display: "CVV2 mismatch", Definition: "The CVV2 value does not match the issuer's records.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryInvalidCard, IsRetriable: true},
	"P5": {Code: "P5", Display: "PIN change declined", Definition: "The PIN change or unblock request was declined by the issuer.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryInvalidCard},
	"P6": {Code: "P6", Display: "Unsafe PIN", Definition: "The requested PIN is considered unsafe by the issuer.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryInvalidCard},
	"6P": {Code: "6P", Display: "Verification failed", Definition: "The cardholder identification data did not match the issuer's records.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryInvalidCard},

	// Amount / transaction problems
	"12": {Code: "12", Display: "Invalid transaction", Definition: "The transaction type is invalid for this card or acquirer.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryInvalidRequest},
	"13": {Code: "13", Display: "Invalid amount", Definition: "The amount field is malformed or outside permitted bounds.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryInvalidRequest},
	"23": {Code: "23", Display: "Invalid fee", Definition: "Unacceptable transaction fee.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryInvalidRequest},
	"64": {Code: "64", Display: "Amount mismatch", Definition: "The original amount does not match the referenced transaction.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryInvalidRequest},
	"P2": {Code: "P2", Display: "Invalid biller", Definition: "The biller information is invalid.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryInvalidRequest},

	// Already handled / duplicates
	"26": {Code: "26", Display: "Duplicate record", Definition: "A duplicate record exists; the old record was replaced.", Status: domain.SaleStatusError, Category: pkgerrors.CategorySystemError},
	"79": {Code: "79", Display: "Already reversed", Definition: "The transaction was already reversed at the switch.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryDeclined},
	"94": {Code: "94", Display: "Duplicate transaction", Definition: "A transaction with the same trace information was already processed.", Status: domain.SaleStatusError, Category: pkgerrors.CategorySystemError},
	"98": {Code: "98", Display: "Duplicate transmission", Definition: "The switch detected a duplicate transmission of this message.", Status: domain.SaleStatusError, Category: pkgerrors.CategorySystemError},

	// Processing / system errors. These are errors, not card declines: the
	// card was never actually refused.
	"06": {Code: "06", Display: "Processing error", Definition: "General error at the issuer or switch.", Status: domain.SaleStatusError, Category: pkgerrors.CategorySystemError, IsRetriable: true},
	"09": {Code: "09", Display: "Request in progress", Definition: "A prior request for this transaction is still in progress.", Status: domain.SaleStatusError, Category: pkgerrors.CategorySystemError, IsRetriable: true},
	"19": {Code: "19", Display: "Re-enter transaction", Definition: "The transaction could not be processed and should be re-entered.", Status: domain.SaleStatusError, Category: pkgerrors.CategorySystemError, IsRetriable: true},
	"20": {Code: "20", Display: "Invalid response", Definition: "The switch received an invalid response from the issuer.", Status: domain.SaleStatusError, Category: pkgerrors.CategorySystemError, IsRetriable: true},
	"22": {Code: "22", Display: "Suspected malfunction", Definition: "The issuer suspects a malfunction in the message.", Status: domain.SaleStatusError, Category: pkgerrors.CategorySystemError, IsRetriable: true},
	"24": {Code: "24", Display: "Update not supported", Definition: "File update is not supported by the receiver.", Status: domain.SaleStatusError, Category: pkgerrors.CategorySystemError},
	"25": {Code: "25", Display: "Record not found", Definition: "Unable to locate the record in the issuer's file.", Status: domain.SaleStatusError, Category: pkgerrors.CategorySystemError},
	"27": {Code: "27", Display: "File update error", Definition: "The file update failed an edit check at the issuer.", Status: domain.SaleStatusError, Category: pkgerrors.CategorySystemError},
	"28": {Code: "28", Display: "File unavailable", Definition: "The issuer's account file is temporarily unavailable.", Status: domain.SaleStatusError, Category: pkgerrors.CategorySystemError, IsRetriable: true},
	"29": {Code: "29", Display: "File update failed", Definition: "The file update could not be completed at the issuer.", Status: domain.SaleStatusError, Category: pkgerrors.CategorySystemError},
	"30": {Code: "30", Display: "Format error", Definition: "The request message failed format validation at the switch.", Status: domain.SaleStatusError, Category: pkgerrors.CategoryInvalidRequest},
	"68": {Code: "68", Display: "Response too late", Definition: "The issuer's response arrived after the network cutoff. No authorization decision stands.", Status: domain.SaleStatusError, Category: pkgerrors.CategoryTimeout, IsRetriable: true},
	"80": {Code: "80", Display: "Invalid date", Definition: "The transaction carried an invalid date field.", Status: domain.SaleStatusError, Category: pkgerrors.CategoryInvalidRequest},
	"81": {Code: "81", Display: "Cryptographic error", Definition: "Cryptographic failure while validating the PIN block or EMV data.", Status: domain.SaleStatusError, Category: pkgerrors.CategorySystemError, IsRetriable: true},
	"84": {Code: "84", Display: "Invalid auth life cycle", Definition: "The authorization life cycle referenced is invalid or expired.", Status: domain.SaleStatusError, Category: pkgerrors.CategoryInvalidRequest},
	"90": {Code: "90", Display: "Cutoff in progress", Definition: "The issuer's daily cutoff is in progress; retry shortly.", Status: domain.SaleStatusError, Category: pkgerrors.CategorySystemError, IsRetriable: true},
	"91": {Code: "91", Display: "Issuer unavailable", Definition: "The issuer or switch is inoperative; no authorization decision was made.", Status: domain.SaleStatusError, Category: pkgerrors.CategorySystemError, IsRetriable: true},
	"92": {Code: "92", Display: "Cannot route", Definition: "The transaction could not be routed to the issuer.", Status: domain.SaleStatusError, Category: pkgerrors.CategorySystemError, IsRetriable: true},
	"95": {Code: "95", Display: "Reconcile error", Definition: "A reconciliation error was detected at the terminal or host.", Status: domain.SaleStatusError, Category: pkgerrors.CategorySystemError},
	"96": {Code: "96", Display: "System malfunction", Definition: "System malfunction at the processing host.", Status: domain.SaleStatusError, Category: pkgerrors.CategorySystemError, IsRetriable: true},
	"HV": {Code: "HV", Display: "Hierarchy error", Definition: "Merchant hierarchy verification failed at the processor.", Status: domain.SaleStatusError, Category: pkgerrors.CategorySystemError},

	// Stop payment family
	"R0": {Code: "R0", Display: "Stop payment", Definition: "The cardholder has requested a stop on this recurring payment.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryDeclined},
	"R1": {Code: "R1", Display: "Stop all payments", Definition: "The cardholder has revoked authorization for all payments to this merchant.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryDeclined},
	"R2": {Code: "R2", Display: "Not eligible", Definition: "The transaction is not eligible for recurring processing.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryDeclined},
	"R3": {Code: "R3", Display: "All authorizations revoked", Definition: "The cardholder has revoked all authorization orders for this merchant.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryDeclined},

	// AVS / verification-only results that still arrive as host codes
	"N0": {Code: "N0", Display: "Unable to authorize", Definition: "The issuer could not authorize; try again later.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryDeclined, IsRetriable: true},
	"N3": {Code: "N3", Display: "Cash service unavailable", Definition: "Cash service is not available for this card.", Status: domain.SaleStatusDeclined, Category: pkgerrors.CategoryDeclined},
	"XA": {Code: "XA", Display: "Forward to issuer", Definition: "The switch requests the message be forwarded to the issuer.", Status: domain.SaleStatusError, Category: pkgerrors.CategorySystemError, IsRetriable: true},
	"XD": {Code: "XD", Display: "Forward to issuer", Definition: "The switch requests the message be forwarded to the issuer.", Status: domain.SaleStatusError, Category: pkgerrors.CategorySystemError, IsRetriable: true},

	// Processor-specific timeout surfaced as a host code
	"TO": {Code: "TO", Display: "Issuer timeout", Definition: "The issuer did not respond in time. The terminal may still complete the sale; check status before retrying.", Status: domain.SaleStatusError, Category: pkgerrors.CategoryTimeout, IsRetriable: true},
}

// unknownCode is the defensive default: a code missing from the table is an
// error, never an approval.
func unknownCode(code string) CodeInfo {
	return CodeInfo{
		Code:       code,
		Display:    "UNKNOWN ERROR",
		Definition: "Unknown response code returned by the card network. Treat the transaction as failed and verify with the processor before retrying.",
		Status:     domain.SaleStatusError,
		Category:   pkgerrors.CategorySystemError,
	}
}

// Lookup retrieves the outcome information for a host response code.
// Lookup is case-insensitive; unmapped codes yield the unknown-error entry.
func Lookup(code string) CodeInfo {
	if info, exists := hostResponseCodes[normalize(code)]; exists {
		return info
	}
	return unknownCode(normalize(code))
}
