// Package api defines the request and response messages of the tripsplit
// Connect services.
//
// Messages are plain structs sent as JSON. Money is always a decimal string
// with two places ("12.50") so clients never round through floating point.
package api

// Member is one person on a trip roster.
type Member struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName,omitempty"`
}

// Trip is a trip and its roster.
type Trip struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Currency  string   `json:"currency"`
	Members   []Member `json:"members"`
	CreatedAt int64    `json:"createdAt"`
}

// Participant is one input row of a split. Weight is read for the ratio
// method and Amount for the custom method.
type Participant struct {
	UserID string `json:"userId"`
	Weight string `json:"weight,omitempty"`
	Amount string `json:"amount,omitempty"`
}

// Split is one member's computed share of an expense.
type Split struct {
	UserID string `json:"userId"`
	Amount string `json:"amount"`
	Weight string `json:"weight,omitempty"`
}

// Expense is a shared expense with its computed split.
type Expense struct {
	ID        string  `json:"id"`
	TripID    string  `json:"tripId"`
	Title     string  `json:"title"`
	Amount    string  `json:"amount"`
	Currency  string  `json:"currency"`
	Category  string  `json:"category,omitempty"`
	PaidBy    string  `json:"paidBy"`
	Method    string  `json:"method"`
	Splits    []Split `json:"splits"`
	CreatedAt int64   `json:"createdAt"`
	UpdatedAt int64   `json:"updatedAt"`
}

// Payment is a recorded repayment between two members.
type Payment struct {
	ID         string `json:"id"`
	TripID     string `json:"tripId"`
	FromUserID string `json:"fromUserId"`
	ToUserID   string `json:"toUserId"`
	Amount     string `json:"amount"`
	Currency   string `json:"currency"`
	CreatedAt  int64  `json:"createdAt"`
	CreatedBy  string `json:"createdBy"`
	Note       string `json:"note,omitempty"`
}

// Balance is one member's net position. Positive means the member is owed.
type Balance struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName,omitempty"`
	TotalPaid   string `json:"totalPaid"`
	TotalOwed   string `json:"totalOwed"`
	Balance     string `json:"balance"`
	Unlisted    bool   `json:"unlisted,omitempty"`
}

// Settlement is a suggested transfer. It is advisory until recorded as a Payment.
type Settlement struct {
	FromUserID      string `json:"fromUserId"`
	FromDisplayName string `json:"fromDisplayName,omitempty"`
	ToUserID        string `json:"toUserId"`
	ToDisplayName   string `json:"toDisplayName,omitempty"`
	Amount          string `json:"amount"`
	Currency        string `json:"currency"`
}

// Warning is a data-quality problem found while computing balances.
type Warning struct {
	Kind      string `json:"kind"`
	ExpenseID string `json:"expenseId,omitempty"`
	UserID    string `json:"userId,omitempty"`
	Message   string `json:"message"`
}

// TripService messages.

type CreateTripRequest struct {
	Name     string   `json:"name"`
	Currency string   `json:"currency"`
	Members  []Member `json:"members"`
}

type CreateTripResponse struct {
	Trip Trip `json:"trip"`
}

type GetTripRequest struct {
	TripID string `json:"tripId"`
}

type GetTripResponse struct {
	Trip Trip `json:"trip"`
}

type ListTripsRequest struct{}

type ListTripsResponse struct {
	Trips []Trip `json:"trips"`
}

type AddMembersRequest struct {
	TripID  string   `json:"tripId"`
	Members []Member `json:"members"`
}

type AddMembersResponse struct {
	Trip Trip `json:"trip"`
}

type RemoveMemberRequest struct {
	TripID string `json:"tripId"`
	UserID string `json:"userId"`
}

type RemoveMemberResponse struct {
	Trip Trip `json:"trip"`
}

// ExpenseService messages.

// ComputeSplitRequest previews a split without storing anything.
type ComputeSplitRequest struct {
	Amount       string        `json:"amount"`
	Method       string        `json:"method"`
	Participants []Participant `json:"participants"`
}

// ComputeSplitResponse carries the preview. A custom split that does not add
// up comes back with Valid false and the AmountDifference to show the user.
type ComputeSplitResponse struct {
	Splits           []Split `json:"splits"`
	Total            string  `json:"total"`
	AmountDifference string  `json:"amountDifference"`
	Valid            bool    `json:"valid"`
	Message          string  `json:"message,omitempty"`
}

type CreateExpenseRequest struct {
	TripID       string        `json:"tripId"`
	Title        string        `json:"title"`
	Amount       string        `json:"amount"`
	Currency     string        `json:"currency,omitempty"`
	Category     string        `json:"category,omitempty"`
	PaidBy       string        `json:"paidBy"`
	Method       string        `json:"method"`
	Participants []Participant `json:"participants"`
}

type CreateExpenseResponse struct {
	Expense Expense `json:"expense"`
}

type UpdateExpenseRequest struct {
	ExpenseID    string        `json:"expenseId"`
	Title        string        `json:"title"`
	Amount       string        `json:"amount"`
	Currency     string        `json:"currency,omitempty"`
	Category     string        `json:"category,omitempty"`
	PaidBy       string        `json:"paidBy"`
	Method       string        `json:"method"`
	Participants []Participant `json:"participants"`
}

type UpdateExpenseResponse struct {
	Expense Expense `json:"expense"`
}

type GetExpenseRequest struct {
	ExpenseID string `json:"expenseId"`
}

type GetExpenseResponse struct {
	Expense Expense `json:"expense"`
}

type DeleteExpenseRequest struct {
	ExpenseID string `json:"expenseId"`
}

type DeleteExpenseResponse struct{}

type ListExpensesRequest struct {
	TripID string `json:"tripId"`
}

type ListExpensesResponse struct {
	Expenses []Expense `json:"expenses"`
}

type GetTripBalancesRequest struct {
	TripID string `json:"tripId"`
}

type GetTripBalancesResponse struct {
	Currency    string       `json:"currency"`
	Balances    []Balance    `json:"balances"`
	Settlements []Settlement `json:"settlements"`
	Warnings    []Warning    `json:"warnings,omitempty"`
}

type RecordPaymentRequest struct {
	TripID     string `json:"tripId"`
	FromUserID string `json:"fromUserId"`
	ToUserID   string `json:"toUserId"`
	Amount     string `json:"amount"`
	Note       string `json:"note,omitempty"`
}

type RecordPaymentResponse struct {
	Payment Payment `json:"payment"`
}

type ListPaymentsRequest struct {
	TripID string `json:"tripId"`
}

type ListPaymentsResponse struct {
	Payments []Payment `json:"payments"`
}

type DeletePaymentRequest struct {
	PaymentID string `json:"paymentId"`
}

type DeletePaymentResponse struct{}
