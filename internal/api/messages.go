package api

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/tabsplit/internal/models"
	"github.com/mmynk/tabsplit/internal/shares"
)

// AllocateRequest submits a bill for allocation. FairnessCutoff overrides
// the server's default when set.
type AllocateRequest struct {
	Bill           *models.Bill        `json:"bill"`
	FairnessCutoff decimal.NullDecimal `json:"fairness_cutoff"`
}

// DinerAmount is one diner's share of an allocated bill.
type DinerAmount struct {
	DinerID shares.DinerID  `json:"diner_id"`
	Name    string          `json:"name"`
	Order   decimal.Decimal `json:"order"`
	Comped  decimal.Decimal `json:"comped"`
	Coupon  decimal.Decimal `json:"coupon"`
	Tax     decimal.Decimal `json:"tax"`
	Tip     decimal.Decimal `json:"tip"`
	Amount  decimal.Decimal `json:"amount"`
}

// AllocateResponse holds the allocation of a bill.
type AllocateResponse struct {
	Diners               []DinerAmount   `json:"diners"`
	Subtotal             decimal.Decimal `json:"subtotal"`
	Tax                  decimal.Decimal `json:"tax"`
	Tip                  decimal.Decimal `json:"tip"`
	Total                decimal.Decimal `json:"total"`
	RoundedTotal         decimal.Decimal `json:"rounded_total"`
	UnallocatedAmount    decimal.Decimal `json:"unallocated_amount"`
	RoundingErrorLeft    decimal.Decimal `json:"rounding_error_left"`
	DistributionAccurate bool            `json:"distribution_accurate"`
}

// InferSharesRequest asks for the share counts best matching per-diner
// amounts.
type InferSharesRequest struct {
	Amounts []decimal.Decimal `json:"amounts"`
}

// InferSharesResponse holds one share count per requested amount.
type InferSharesResponse struct {
	Shares []int `json:"shares"`
}

// SettleUpRequest submits bills with payers for cross-bill settlement.
type SettleUpRequest struct {
	Bills []*models.Bill `json:"bills"`
}

// Balance is a member's net position across the settled bills.
type Balance struct {
	Name       string          `json:"name"`
	NetBalance decimal.Decimal `json:"net_balance"`
	TotalPaid  decimal.Decimal `json:"total_paid"`
	TotalOwed  decimal.Decimal `json:"total_owed"`
}

// Debt is one simplified payment.
type Debt struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

// SettleUpResponse holds balances and the payments that settle them.
type SettleUpResponse struct {
	Balances []Balance `json:"balances"`
	Debts    []Debt    `json:"debts"`
}

// SaveBillRequest backs up a bill.
type SaveBillRequest struct {
	Bill *models.Bill `json:"bill"`
}

// SaveBillResponse is empty.
type SaveBillResponse struct{}

// GetBillRequest fetches a backed-up bill by ID.
type GetBillRequest struct {
	ID string `json:"id"`
}

// GetBillResponse carries the backed-up bill.
type GetBillResponse struct {
	Bill *models.Bill `json:"bill"`
}

// ListBillsRequest lists the caller's backups.
type ListBillsRequest struct{}

// BillSummary describes one backed-up bill.
type BillSummary struct {
	ID        string `json:"id"`
	Size      int64  `json:"size"`
	UpdatedAt int64  `json:"updated_at"`
}

// ListBillsResponse lists backups, newest first.
type ListBillsResponse struct {
	Bills []BillSummary `json:"bills"`
}

// DeleteBillRequest removes a backup.
type DeleteBillRequest struct {
	ID string `json:"id"`
}

// DeleteBillResponse is empty.
type DeleteBillResponse struct{}

// Account is the public view of a backup account.
type Account struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	CreatedAt   int64  `json:"created_at"`
}

// RegisterRequest creates an account.
type RegisterRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

// RegisterResponse returns the new account and a token for it.
type RegisterResponse struct {
	Account Account `json:"account"`
	Token   string  `json:"token"`
}

// LoginRequest exchanges credentials for a token.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse returns the account and its token.
type LoginResponse struct {
	Account Account `json:"account"`
	Token   string  `json:"token"`
}

// GetCurrentAccountRequest asks who the token belongs to.
type GetCurrentAccountRequest struct{}

// GetCurrentAccountResponse describes the authenticated account.
type GetCurrentAccountResponse struct {
	Account Account `json:"account"`
}

// Person is a directory entry on the wire.
type Person struct {
	GUID      string `json:"guid"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	CreatedAt int64  `json:"created_at"`
}

// SavePersonRequest creates or updates a directory entry. An empty GUID
// creates a new person.
type SavePersonRequest struct {
	Person Person `json:"person"`
}

// SavePersonResponse returns the stored entry.
type SavePersonResponse struct {
	Person Person `json:"person"`
}

// GetPersonRequest fetches a directory entry.
type GetPersonRequest struct {
	GUID string `json:"guid"`
}

// GetPersonResponse carries the entry.
type GetPersonResponse struct {
	Person Person `json:"person"`
}

// ListPeopleRequest lists the directory.
type ListPeopleRequest struct{}

// ListPeopleResponse lists the directory by name.
type ListPeopleResponse struct {
	People []Person `json:"people"`
}

// PersonFromModel converts a directory entry for the wire.
func PersonFromModel(p *models.Person) Person {
	return Person{GUID: p.GUID, Name: p.Name, Email: p.Email, CreatedAt: p.CreatedAt}
}

// AccountFromModel converts an account for the wire, leaving out the
// password hash.
func AccountFromModel(a *models.Account) Account {
	return Account{ID: a.ID, Email: a.Email, DisplayName: a.DisplayName, CreatedAt: a.CreatedAt}
}
