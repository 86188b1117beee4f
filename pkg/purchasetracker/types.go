package purchasetracker

import (
	"net/http"
	"time"
)

// Client reports purchases to a cashwidget deployment on behalf of a partner.
type Client struct {
	Endpoint   string
	Secret     string
	Scheme     string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Purchase is one completed order as seen by the partner shop.
type Purchase struct {
	PublicKey  string
	UserID     string
	OrderID    string
	OrderValue string
	ShopName   string
	Timestamp  time.Time
}

// Receipt is the cashback outcome returned for a tracked purchase.
type Receipt struct {
	PurchaseID     string
	CashbackAmount string
	WalletBalance  string
	TransactionID  string
	Provisional    bool
	Replayed       bool
}
