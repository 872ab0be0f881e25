package models

// Exchange describes where a ticker trades and when it is open.
type Exchange struct {
	ExchangeID string `json:"exchange_id"`
	Name       string `json:"name"`
	Key        string `json:"key"`      // feed symbol prefix, e.g. NASDAQ
	Timezone   string `json:"timezone"` // IANA name
	Start      string `json:"start"`    // HH:MM local
	End        string `json:"end"`      // HH:MM local
}
