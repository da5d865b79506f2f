package api

type KeypairResponse struct {
	PublicKey string `json:"pubkey"`
	Secret    string `json:"secret"`
}

type CreateTokenRequest struct {
	Mint          string `json:"mint"`
	MintAuthority string `json:"mintAuthority"`
	Decimals      int    `json:"decimals"`
}

type MintTokenRequest struct {
	Mint        string `json:"mint"`
	Destination string `json:"destination"`
	Authority   string `json:"authority"`
	Amount      uint64 `json:"amount"`
}

type SignMessageRequest struct {
	Message string `json:"message"`
	Secret  string `json:"secret"`
}

type SignMessageResponse struct {
	Signature string `json:"signature"`
	PublicKey string `json:"public_key"`
	Message   string `json:"message"`
}

type VerifyMessageRequest struct {
	Message   string `json:"message"`
	Signature string `json:"signature"`
	PublicKey string `json:"pubkey"`
}

type VerifyMessageResponse struct {
	Valid     bool   `json:"valid"`
	Message   string `json:"message"`
	PublicKey string `json:"pubkey"`
}

type SendSolRequest struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Lamports uint64 `json:"lamports"`
}

type SendTokenRequest struct {
	Destination string `json:"destination"`
	Mint        string `json:"mint"`
	Owner       string `json:"owner"`
	Amount      uint64 `json:"amount"`
}

type AssociatedAccountRequest struct {
	Owner string `json:"owner"`
	Mint  string `json:"mint"`
}

type AssociatedAccountResponse struct {
	Address string `json:"address"`
	Bump    uint8  `json:"bump"`
}
