package score

// Package score hosts the outbound DTOs the lending facility consumes. Keep
// these stable and versioned independently of internal scoring models.

// ContractVersion identifies the contract schema version for compatibility checks.
// Bump on breaking changes to the shapes below.
const ContractVersion = "v1.0.0"

// Details is the getScoreDetails response for one subject.
type Details struct {
	Subject          string `json:"subject"`
	Score            int    `json:"score"`
	CredentialCount  int    `json:"credential_count"`
	LastUpdated      int64  `json:"last_updated"` // unix seconds, 0 when no credential contributes
	CollateralFactor int    `json:"collateral_factor"`
	ComputedAt       int64  `json:"computed_at"`
}

// Collateral is the collateralFactor response, with an optional borrow limit.
type Collateral struct {
	Score            int    `json:"score"`
	CollateralFactor int    `json:"collateral_factor"`
	Collateral       *int64 `json:"collateral,omitempty"`
	BorrowLimit      *int64 `json:"borrow_limit,omitempty"`
}
