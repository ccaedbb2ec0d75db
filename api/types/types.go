package types

// Gateway view models. The gateway is a read-only projection of chain state:
// it rebuilds these from crowdfund events and never writes back.

// PoolSummary is the list/detail view of a funding pool
type PoolSummary struct {
	PoolID             uint64   `json:"pool_id"`
	Name               string   `json:"name"`
	Description        string   `json:"description,omitempty"`
	ExternalURL        string   `json:"external_url,omitempty"`
	ImageHash          string   `json:"image_hash,omitempty"`
	Creator            string   `json:"creator"`
	TargetAmount       string   `json:"target_amount"`
	Deadline           int64    `json:"deadline"`
	Status             string   `json:"status"`
	TotalRaised        string   `json:"total_raised"`
	ContributorCount   uint64   `json:"contributor_count"`
	LastDonationAt     int64    `json:"last_donation_at,omitempty"`
	RequiredSignatures uint32   `json:"required_signatures,omitempty"`
	Approvals          int      `json:"approvals,omitempty"`
	CreatedAt          int64    `json:"created_at"`
	ClosedAt           int64    `json:"closed_at,omitempty"`
	Assets             []string `json:"assets,omitempty"`
}

// LeaderboardEntry is one row of a pool's top-contributor board. Private
// contributions are aggregated under a redacted name.
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	Contributor string `json:"contributor"`
	Amount      string `json:"amount"`
}

// ContributionEvent is the public feed record for a single donation
type ContributionEvent struct {
	PoolID      uint64 `json:"pool_id"`
	Contributor string `json:"contributor,omitempty"`
	Asset       string `json:"asset"`
	NetAmount   string `json:"net_amount"`
	FeeAmount   string `json:"fee_amount"`
	IsPrivate   bool   `json:"is_private"`
	Timestamp   int64  `json:"timestamp"`
	TxHash      string `json:"tx_hash,omitempty"`
}

// PoolStatusEvent announces a lifecycle transition
type PoolStatusEvent struct {
	PoolID uint64 `json:"pool_id"`
	Status string `json:"status"`
}

// ErrorResponse is the uniform error body
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is the health check body
type HealthResponse struct {
	Status      string `json:"status"`
	BlockHeight int64  `json:"block_height"`
	Pools       int    `json:"pools"`
	Timestamp   int64  `json:"timestamp"`
}
