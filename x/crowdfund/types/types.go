package types

import (
	"cosmossdk.io/math"
)

// Module name and store key
const (
	ModuleName = "crowdfund"
	StoreKey   = ModuleName
)

// Pool status
const (
	PoolStatusActive  = "active"
	PoolStatusFunded  = "funded"
	PoolStatusExpired = "expired"
	PoolStatusClosed  = "closed"
)

// PoolMetadata holds the immutable campaign description. It is set once at
// pool creation and never mutated afterwards.
type PoolMetadata struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	ExternalURL  string   `json:"external_url,omitempty"`
	ImageHash    string   `json:"image_hash,omitempty"`
	Creator      string   `json:"creator"`
	TargetAmount math.Int `json:"target_amount"`
	Deadline     int64    `json:"deadline"`
}

// Pool is the mutable campaign aggregate. Status is mutated only by the
// keeper's lifecycle code; pools are archival and never deleted.
type Pool struct {
	ID       uint64       `json:"id"`
	Metadata PoolMetadata `json:"metadata"`
	Status   string       `json:"status"`

	// Release policy, immutable after creation. RequiredSignatures = 1 with a
	// single signer is the admin-only configuration.
	RequiredSignatures uint32   `json:"required_signatures"`
	Signers            []string `json:"signers"`

	CreatedAt int64 `json:"created_at"`
	ClosedAt  int64 `json:"closed_at,omitempty"`
}

// NewPool builds an Active pool. Validation happens in the keeper before this
// is persisted.
func NewPool(id uint64, metadata PoolMetadata, requiredSigs uint32, signers []string, now int64) *Pool {
	return &Pool{
		ID:                 id,
		Metadata:           metadata,
		Status:             PoolStatusActive,
		RequiredSignatures: requiredSigs,
		Signers:            signers,
		CreatedAt:          now,
	}
}

// IsSigner reports whether addr is a member of the pool's signer set.
func (p *Pool) IsSigner(addr string) bool {
	for _, s := range p.Signers {
		if s == addr {
			return true
		}
	}
	return false
}

// DeriveStatus returns the status the pool should be observed in at the given
// time with the given raised total. It is a pure function: Funded and Expired
// are derived lazily rather than by a timer, and terminal states are sticky.
func (p *Pool) DeriveStatus(totalRaised math.Int, now int64) string {
	if p.Status != PoolStatusActive {
		return p.Status
	}
	if totalRaised.GTE(p.Metadata.TargetAmount) {
		return PoolStatusFunded
	}
	if now > p.Metadata.Deadline {
		return PoolStatusExpired
	}
	return PoolStatusActive
}

// PoolMetrics is the per-pool accumulator, created lazily on the first
// contribution and updated on every contribution afterwards.
type PoolMetrics struct {
	PoolID           uint64   `json:"pool_id"`
	TotalRaised      math.Int `json:"total_raised"`
	ContributorCount uint64   `json:"contributor_count"`
	LastDonationAt   int64    `json:"last_donation_at"`
}

// NewPoolMetrics returns the zero-state metrics record for a pool.
func NewPoolMetrics(poolID uint64) *PoolMetrics {
	return &PoolMetrics{
		PoolID:      poolID,
		TotalRaised: math.ZeroInt(),
	}
}

// PoolContribution is the cumulative net amount a contributor has put into a
// pool in a given asset.
type PoolContribution struct {
	PoolID      uint64   `json:"pool_id"`
	Contributor string   `json:"contributor"`
	Asset       string   `json:"asset"`
	Amount      math.Int `json:"amount"`
}

// NewPoolContribution returns a zero contribution record.
func NewPoolContribution(poolID uint64, contributor, asset string) *PoolContribution {
	return &PoolContribution{
		PoolID:      poolID,
		Contributor: contributor,
		Asset:       asset,
		Amount:      math.ZeroInt(),
	}
}

// CloseApprovals accumulates distinct signer approvals for closing a pool in
// multi-signer mode. The record lives until the pool is closed.
type CloseApprovals struct {
	PoolID  uint64   `json:"pool_id"`
	Signers []string `json:"signers"`
}

// Has reports whether the signer already approved.
func (c *CloseApprovals) Has(addr string) bool {
	for _, s := range c.Signers {
		if s == addr {
			return true
		}
	}
	return false
}

// Add records an approval; duplicates are ignored.
func (c *CloseApprovals) Add(addr string) {
	if !c.Has(addr) {
		c.Signers = append(c.Signers, addr)
	}
}

// CountWith returns the number of distinct approving signers when addr is
// counted alongside the stored approvals.
func (c *CloseApprovals) CountWith(addr string) int {
	if c.Has(addr) {
		return len(c.Signers)
	}
	return len(c.Signers) + 1
}
