package types

// Event types emitted by the module
const (
	EventTypeCreatePool       = "crowdfund_create_pool"
	EventTypeContribute       = "crowdfund_contribute"
	EventTypeSetPlatformFee   = "crowdfund_set_platform_fee"
	EventTypeSetAssetDiscount = "crowdfund_set_asset_discount"
	EventTypeApproveClose     = "crowdfund_approve_close"
	EventTypeClosePool        = "crowdfund_close_pool"
	EventTypePoolStatus       = "crowdfund_pool_status"
)

// Event attribute keys
const (
	AttributeKeyPoolID      = "pool_id"
	AttributeKeyCreator     = "creator"
	AttributeKeyContributor = "contributor"
	AttributeKeyAsset       = "asset"
	AttributeKeyNetAmount   = "net_amount"
	AttributeKeyFeeAmount   = "fee_amount"
	AttributeKeyIsPrivate   = "is_private"
	AttributeKeyTimestamp   = "timestamp"
	AttributeKeyAdmin       = "admin"
	AttributeKeyFeeBps      = "fee_bps"
	AttributeKeyDiscountBps = "discount_bps"
	AttributeKeySigner      = "signer"
	AttributeKeyApprovals   = "approvals"
	AttributeKeyRecipient   = "recipient"
	AttributeKeyAmount      = "amount"
	AttributeKeyStatus      = "status"
	AttributeKeyName        = "name"
	AttributeKeyDeadline    = "deadline"
)
