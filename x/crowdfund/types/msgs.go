package types

import (
	"fmt"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Message types
const (
	TypeMsgCreatePool       = "create_pool"
	TypeMsgContribute       = "contribute"
	TypeMsgSetPlatformFee   = "set_platform_fee"
	TypeMsgSetAssetDiscount = "set_asset_discount"
	TypeMsgApproveClose     = "approve_close"
	TypeMsgClosePool        = "close_pool"
)

// MsgCreatePool defines the CreatePool message
type MsgCreatePool struct {
	Creator            string   `json:"creator"`
	Name               string   `json:"name"`
	Description        string   `json:"description,omitempty"`
	ExternalURL        string   `json:"external_url,omitempty"`
	ImageHash          string   `json:"image_hash,omitempty"`
	TargetAmount       string   `json:"target_amount"`
	Deadline           int64    `json:"deadline"`
	RequiredSignatures uint32   `json:"required_signatures,omitempty"`
	Signers            []string `json:"signers,omitempty"`
}

// Route implements sdk.Msg
func (msg MsgCreatePool) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgCreatePool) Type() string { return TypeMsgCreatePool }

// ValidateBasic implements sdk.Msg
func (msg MsgCreatePool) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Creator); err != nil {
		return err
	}
	if msg.Name == "" {
		return ErrInvalidPoolName
	}
	target, ok := math.NewIntFromString(msg.TargetAmount)
	if !ok || !target.IsPositive() {
		return ErrInvalidTarget
	}
	for _, signer := range msg.Signers {
		if _, err := sdk.AccAddressFromBech32(signer); err != nil {
			return ErrInvalidSigners.Wrapf("signer %s: %v", signer, err)
		}
	}
	if msg.RequiredSignatures > 1 && int(msg.RequiredSignatures) > len(msg.Signers) {
		return ErrInvalidSigners.Wrap("required signatures exceed signer set size")
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgCreatePool) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Creator)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgCreatePool) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgCreatePool) Reset() { *msg = MsgCreatePool{} }

// String implements proto.Message
func (msg MsgCreatePool) String() string {
	return fmt.Sprintf("MsgCreatePool{Creator: %s, Name: %s, Target: %s}", msg.Creator, msg.Name, msg.TargetAmount)
}

// MsgCreatePoolResponse defines the CreatePool response
type MsgCreatePoolResponse struct {
	PoolID uint64 `json:"pool_id"`
}

// MsgContribute defines the Contribute message
type MsgContribute struct {
	Contributor string `json:"contributor"`
	PoolID      uint64 `json:"pool_id"`
	Asset       string `json:"asset"`
	Amount      string `json:"amount"`
	IsPrivate   bool   `json:"is_private,omitempty"`
}

// Route implements sdk.Msg
func (msg MsgContribute) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgContribute) Type() string { return TypeMsgContribute }

// ValidateBasic implements sdk.Msg
func (msg MsgContribute) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Contributor); err != nil {
		return err
	}
	if err := sdk.ValidateDenom(msg.Asset); err != nil {
		return err
	}
	amount, ok := math.NewIntFromString(msg.Amount)
	if !ok || !amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgContribute) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Contributor)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgContribute) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgContribute) Reset() { *msg = MsgContribute{} }

// String implements proto.Message
func (msg MsgContribute) String() string {
	return fmt.Sprintf("MsgContribute{Contributor: %s, PoolID: %d, Asset: %s, Amount: %s}",
		msg.Contributor, msg.PoolID, msg.Asset, msg.Amount)
}

// MsgContributeResponse defines the Contribute response
type MsgContributeResponse struct {
	NetAmount  string `json:"net_amount"`
	FeeAmount  string `json:"fee_amount"`
	PoolStatus string `json:"pool_status"`
}

// MsgSetPlatformFee defines the SetPlatformFee message
type MsgSetPlatformFee struct {
	Authority string `json:"authority"`
	FeeBps    int64  `json:"fee_bps"`
}

// Route implements sdk.Msg
func (msg MsgSetPlatformFee) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgSetPlatformFee) Type() string { return TypeMsgSetPlatformFee }

// ValidateBasic implements sdk.Msg
func (msg MsgSetPlatformFee) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Authority); err != nil {
		return err
	}
	if !ValidBps(msg.FeeBps) {
		return ErrInvalidFee
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgSetPlatformFee) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Authority)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgSetPlatformFee) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgSetPlatformFee) Reset() { *msg = MsgSetPlatformFee{} }

// String implements proto.Message
func (msg MsgSetPlatformFee) String() string {
	return fmt.Sprintf("MsgSetPlatformFee{Authority: %s, FeeBps: %d}", msg.Authority, msg.FeeBps)
}

// MsgSetPlatformFeeResponse defines the SetPlatformFee response
type MsgSetPlatformFeeResponse struct{}

// MsgSetAssetDiscount defines the SetAssetDiscount message
type MsgSetAssetDiscount struct {
	Authority   string `json:"authority"`
	Asset       string `json:"asset"`
	DiscountBps int64  `json:"discount_bps"`
}

// Route implements sdk.Msg
func (msg MsgSetAssetDiscount) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgSetAssetDiscount) Type() string { return TypeMsgSetAssetDiscount }

// ValidateBasic implements sdk.Msg
func (msg MsgSetAssetDiscount) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Authority); err != nil {
		return err
	}
	if err := sdk.ValidateDenom(msg.Asset); err != nil {
		return err
	}
	if !ValidBps(msg.DiscountBps) {
		return ErrInvalidFee
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgSetAssetDiscount) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Authority)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgSetAssetDiscount) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgSetAssetDiscount) Reset() { *msg = MsgSetAssetDiscount{} }

// String implements proto.Message
func (msg MsgSetAssetDiscount) String() string {
	return fmt.Sprintf("MsgSetAssetDiscount{Authority: %s, Asset: %s, DiscountBps: %d}",
		msg.Authority, msg.Asset, msg.DiscountBps)
}

// MsgSetAssetDiscountResponse defines the SetAssetDiscount response
type MsgSetAssetDiscountResponse struct{}

// MsgApproveClose defines the ApproveClose message
type MsgApproveClose struct {
	Signer string `json:"signer"`
	PoolID uint64 `json:"pool_id"`
}

// Route implements sdk.Msg
func (msg MsgApproveClose) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgApproveClose) Type() string { return TypeMsgApproveClose }

// ValidateBasic implements sdk.Msg
func (msg MsgApproveClose) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Signer); err != nil {
		return err
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgApproveClose) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Signer)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgApproveClose) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgApproveClose) Reset() { *msg = MsgApproveClose{} }

// String implements proto.Message
func (msg MsgApproveClose) String() string {
	return fmt.Sprintf("MsgApproveClose{Signer: %s, PoolID: %d}", msg.Signer, msg.PoolID)
}

// MsgApproveCloseResponse defines the ApproveClose response
type MsgApproveCloseResponse struct {
	Approvals uint32 `json:"approvals"`
	Required  uint32 `json:"required"`
}

// MsgClosePool defines the ClosePool message
type MsgClosePool struct {
	Signer string `json:"signer"`
	PoolID uint64 `json:"pool_id"`
}

// Route implements sdk.Msg
func (msg MsgClosePool) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgClosePool) Type() string { return TypeMsgClosePool }

// ValidateBasic implements sdk.Msg
func (msg MsgClosePool) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Signer); err != nil {
		return err
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgClosePool) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Signer)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgClosePool) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgClosePool) Reset() { *msg = MsgClosePool{} }

// String implements proto.Message
func (msg MsgClosePool) String() string {
	return fmt.Sprintf("MsgClosePool{Signer: %s, PoolID: %d}", msg.Signer, msg.PoolID)
}

// MsgClosePoolResponse defines the ClosePool response
type MsgClosePoolResponse struct {
	AmountReleased string `json:"amount_released"`
	Recipient      string `json:"recipient"`
}

// Ensure all messages implement sdk.Msg interface
var (
	_ sdk.Msg = &MsgCreatePool{}
	_ sdk.Msg = &MsgContribute{}
	_ sdk.Msg = &MsgSetPlatformFee{}
	_ sdk.Msg = &MsgSetAssetDiscount{}
	_ sdk.Msg = &MsgApproveClose{}
	_ sdk.Msg = &MsgClosePool{}
)
