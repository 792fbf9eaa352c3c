package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fanstack/coupon-engine/internal/domain/coupon"
)

// createTemplateRequest is the administrative input for a new template.
// Amount fields accept JSON numbers or strings.
type createTemplateRequest struct {
	Code              string              `json:"code,omitempty"`
	DiscountType      string              `json:"discountType"`
	DiscountValue     decimal.Decimal     `json:"discountValue"`
	MaxDiscountAmount *decimal.Decimal    `json:"maxDiscountAmount,omitempty"`
	MinPurchaseAmount decimal.Decimal     `json:"minPurchaseAmount"`
	RefundPolicy      string              `json:"refundPolicy"`
	ExpiresAt         time.Time           `json:"expiresAt"`
	ScopeChannelID    *string             `json:"scopeChannelId,omitempty"`
	ScopeTargetType   *coupon.TargetType  `json:"scopeTargetType,omitempty"`
	ScopeTargetID     *string             `json:"scopeTargetId,omitempty"`
}

func (req *createTemplateRequest) toConfig() coupon.TemplateConfig {
	return coupon.TemplateConfig{
		Code:          req.Code,
		DiscountType:  coupon.DiscountType(req.DiscountType),
		DiscountValue: req.DiscountValue,
		MaxDiscount:   req.MaxDiscountAmount,
		MinPurchase:   req.MinPurchaseAmount,
		RefundPolicy:  coupon.RefundPolicy(req.RefundPolicy),
		ExpiresAt:     req.ExpiresAt,
		Scope: coupon.Scope{
			ChannelID:  req.ScopeChannelID,
			TargetType: req.ScopeTargetType,
			TargetID:   req.ScopeTargetID,
		},
	}
}

type templateResponse struct {
	TemplateID        string             `json:"templateId"`
	Code              string             `json:"code"`
	DiscountType      string             `json:"discountType"`
	DiscountValue     decimal.Decimal    `json:"discountValue"`
	MaxDiscountAmount *decimal.Decimal   `json:"maxDiscountAmount,omitempty"`
	MinPurchaseAmount decimal.Decimal    `json:"minPurchaseAmount"`
	RefundPolicy      string             `json:"refundPolicy"`
	ExpiresAt         time.Time          `json:"expiresAt"`
	Scope             scopeResponse      `json:"scope"`
	Retired           bool               `json:"retired"`
	CreatedAt         time.Time          `json:"createdAt"`
}

type scopeResponse struct {
	ChannelID  *string            `json:"channelId,omitempty"`
	TargetType *coupon.TargetType `json:"targetType,omitempty"`
	TargetID   *string            `json:"targetId,omitempty"`
}

func toTemplateResponse(t *coupon.Template) templateResponse {
	return templateResponse{
		TemplateID:        t.ID,
		Code:              t.Code,
		DiscountType:      string(t.DiscountType),
		DiscountValue:     t.DiscountValue,
		MaxDiscountAmount: t.MaxDiscount,
		MinPurchaseAmount: t.MinPurchase,
		RefundPolicy:      string(t.RefundPolicy),
		ExpiresAt:         t.ExpiresAt,
		Scope: scopeResponse{
			ChannelID:  t.Scope.ChannelID,
			TargetType: t.Scope.TargetType,
			TargetID:   t.Scope.TargetID,
		},
		Retired:   t.Retired,
		CreatedAt: t.CreatedAt,
	}
}

type claimRequest struct {
	UserID string `json:"userId"`
}

type issuanceResponse struct {
	IssuanceID    string           `json:"issuanceId"`
	TemplateID    string           `json:"templateId"`
	Status        string           `json:"status"`
	DiscountType  string           `json:"discountType,omitempty"`
	DiscountValue *decimal.Decimal `json:"discountValue,omitempty"`
	IssuedAt      time.Time        `json:"issuedAt"`
	ExpiresAt     time.Time        `json:"expiresAt"`
	UsedAt        *time.Time       `json:"usedAt,omitempty"`
	Scope         *scopeResponse   `json:"scope,omitempty"`
}

// orderContextRequest is the checkout-supplied order context. OrderRef is
// required for redemption (it becomes the redemption reference) and ignored
// for claimable listings.
type orderContextRequest struct {
	UserID     string          `json:"userId"`
	OrderType  string          `json:"orderType"`
	TargetID   string          `json:"targetId"`
	ChannelID  string          `json:"channelId"`
	BaseAmount decimal.Decimal `json:"baseAmount"`
	OrderRef   string          `json:"orderRef,omitempty"`
}

func (req *orderContextRequest) toOrderContext() coupon.OrderContext {
	return coupon.OrderContext{
		UserID:     req.UserID,
		OrderType:  coupon.TargetType(req.OrderType),
		TargetID:   req.TargetID,
		ChannelID:  req.ChannelID,
		BaseAmount: req.BaseAmount,
		OrderRef:   req.OrderRef,
	}
}

type redeemResponse struct {
	IssuanceID     string          `json:"issuanceId"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	FinalAmount    decimal.Decimal `json:"finalAmount"`
}

type reverseRequest struct {
	RedemptionRef string `json:"redemptionRef"`
}

type claimableResponse struct {
	TemplateIDs []string `json:"templateIds"`
}
