package tebex

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/fastprodman/couponsync/internal/commerce"
)

type apiError struct {
	Code    int    `json:"error_code"`
	Message string `json:"error_message"`
}

type createCouponRequest struct {
	Code                      string  `json:"code"`
	EffectiveOn               string  `json:"effective_on"`
	Packages                  []int64 `json:"packages,omitempty"`
	Categories                []int64 `json:"categories,omitempty"`
	DiscountType              string  `json:"discount_type"`
	DiscountAmount            float64 `json:"discount_amount"`
	DiscountPercentage        float64 `json:"discount_percentage"`
	RedeemUnlimited           bool    `json:"redeem_unlimited"`
	ExpireNever               bool    `json:"expire_never"`
	ExpireLimit               int64   `json:"expire_limit"`
	ExpireDate                string  `json:"expire_date,omitempty"`
	StartDate                 string  `json:"start_date,omitempty"`
	BasketType                string  `json:"basket_type"`
	Minimum                   float64 `json:"minimum"`
	DiscountApplicationMethod int     `json:"discount_application_method"`
	UserLimit                 int64   `json:"user_limit,omitempty"`
	Username                  string  `json:"username,omitempty"`
	Note                      string  `json:"note,omitempty"`
}

func toCreateRequest(s commerce.CouponSpec) createCouponRequest {
	return createCouponRequest{
		Code:                      s.Code,
		EffectiveOn:               s.EffectiveOn,
		Packages:                  s.Packages,
		Categories:                s.Categories,
		DiscountType:              s.DiscountType,
		DiscountAmount:            s.Amount.InexactFloat64(),
		DiscountPercentage:        s.Percentage.InexactFloat64(),
		RedeemUnlimited:           s.RedeemUnlimited,
		ExpireNever:               s.ExpireNever,
		ExpireLimit:               s.ExpireLimit,
		ExpireDate:                s.ExpireDate,
		StartDate:                 s.StartDate,
		BasketType:                s.BasketType,
		Minimum:                   s.Minimum.InexactFloat64(),
		DiscountApplicationMethod: s.DiscountApplicationMethod,
		UserLimit:                 s.UserLimit,
		Username:                  s.Username,
		Note:                      s.Note,
	}
}

type couponEnvelope struct {
	Data couponDTO `json:"data"`
}

type couponDTO struct {
	ID        int64  `json:"id"`
	Code      string `json:"code"`
	Effective struct {
		Type       string  `json:"type"`
		Packages   []int64 `json:"packages"`
		Categories []int64 `json:"categories"`
	} `json:"effective"`
	Discount struct {
		Type       string          `json:"type"`
		Percentage decimal.Decimal `json:"percentage"`
		Value      decimal.Decimal `json:"value"`
	} `json:"discount"`
	Expire struct {
		RedeemUnlimited looseBool `json:"redeem_unlimited"`
		ExpireNever     looseBool `json:"expire_never"`
		Limit           looseInt  `json:"limit"`
		Date            string    `json:"date"`
	} `json:"expire"`
	BasketType                string          `json:"basket_type"`
	StartDate                 string          `json:"start_date"`
	UserLimit                 looseInt        `json:"user_limit"`
	Minimum                   decimal.Decimal `json:"minimum"`
	DiscountApplicationMethod looseInt        `json:"discount_application_method"`
	Username                  string          `json:"username"`
	Note                      string          `json:"note"`
}

func (d couponDTO) toCoupon() commerce.Coupon {
	method := int(d.DiscountApplicationMethod)
	if method == 0 {
		method = commerce.ApplyEachPackage
	}

	return commerce.Coupon{
		ID: d.ID,
		CouponSpec: commerce.CouponSpec{
			Code:                      d.Code,
			DiscountType:              d.Discount.Type,
			Amount:                    d.Discount.Value,
			Percentage:                d.Discount.Percentage,
			EffectiveOn:               d.Effective.Type,
			Packages:                  d.Effective.Packages,
			Categories:                d.Effective.Categories,
			RedeemUnlimited:           bool(d.Expire.RedeemUnlimited),
			ExpireNever:               bool(d.Expire.ExpireNever),
			ExpireLimit:               int64(d.Expire.Limit),
			ExpireDate:                d.Expire.Date,
			StartDate:                 d.StartDate,
			BasketType:                d.BasketType,
			Minimum:                   d.Minimum,
			DiscountApplicationMethod: method,
			UserLimit:                 int64(d.UserLimit),
			Username:                  d.Username,
			Note:                      d.Note,
		},
	}
}

type packageDTO struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	CustomPrice looseBool       `json:"custom_price"`
}

// looseBool accepts true, "true", 1 and "1". The API is not consistent
// about quoting flags.
type looseBool bool

func (b *looseBool) UnmarshalJSON(data []byte) error {
	s := string(bytes.Trim(data, `"`))
	switch s {
	case "true", "1":
		*b = true
	case "false", "0", "", "null":
		*b = false
	default:
		v, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}
		*b = looseBool(v)
	}

	return nil
}

// looseInt accepts both 5 and "5".
type looseInt int64

func (i *looseInt) UnmarshalJSON(data []byte) error {
	s := string(bytes.Trim(data, `"`))
	if s == "" || s == "null" {
		*i = 0
		return nil
	}

	n := json.Number(s)

	v, err := n.Int64()
	if err != nil {
		return err
	}

	*i = looseInt(v)

	return nil
}
