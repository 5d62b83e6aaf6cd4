package app

import (
	"time"

	"github.com/fastprodman/couponsync/internal/config"
	"github.com/fastprodman/couponsync/internal/players"
	"github.com/fastprodman/couponsync/internal/rates/oxr"
	pgcoupons "github.com/fastprodman/couponsync/internal/repos/coupons/postgres"
	pgissuances "github.com/fastprodman/couponsync/internal/repos/issuances/postgres"
	pgpackages "github.com/fastprodman/couponsync/internal/repos/packages/postgres"
	pgsettings "github.com/fastprodman/couponsync/internal/repos/settings/postgres"
	"github.com/fastprodman/couponsync/internal/services/catalog"
	"github.com/fastprodman/couponsync/internal/services/issuance"
	"github.com/fastprodman/couponsync/internal/services/renewal"
)

func (in *Infra) IssuanceService(pc config.PlayersConfig, timeout time.Duration) *issuance.Service {
	return issuance.New(issuance.Deps{
		Storefront: in.Storefront,
		Ledger:     pgcoupons.New(in.DB),
		Settings:   pgsettings.New(in.DB),
		Keys:       pgissuances.New(in.DB),
		Players:    players.NewMojang(pc.BaseURL, timeout),
		Alerts:     in.Alerts,
	})
}

func (in *Infra) RenewalEngine(rc config.RatesConfig, timeout time.Duration) *renewal.Engine {
	return renewal.New(renewal.Deps{
		Rates:      oxr.New(rc.BaseURL, rc.AppID, timeout),
		Storefront: in.Storefront,
		Settings:   pgsettings.New(in.DB),
		Packages:   pgpackages.New(in.DB),
		Ledger:     pgcoupons.New(in.DB),
		Alerts:     in.Alerts,
		Floor:      rc.Floor,
	})
}

func (in *Infra) CatalogService() *catalog.Service {
	return catalog.New(in.Storefront, pgpackages.New(in.DB))
}
