package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fastfare/fastfare-backend/api/controllers"
	"github.com/fastfare/fastfare-backend/api/middleware"
	"github.com/fastfare/fastfare-backend/internal/adminops"
	"github.com/fastfare/fastfare-backend/internal/cod"
	"github.com/fastfare/fastfare-backend/internal/ledger"
	"github.com/fastfare/fastfare-backend/internal/partners"
	"github.com/fastfare/fastfare-backend/internal/sellers"
	"github.com/fastfare/fastfare-backend/internal/settlement"
	"github.com/fastfare/fastfare-backend/internal/tier"
	"github.com/fastfare/fastfare-backend/internal/withdrawal"
	"github.com/fastfare/fastfare-backend/pkg/config"
	"github.com/fastfare/fastfare-backend/pkg/enums"
	"github.com/fastfare/fastfare-backend/pkg/logger"
	"github.com/fastfare/fastfare-backend/pkg/redis"
)

// Services groups everything the HTTP surface depends on.
type Services struct {
	Sellers     *sellers.Service
	Partners    *partners.Service
	Ledger      *ledger.Service
	COD         *cod.Service
	Withdrawals *withdrawal.Service
	Settlements *settlement.Service
	Tier        *tier.Service
	AdminOps    *adminops.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	redisClient *redis.Client,
	readiness map[string]controllers.Pinger,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, readiness))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/sellers/{id}", func(r chi.Router) {
			r.Get("/stats", controllers.SellerStats(svcs.Sellers, logg))
			r.Get("/ledger", controllers.SellerLedgerList(svcs.Ledger, logg))
			r.Post("/withdrawals", controllers.WithdrawalCreate(svcs.Withdrawals, enums.ActorKindSeller, logg))
			r.Get("/withdrawals", controllers.WithdrawalList(svcs.Withdrawals, enums.ActorKindSeller, logg))
		})

		r.Route("/partners/{id}", func(r chi.Router) {
			r.Get("/balance", controllers.PartnerBalance(svcs.Partners, logg))
			r.Get("/ledger", controllers.PartnerLedgerList(svcs.Ledger, logg))
			r.Post("/withdrawals", controllers.WithdrawalCreate(svcs.Withdrawals, enums.ActorKindPartner, logg))
			r.Get("/withdrawals", controllers.WithdrawalList(svcs.Withdrawals, enums.ActorKindPartner, logg))
		})

		r.Get("/withdrawals/{id}", controllers.WithdrawalGet(svcs.Withdrawals, logg))

		r.Route("/cod/{orderId}", func(r chi.Router) {
			r.Get("/", controllers.CODGet(svcs.COD, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(enums.MemberRolePartner, logg))
				r.Post("/collect", controllers.CODCollect(svcs.COD, logg))
				r.Post("/remit", controllers.CODRemit(svcs.COD, logg))
			})
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireStaff(logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/withdrawals/{id}", func(r chi.Router) {
			r.Post("/approve", controllers.AdminWithdrawalApprove(svcs.Withdrawals, logg))
			r.Post("/reject", controllers.AdminWithdrawalReject(svcs.Withdrawals, logg))
			r.Post("/confirm", controllers.AdminWithdrawalConfirm(svcs.Withdrawals, logg))
		})

		r.Route("/settlements/{id}", func(r chi.Router) {
			r.Get("/", controllers.AdminSettlementGet(svcs.Settlements, logg))
			r.Post("/hold", controllers.AdminSettlementHold(svcs.AdminOps, logg))
			r.Post("/release", controllers.AdminSettlementRelease(svcs.AdminOps, logg))
		})

		r.Route("/cod", func(r chi.Router) {
			r.Get("/", controllers.AdminCODList(svcs.COD, logg))
			r.Post("/{orderId}/reconcile", controllers.AdminCODReconcile(svcs.COD, logg))
			r.Post("/{orderId}/dispute", controllers.AdminCODDispute(svcs.COD, logg))
			r.Post("/{orderId}/resolve", controllers.AdminCODResolve(svcs.AdminOps, logg))
		})

		r.Route("/sellers/{id}", func(r chi.Router) {
			r.Post("/tier", controllers.AdminSellerTier(svcs.Tier, svcs.AdminOps, logg))
			r.Get("/tier-logs", controllers.AdminSellerTierLogs(svcs.Tier, logg))
			r.Post("/payout-hold", controllers.AdminPayoutHold(svcs.AdminOps, enums.OverrideTargetSeller, logg))
			r.Post("/payout-release", controllers.AdminPayoutRelease(svcs.AdminOps, enums.OverrideTargetSeller, logg))
		})

		r.Route("/partners/{id}", func(r chi.Router) {
			r.Post("/suspend", controllers.AdminPartnerSuspend(svcs.AdminOps, logg))
			r.Post("/activate", controllers.AdminPartnerActivate(svcs.AdminOps, logg))
			r.Post("/payout-hold", controllers.AdminPayoutHold(svcs.AdminOps, enums.OverrideTargetPartner, logg))
			r.Post("/payout-release", controllers.AdminPayoutRelease(svcs.AdminOps, enums.OverrideTargetPartner, logg))
		})

		r.Get("/overrides", controllers.AdminOverridesList(svcs.AdminOps, logg))
		r.Post("/ledger/corrections", controllers.AdminLedgerCorrection(svcs.AdminOps, logg))
	})

	return r
}
