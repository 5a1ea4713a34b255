// Package app wires configuration, storage, providers and services.
package app

import (
	"fmt"
	"strings"
	"time"

	"tutor-billing/config"
	"tutor-billing/database"
	"tutor-billing/internal/api/billingjobs"
	"tutor-billing/internal/api/cardsetup"
	"tutor-billing/internal/api/sms"
	stripewebhooks "tutor-billing/internal/api/stripewebhook"
	routes "tutor-billing/internal/app/http"
	"tutor-billing/internal/app/http/middleware"
	"tutor-billing/internal/app/scheduler"
	stripeinfra "tutor-billing/internal/infra/stripe"
	twilioinfra "tutor-billing/internal/infra/twilio"
	"tutor-billing/internal/notify"
	"tutor-billing/internal/payments"
	"tutor-billing/internal/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// batchTimeout bounds one scheduled run.
const batchTimeout = 30 * time.Minute

type App struct {
	Config *config.Config
	Log    *zap.Logger

	Runner     *payments.Runner
	Retry      *payments.Retry
	CardSetup  *payments.CardSetup
	Reconciler *payments.Reconciler
	Notify     *notify.Service

	stripe *stripeinfra.Client
	twilio *twilioinfra.Client
}

func New(cfg *config.Config, log *zap.Logger) (*App, error) {
	db, err := database.Open(cfg.DBURL, cfg.DBAutoMigrate, log)
	if err != nil {
		return nil, err
	}
	st := store.New(db)

	stripeClient := stripeinfra.New(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	twilioClient := twilioinfra.New(cfg.TwilioAccountSID, cfg.TwilioAuthToken, log.Named("twilio"))

	notifier := &notify.Service{
		Repo:              st.Messaging,
		Payments:          st.Payments,
		Students:          st.Students,
		Transport:         twilioClient,
		StatusCallbackURL: cfg.PublicBaseURL + "/twilio-status",
		Now:               time.Now,
		Log:               log.Named("notify"),
	}

	a := &App{
		Config: cfg,
		Log:    log,
		Runner: &payments.Runner{
			Attendance: st.Attendance,
			Subsidies:  st.Subsidies,
			Profiles:   st.Profiles,
			Payments:   st.Payments,
			Settings:   st.Settings,
			Gateway:    stripeClient,
			Currency:   cfg.Currency,
			Location:   cfg.Timezone,
			Now:        time.Now,
			Log:        log.Named("billing-runner"),
		},
		Retry: &payments.Retry{
			Payments: st.Payments,
			Profiles: st.Profiles,
			Gateway:  stripeClient,
			Notifier: notifier,
			Now:      time.Now,
			Log:      log.Named("billing-retry"),
		},
		CardSetup: &payments.CardSetup{
			Students: st.Students,
			Profiles: st.Profiles,
			Gateway:  stripeClient,
			Currency: cfg.Currency,
			Log:      log.Named("card-setup"),
		},
		Reconciler: &payments.Reconciler{
			Payments: st.Payments,
			Profiles: st.Profiles,
			Gateway:  stripeClient,
			Now:      time.Now,
			Log:      log.Named("stripe-webhooks"),
		},
		Notify: notifier,
		stripe: stripeClient,
		twilio: twilioClient,
	}
	return a, nil
}

func (a *App) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(a.Log.Named("http")))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Split(a.Config.CORSOrigin, ","),
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: a.Config.CORSOrigin != "*",
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, routes.Handlers{
		CardSetup: &cardsetup.Handler{Service: a.CardSetup, Log: a.Log},
		Jobs:      &billingjobs.Handler{Runner: a.Runner, Retry: a.Retry, Log: a.Log},
		Stripe:    &stripewebhooks.Handler{Verifier: a.stripe, Reconciler: a.Reconciler, Log: a.Log},
		SMS: &sms.Handler{
			Service:       a.Notify,
			Validator:     a.twilio,
			PublicBaseURL: a.Config.PublicBaseURL,
			Log:           a.Log,
		},
	}, a.Config.JWTSecret)
	return r
}

// Scheduler builds the in-process cron for both billing batches.
func (a *App) Scheduler() (*scheduler.Scheduler, error) {
	s, err := scheduler.New(a.Config.Timezone, a.Log.Named("scheduler"),
		scheduler.Entry{Name: "billing-runner", Spec: a.Config.RunnerCron, Job: a.Runner, Timeout: batchTimeout},
		scheduler.Entry{Name: "billing-retry", Spec: a.Config.RetryCron, Job: a.Retry, Timeout: batchTimeout},
	)
	if err != nil {
		return nil, fmt.Errorf("scheduler: %w", err)
	}
	return s, nil
}
