package router

import (
	"database/sql"
	"net/http"

	_ "pet-health-tracker/docs"

	"pet-health-tracker/internal/adapters/analytics"
	mem "pet-health-tracker/internal/adapters/storage/memory"
	pg "pet-health-tracker/internal/adapters/storage/postgres"
	"pet-health-tracker/internal/domain/pets"
	"pet-health-tracker/internal/domain/records"
	"pet-health-tracker/internal/domain/sharetokens"
	"pet-health-tracker/internal/domain/sharing"
	"pet-health-tracker/internal/domain/vaccinations"
	"pet-health-tracker/internal/middleware"
	"pet-health-tracker/internal/platform/logger"
	"pet-health-tracker/internal/platform/obs"
	portanalytics "pet-health-tracker/internal/ports/analytics"
	"pet-health-tracker/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

const (
	DefaultShareRatePerSec = 5
	DefaultShareRateBurst  = 20
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	Logger    logger.Logger          // nil = NewNop
	Analytics portanalytics.Sink     // nil = LogSink sobre Logger
	ShareURLs sharetokens.URLBuilder // campos vacíos = defaults

	// Rate limit por IP del endpoint público /shared/{token}.
	ShareRatePerSec float64
	ShareRateBurst  int

	// TrustProxyHeaders aplica X-Forwarded-For/X-Real-IP a RemoteAddr.
	// Solo detrás de un proxy propio: si no, cualquier cliente elige su IP
	// y esquiva el rate limit.
	TrustProxyHeaders bool
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}
	sink := opts.Analytics
	if sink == nil {
		sink = analytics.NewLogSink(log)
	}
	urls := sharetokens.NewURLBuilder(opts.ShareURLs.ProductionBaseURL, opts.ShareURLs.StagingBaseURL, opts.ShareURLs.StagingMarker)
	perSec, burst := opts.ShareRatePerSec, opts.ShareRateBurst
	if perSec <= 0 {
		perSec = DefaultShareRatePerSec
	}
	if burst <= 0 {
		burst = DefaultShareRateBurst
	}

	obs.Init()

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	if opts.TrustProxyHeaders {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.AccessLog(log))
	r.Use(chimw.Recoverer)
	r.Use(obs.Instrument)

	r.Use(middleware.AuthContext(opts.AuthVerifier, log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", obs.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	var (
		petRepo   pets.Repository
		tokenRepo sharetokens.Repository
		vaccRepo  vaccinations.Repository
		recRepo   records.Repository
	)

	if opts.DB != nil {
		petRepo = pg.NewPetsRepo(opts.DB)
		tokenRepo = pg.NewShareTokensRepo(opts.DB)
		vaccRepo = pg.NewVaccinationsRepo(opts.DB)
		recRepo = pg.NewRecordsRepo(opts.DB)
	} else {
		petRepo = mem.NewPetRepo()
		tokenRepo = mem.NewShareTokenRepo()
		vaccRepo = mem.NewVaccinationRepo()
		recRepo = mem.NewRecordsRepo()
	}

	// Services por módulo
	petsSvc := pets.NewService(petRepo)
	tokensSvc := sharetokens.NewService(tokenRepo, sink, log)
	vaccSvc := vaccinations.NewService(vaccRepo)
	recSvc := records.NewService(recRepo)
	sharingSvc := sharing.NewService(tokenRepo, petsSvc, vaccSvc, recSvc, log)

	// Rutas por módulo
	pets.RegisterRoutes(r, petsSvc)
	sharetokens.RegisterRoutes(r, tokensSvc, petsSvc, urls)
	vaccinations.RegisterRoutes(r, vaccSvc, petsSvc)
	records.RegisterRoutes(r, recSvc, petsSvc)

	// Público: sin auth, con rate limit por IP.
	r.Group(func(pr chi.Router) {
		pr.Use(middleware.RateLimit(perSec, burst))
		sharing.RegisterRoutes(pr, sharingSvc)
	})

	return r
}
