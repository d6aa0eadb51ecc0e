package api

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/eluxtan/gasledger/internal/custody"
	"github.com/eluxtan/gasledger/internal/model"
)

// Reconciler recomputes every client projection on demand.
type Reconciler interface {
	Reconcile(ctx context.Context) ([]string, error)
}

// Deps are the collaborators the API handlers need.
type Deps struct {
	DB         *sql.DB
	JWTSecret  string
	Tracker    *custody.Tracker
	Reconciler Reconciler
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: d.DB, JWTSecret: d.JWTSecret}
	usersHandler := &UsersHandler{DB: d.DB, Clients: d.Tracker.Clients}
	assetsHandler := &AssetsHandler{DB: d.DB, Tracker: d.Tracker}
	clientsHandler := &ClientsHandler{Tracker: d.Tracker}
	transfersHandler := &TransfersHandler{Tracker: d.Tracker}
	reconcileHandler := &ReconcileHandler{Reconciler: d.Reconciler}

	authMW := AuthMiddleware(d.JWTSecret, d.DB)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireAgent := RequireRole(model.RoleAgent)

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated routes.
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Assets: read (agent+), intake and removal (admin).
	mux.Handle("GET /api/assets", authMW(requireAgent(http.HandlerFunc(assetsHandler.List))))
	mux.Handle("POST /api/assets", authMW(requireAdmin(http.HandlerFunc(assetsHandler.Create))))
	mux.Handle("GET /api/assets/stats", authMW(requireAgent(http.HandlerFunc(assetsHandler.Stats))))
	mux.Handle("GET /api/assets/removals", authMW(requireAdmin(http.HandlerFunc(assetsHandler.Removals))))
	mux.Handle("GET /api/assets/serial/{serial}", authMW(requireAgent(http.HandlerFunc(assetsHandler.GetBySerial))))
	mux.Handle("GET /api/assets/{id}", authMW(requireAgent(http.HandlerFunc(assetsHandler.Get))))
	mux.Handle("DELETE /api/assets/{id}", authMW(requireAdmin(http.HandlerFunc(assetsHandler.Delete))))
	mux.Handle("GET /api/assets/{id}/history", authMW(requireAgent(http.HandlerFunc(assetsHandler.History))))
	mux.Handle("GET /api/assets/{id}/replay", authMW(requireAgent(http.HandlerFunc(assetsHandler.Replay))))
	mux.Handle("PUT /api/assets/{id}/image", authMW(requireAdmin(http.HandlerFunc(assetsHandler.UploadImage))))
	mux.Handle("GET /api/assets/{id}/image", authMW(requireAgent(http.HandlerFunc(assetsHandler.GetImage))))

	// Clients: agents manage them; a client user may read its own record.
	mux.Handle("GET /api/clients", authMW(requireAgent(http.HandlerFunc(clientsHandler.List))))
	mux.Handle("POST /api/clients", authMW(requireAgent(http.HandlerFunc(clientsHandler.Create))))
	mux.Handle("GET /api/clients/{id}", authMW(http.HandlerFunc(clientsHandler.Get)))
	mux.Handle("PUT /api/clients/{id}", authMW(requireAgent(http.HandlerFunc(clientsHandler.Update))))
	mux.Handle("GET /api/clients/{id}/assets", authMW(http.HandlerFunc(clientsHandler.Assets)))
	mux.Handle("DELETE /api/clients/{id}", authMW(requireAdmin(http.HandlerFunc(clientsHandler.Delete))))
	mux.Handle("POST /api/clients/{id}/recompute", authMW(requireAdmin(http.HandlerFunc(clientsHandler.Recompute))))

	// Transfers (agent+).
	mux.Handle("POST /api/transfers", authMW(requireAgent(http.HandlerFunc(transfersHandler.Create))))
	mux.Handle("GET /api/transfers", authMW(requireAgent(http.HandlerFunc(transfersHandler.List))))

	// Reconciliation (admin).
	mux.Handle("POST /api/reconcile", authMW(requireAdmin(http.HandlerFunc(reconcileHandler.Reconcile))))

	return mux
}

// Healthz handles GET /healthz.
func Healthz(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			jsonError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
