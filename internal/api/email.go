package api

import (
	"encoding/json"
	"net/http"

	"github.com/mjaros/pvweekly/internal/notification"
	"github.com/mjaros/pvweekly/internal/storage"
)

// registerEmailRoutes exposes the stored email configuration used for report
// delivery. Only mounted when a storage backend is available.
func registerEmailRoutes(mux *http.ServeMux, notifSvc *notification.Service) {
	mux.HandleFunc("/email/config", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			cfg, err := notifSvc.GetConfig(r.Context())
			if err != nil {
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			if cfg == nil {
				cfg = &storage.EmailConfig{}
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(cfg)

		case http.MethodPut:
			var req storage.EmailConfig
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "invalid request body", http.StatusBadRequest)
				return
			}
			if err := notifSvc.SaveConfig(r.Context(), req); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			w.WriteHeader(http.StatusOK)

		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/email/test", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req struct {
			To string `json:"to"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.To == "" {
			http.Error(w, "invalid request body, want {\"to\": \"...\"}", http.StatusBadRequest)
			return
		}

		err := notifSvc.SendEmail(r.Context(), req.To,
			"pvweekly test message", "<p>The stored email configuration works.</p>")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
}
