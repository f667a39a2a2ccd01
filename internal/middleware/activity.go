package middleware

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/yeojun7429/portfolio-api/internal/database"
)

// ActivityTracking records a write-activity row for authenticated mutating
// requests. Tracking failures never fail the request.
func ActivityTracking(activityRepo *database.UserActivityRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r)
			if user != nil && isWriteMethod(r.Method) {
				// Record in the background, independent of the request
				// lifecycle.
				userID := user.ID
				go func(parentCtx context.Context) {
					recordCtx, cancel := context.WithTimeout(context.WithoutCancel(parentCtx), 10*time.Second)
					defer cancel()

					if err := activityRepo.RecordWrite(recordCtx, userID, time.Now()); err != nil {
						log.Printf("Failed to record user activity: %v", err)
					}
				}(r.Context())
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isWriteMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}
