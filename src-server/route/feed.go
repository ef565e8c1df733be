package route

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"circlekeeper/src-server/feed"
	"circlekeeper/src-server/model"
	"circlekeeper/src-server/utils"
)

// Map a token validation failure onto the response the calendar client
// should act on. Bodies stay generic so the endpoint can't be used as a
// token-probing oracle.
func feedErrorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrTokenFormat):
		return http.StatusBadRequest, "Invalid token format"
	case errors.Is(err, model.ErrTokenNotFound):
		return http.StatusNotFound, "Invalid feed URL"
	case errors.Is(err, model.ErrTokenRevoked):
		return http.StatusForbidden, "This feed URL has been revoked"
	case errors.Is(err, model.ErrTokenExpired):
		return http.StatusForbidden, "This feed URL has expired"
	case errors.Is(err, model.ErrRateLimited):
		return http.StatusTooManyRequests, "Too many requests. Please try again later."
	default:
		return http.StatusInternalServerError, "Unable to generate calendar feed"
	}
}

func Feed(muxer *http.ServeMux, as *utils.AppState) {
	// CORS preflight for browser-based subscription flows
	muxer.HandleFunc("OPTIONS /feed/{token}", func(w http.ResponseWriter, r *http.Request) {
		allowCORS(w)
		w.WriteHeader(http.StatusNoContent)
	})

	muxer.HandleFunc("GET /feed/{token}", func(w http.ResponseWriter, r *http.Request) {
		allowCORS(w)
		token := r.PathValue("token")

		respondError := func(status int, msg string) {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(status)
			if _, err := io.WriteString(w, msg); err != nil {
				slog.Warn("can't write to response", "where", "route/feed.go", "error", err)
			}
		}

		startTimer := time.Now()
		tokenModel, err := model.ValidateFeedToken(r.Context(), as.BunDB, token)
		utils.SendLatency(as.MetricChans.DatabaseRead, float64(time.Since(startTimer).Microseconds()))
		if err != nil {
			status, msg := feedErrorResponse(err)
			if !errors.Is(err, model.ErrTokenFormat) {
				// malformed tokens never reach storage and are not
				// worth an access log row
				logAccess(as, token, tokenCircleID(tokenModel), status, r)
			}
			if status == http.StatusInternalServerError {
				slog.Error("can't validate feed token",
					"token_prefix", utils.TokenPrefix(token), "error", err)
			}
			utils.SendOutcome(as.MetricChans.FeedServed, outcomeLabel(status))
			respondError(status, msg)
			return
		}

		buildTimer := time.Now()
		body, err := func() (string, error) {
			cfg, err := feed.Sanitize(r.Context(), as.BunDB, tokenModel)
			if err != nil {
				return "", err
			}
			circleName, err := model.CircleName(r.Context(), as.BunDB, tokenModel.CircleID)
			if err != nil {
				return "", err
			}
			calendar := feed.Build(r.Context(), as.BunDB, tokenModel.CircleID, circleName, cfg, as.Config.GetHostname())
			return calendar.ToIcal()
		}()
		utils.SendLatency(as.MetricChans.FeedBuild, float64(time.Since(buildTimer).Microseconds()))
		if err != nil {
			slog.Error("can't build calendar feed",
				"token_prefix", utils.TokenPrefix(token),
				"circle_id", tokenModel.CircleID,
				"error", err)
			logAccess(as, token, tokenModel.CircleID, http.StatusInternalServerError, r)
			utils.SendOutcome(as.MetricChans.FeedServed, "error")
			respondError(http.StatusInternalServerError, "Unable to generate calendar feed")
			return
		}

		logAccess(as, token, tokenModel.CircleID, http.StatusOK, r)
		utils.SendOutcome(as.MetricChans.FeedServed, "ok")

		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="circlekeeper-calendar.ics"`)
		w.Header().Set("Cache-Control", "private, max-age=900")
		w.WriteHeader(http.StatusOK)
		if _, err := io.WriteString(w, body); err != nil {
			slog.Warn("can't write to response", "where", "route/feed.go", "error", err)
		}
	})
}

func tokenCircleID(tokenModel *model.FeedToken) string {
	if tokenModel == nil {
		return ""
	}
	return tokenModel.CircleID
}

func outcomeLabel(status int) string {
	switch status {
	case http.StatusOK:
		return "ok"
	case http.StatusTooManyRequests:
		return "rate_limited"
	case http.StatusInternalServerError:
		return "error"
	default:
		return "denied"
	}
}

// Fire-and-forget access log; detached from the request context so a
// client hangup can't cancel the insert, and any failure only warns.
func logAccess(as *utils.AppState, token, circleID string, status int, r *http.Request) {
	userAgent := r.UserAgent()
	remoteAddr := r.RemoteAddr
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logModel := model.FeedAccessLog{
			TokenPrefix: utils.TokenPrefix(token),
			CircleID:    circleID,
			StatusCode:  status,
			UserAgent:   userAgent,
			RemoteAddr:  remoteAddr,
		}
		logModel.Record(ctx, as.BunDB)
	}()
}
