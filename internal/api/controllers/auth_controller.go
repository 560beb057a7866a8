package controllers

import (
	"errors"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	"github.com/taskforge/taskforge/internal/api/authenticator"
	"github.com/taskforge/taskforge/internal/perrors"
	"github.com/taskforge/taskforge/internal/services"
	user2 "github.com/taskforge/taskforge/internal/services/user"
)

func RegisterAuthRoutes(r *router.Router, svc *services.Services, auth *authenticator.Authenticator) {
	// Login with username and password
	r.POST("/api/auth/login", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		var body struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", perrors.NewErrInvalidRequest("Invalid request body", err))
			return
		}

		u, err := svc.User.Authenticate(stdCtx, body.Username, body.Password)
		if err != nil {
			switch {
			case errors.Is(err, user2.ErrInvalidCredentials):
				writeError(ctx, stdCtx, "Invalid username or password", perrors.New(perrors.ErrCodeUnauthorized, "Invalid username or password", err))
			default:
				writeError(ctx, stdCtx, "Failed to authenticate", perrors.NewErrInternalServerError("Failed to authenticate", err))
			}
			return
		}

		data := map[string]any{"user": u.Public()}
		if auth.AuthEnabled() {
			token, err := auth.IssueAccessToken(u)
			if err != nil {
				writeError(ctx, stdCtx, "Failed to issue access token", perrors.NewErrInternalServerError("Failed to issue access token", err))
				return
			}
			data["access_token"] = token
		}

		writeOK(ctx, stdCtx, "Authenticated successfully", data)
	})

	// Auth status, for clients deciding whether to show a login screen
	r.GET("/api/auth/enabled", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		writeOK(ctx, stdCtx, "Auth status", map[string]any{"enabled": auth.AuthEnabled()})
	})
}
