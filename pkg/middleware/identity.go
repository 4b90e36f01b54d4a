package middleware

import (
	"context"
	"net/http"
	"strings"

	apperrors "staybook/pkg/errors"
	"staybook/pkg/logger"
)

const (
	HeaderUserEmail = "X-User-Email"
	HeaderUserName  = "X-User-Name"
	HeaderUserRole  = "X-User-Role"

	callerKey contextKey = "caller"
)

type Role string

const (
	RoleClient Role = "CLIENT"
	RoleAgent  Role = "AGENT"
	RoleAdmin  Role = "ADMIN"
)

// Caller is the identity the gateway asserted for the request. The gateway
// authenticates; this service only reads the headers it forwards.
type Caller struct {
	Email string
	Name  string
	Role  Role
}

func (c Caller) Anonymous() bool { return c.Email == "" }

func (c Caller) IsClient() bool { return c.Role == RoleClient }

// IsStaff reports whether the caller manages listings and bookings.
func (c Caller) IsStaff() bool { return c.Role == RoleAgent || c.Role == RoleAdmin }

// Owns reports whether email belongs to the caller.
func (c Caller) Owns(email string) bool {
	return c.Email != "" && strings.EqualFold(c.Email, strings.TrimSpace(email))
}

func Identity(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := Caller{
				Email: strings.ToLower(strings.TrimSpace(r.Header.Get(HeaderUserEmail))),
				Name:  strings.TrimSpace(r.Header.Get(HeaderUserName)),
			}

			if raw := strings.TrimSpace(r.Header.Get(HeaderUserRole)); raw != "" {
				role := Role(strings.ToUpper(raw))
				switch role {
				case RoleClient, RoleAgent, RoleAdmin:
					caller.Role = role
				default:
					log.Warn("Ignoring unknown caller role",
						"request_id", RequestIDFromContext(r.Context()),
						"role", raw,
					)
				}
			}

			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}

func WithCaller(ctx context.Context, caller Caller) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

// CallerFromContext returns the zero Caller when no identity was attached.
func CallerFromContext(ctx context.Context) Caller {
	if caller, ok := ctx.Value(callerKey).(Caller); ok {
		return caller
	}
	return Caller{}
}

// RequireCaller fails with Unauthorized when the gateway sent no identity.
func RequireCaller(ctx context.Context) (Caller, error) {
	caller := CallerFromContext(ctx)
	if caller.Anonymous() {
		return caller, apperrors.Unauthorized("Authentication required")
	}
	return caller, nil
}

// RequireStaff is RequireCaller restricted to agents and administrators.
func RequireStaff(ctx context.Context) (Caller, error) {
	caller, err := RequireCaller(ctx)
	if err != nil {
		return caller, err
	}
	if !caller.IsStaff() {
		return caller, apperrors.Forbidden("This operation requires the AGENT or ADMIN role")
	}
	return caller, nil
}
