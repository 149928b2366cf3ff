package accesskit

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// Middleware provides HTTP middleware gating handlers on permission and
// role checks. A policy denial answers 403; any failure to determine the
// decision (validation aside) answers 503, so operators can tell "access
// denied" apart from "access could not be determined".
type Middleware struct {
	service      *Service
	getUserID    func(*http.Request) string
	errorHandler func(http.ResponseWriter, *http.Request, error)
}

// MiddlewareOption configures the Middleware.
type MiddlewareOption func(*Middleware)

// NewMiddleware creates a new Middleware instance.
//
// Example:
//
//	mw := accesskit.NewMiddleware(service,
//	    accesskit.WithUserIDExtractor(func(r *http.Request) string {
//	        return r.Header.Get("X-User-ID")
//	    }),
//	)
func NewMiddleware(service *Service, opts ...MiddlewareOption) *Middleware {
	m := &Middleware{
		service:      service,
		getUserID:    defaultGetUserID,
		errorHandler: defaultErrorHandler,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// WithUserIDExtractor sets a custom function to extract the user ID from a
// request.
func WithUserIDExtractor(fn func(*http.Request) string) MiddlewareOption {
	return func(m *Middleware) {
		m.getUserID = fn
	}
}

// WithErrorHandler sets a custom error handler for middleware.
func WithErrorHandler(fn func(http.ResponseWriter, *http.Request, error)) MiddlewareOption {
	return func(m *Middleware) {
		m.errorHandler = fn
	}
}

func defaultGetUserID(r *http.Request) string {
	return GetUserID(r.Context())
}

func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	if IsInvalidRequest(err) {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	// DecisionUnavailable and anything unexpected: the decision could not
	// be determined, which is not the same as denied.
	http.Error(w, "access could not be determined", http.StatusServiceUnavailable)
}

// ScopeExtractor extracts the (organization, group) scope from a request.
type ScopeExtractor func(*http.Request) (organizationID, groupID string, err error)

// GlobalScope returns an extractor for routes without scoping.
func GlobalScope() ScopeExtractor {
	return func(*http.Request) (string, string, error) {
		return "", "", nil
	}
}

// ScopeFromPath reads the organization and group IDs from URL path values.
// Pass an empty groupParam for organization-only routes.
//
// Example:
//
//	// For route /orgs/{orgID}/groups/{groupID}/children
//	mw.RequirePermission("children", accesskit.ActionRead,
//	    accesskit.ScopeFromPath("orgID", "groupID"))
func ScopeFromPath(orgParam, groupParam string) ScopeExtractor {
	return func(r *http.Request) (string, string, error) {
		orgID := r.PathValue(orgParam)
		if orgID == "" {
			return "", "", NewError(ErrInvalidRequest, "organization ID not found in path")
		}
		groupID := ""
		if groupParam != "" {
			groupID = r.PathValue(groupParam)
		}
		return orgID, groupID, nil
	}
}

// ScopeFromQuery reads the organization and group IDs from query parameters.
// Both are optional: an absent parameter leaves that scope level global.
func ScopeFromQuery(orgParam, groupParam string) ScopeExtractor {
	return func(r *http.Request) (string, string, error) {
		q := r.URL.Query()
		groupID := ""
		if groupParam != "" {
			groupID = q.Get(groupParam)
		}
		return q.Get(orgParam), groupID, nil
	}
}

// ScopeFromHeader reads the organization and group IDs from headers.
func ScopeFromHeader(orgHeader, groupHeader string) ScopeExtractor {
	return func(r *http.Request) (string, string, error) {
		groupID := ""
		if groupHeader != "" {
			groupID = r.Header.Get(groupHeader)
		}
		return r.Header.Get(orgHeader), groupID, nil
	}
}

// RequirePermission gates a handler on a permission check.
//
// Example:
//
//	router.Handle("/orgs/{orgID}/invoices",
//	    mw.RequirePermission("invoices", accesskit.ActionRead,
//	        accesskit.ScopeFromPath("orgID", ""))(invoicesHandler))
func (m *Middleware) RequirePermission(resource string, action Action, scope ScopeExtractor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := m.getUserID(r)
			if userID == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			orgID, groupID, err := scope(r)
			if err != nil {
				m.errorHandler(w, r, err)
				return
			}

			ctx := m.requestContext(r, userID)
			resp, err := m.service.CheckPermission(ctx, PermissionCheckRequest{
				UserID:   userID,
				Resource: resource,
				Action:   action,
				Context: RequestContext{
					OrganizationID: orgID,
					GroupID:        groupID,
				},
			})
			if err != nil {
				m.errorHandler(w, r, err)
				return
			}
			if !resp.Allowed {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAnyRole gates a handler on role membership.
//
// Example:
//
//	mw.RequireAnyRole([]accesskit.RoleType{accesskit.RoleDirector},
//	    accesskit.ScopeFromPath("orgID", ""))
func (m *Middleware) RequireAnyRole(roles []RoleType, scope ScopeExtractor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := m.getUserID(r)
			if userID == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			orgID, groupID, err := scope(r)
			if err != nil {
				m.errorHandler(w, r, err)
				return
			}

			ctx := m.requestContext(r, userID)
			ok, err := m.service.HasRole(ctx, userID, roles, &RequestContext{
				OrganizationID: orgID,
				GroupID:        groupID,
			})
			if err != nil {
				m.errorHandler(w, r, err)
				return
			}
			if !ok {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requestContext seeds the request context with the principal and the
// audit metadata the service records on denials and mutations.
func (m *Middleware) requestContext(r *http.Request, userID string) context.Context {
	ctx := WithUserID(r.Context(), userID)
	ctx = WithIPAddress(ctx, r.RemoteAddr)
	ctx = WithUserAgent(ctx, r.UserAgent())

	requestID := r.Header.Get("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	return WithRequestID(ctx, requestID)
}
