package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"CipherGate-backend/internal/platform/apierr"
)

const (
	CtxUserIDKey = "user_id"
	CtxRoleKey   = "role"
)

const (
	RoleWorker = "worker"
	RoleAdmin  = "admin"
)

// Principal: 認証済みリクエストの主体
type Principal struct {
	ID   string
	Role string
}

func (p Principal) IsWorker() bool { return p.Role == RoleWorker }
func (p Principal) IsAdmin() bool  { return p.Role == RoleAdmin }

// RequireAuth: Authorization: Bearer <token> を検証して context に sub/role を詰める
func RequireAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" {
			abort(c, apierr.ErrUnauthenticated("missing Authorization header"))
			return
		}

		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abort(c, apierr.ErrUnauthenticated("invalid Authorization header"))
			return
		}

		tokenStr := strings.TrimSpace(parts[1])
		if tokenStr == "" {
			abort(c, apierr.ErrUnauthenticated("empty token"))
			return
		}

		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
			return secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || token == nil || !token.Valid {
			abort(c, apierr.ErrUnauthenticated("invalid token"))
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			abort(c, apierr.ErrUnauthenticated("invalid claims"))
			return
		}

		sub, err := claims.GetSubject()
		if err != nil || sub == "" {
			abort(c, apierr.ErrUnauthenticated("invalid sub"))
			return
		}

		role, _ := claims["role"].(string)
		if role != RoleWorker && role != RoleAdmin {
			abort(c, apierr.ErrForbidden("unknown role"))
			return
		}

		c.Set(CtxUserIDKey, sub)
		c.Set(CtxRoleKey, role)
		c.Next()
	}
}

// RequireRole: 例) admin のみ許可したい時に追加
func RequireRole(roles ...string) gin.HandlerFunc {
	roleSet := make(map[string]struct{})
	for _, r := range roles {
		if r == "" {
			continue
		}
		roleSet[r] = struct{}{}
	}

	return func(c *gin.Context) {
		p, ok := CurrentPrincipal(c)
		if !ok {
			abort(c, apierr.ErrForbidden("missing role"))
			return
		}
		if _, allowed := roleSet[p.Role]; !allowed {
			abort(c, apierr.ErrForbidden("forbidden"))
			return
		}
		c.Next()
	}
}

// CurrentPrincipal: RequireAuth が詰めた値を取り出す
func CurrentPrincipal(c *gin.Context) (Principal, bool) {
	id := c.GetString(CtxUserIDKey)
	role := c.GetString(CtxRoleKey)
	if id == "" || role == "" {
		return Principal{}, false
	}
	return Principal{ID: id, Role: role}, true
}

func abort(c *gin.Context, e *apierr.APIError) {
	c.AbortWithStatusJSON(apierr.ToHTTPStatus(e), apierr.Body(e))
}
