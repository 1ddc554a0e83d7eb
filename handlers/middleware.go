package handlers

import (
	"net/http"
	"strings"

	"checkout-service/checkout"
	"checkout-service/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	HeaderSessionID = "X-Session-ID"
	SessionCookie   = "shop_session-id"

	HeaderUserID    = "X-User-ID"
	HeaderUserName  = "X-User-Name"
	HeaderUserEmail = "X-User-Email"
	HeaderUserPhone = "X-User-Phone"

	ctxKeySession   = "session"
	ctxKeySessionID = "sessionID"
)

const sessionCookieMaxAge = 30 * 24 * 60 * 60

// SessionMiddleware resolves the shopper's session from the X-Session-ID
// header or the session cookie, minting one when neither is present, and
// records the identity forwarded by the auth proxy.
func SessionMiddleware(sessions *checkout.Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(HeaderSessionID))
		if id == "" {
			if cookie, err := c.Cookie(SessionCookie); err == nil {
				id = strings.TrimSpace(cookie)
			}
		}
		if id == "" {
			id = uuid.New().String()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(SessionCookie, id, sessionCookieMaxAge, "/", "", false, true)
		}

		sess := sessions.GetOrCreate(id)
		sess.Authenticate(customerFromHeaders(c))

		c.Set(ctxKeySessionID, id)
		c.Set(ctxKeySession, sess)
		c.Header(HeaderSessionID, id)
		c.Next()
	}
}

func customerFromHeaders(c *gin.Context) *models.Customer {
	id := strings.TrimSpace(c.GetHeader(HeaderUserID))
	if id == "" {
		return nil
	}
	return &models.Customer{
		ID:    id,
		Name:  c.GetHeader(HeaderUserName),
		Email: c.GetHeader(HeaderUserEmail),
		Phone: c.GetHeader(HeaderUserPhone),
	}
}

func sessionFrom(c *gin.Context) *checkout.Session {
	return c.MustGet(ctxKeySession).(*checkout.Session)
}
